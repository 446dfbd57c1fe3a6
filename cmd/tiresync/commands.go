package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-extras/cobraflags"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/GTDGit/tirestore_api/internal/cache"
	"github.com/GTDGit/tirestore_api/internal/category"
	"github.com/GTDGit/tirestore_api/internal/config"
	"github.com/GTDGit/tirestore_api/internal/database"
	"github.com/GTDGit/tirestore_api/internal/repository"
	"github.com/GTDGit/tirestore_api/internal/service"
)

const (
	idFlag   = "id"
	fileFlag = "file"
)

var oneFlags = map[string]cobraflags.Flag{
	idFlag: &cobraflags.StringFlag{
		Name:  idFlag,
		Value: "",
		Usage: "Catalog product id to sync (required)",
	},
}

var importFlags = map[string]cobraflags.Flag{
	fileFlag: &cobraflags.StringFlag{
		Name:  fileFlag,
		Value: "",
		Usage: "Path to the .xlsx catalog export (required)",
	},
}

// app holds the wiring shared by every subcommand.
type app struct {
	db      *sqlx.DB
	redis   *cache.RedisClient
	sync    *service.TireSyncService
	catalog *service.CatalogImportService
}

func newRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "tiresync",
		Short: "Operate the catalog to legacy tire synchronizer",
		Long: `tiresync runs legacy tire synchronizations and catalog imports against the
database configured through the usual environment variables (DB_*, REDIS_*, SYNC_*).

Examples:
  tiresync all --batch-size 100          # sync every active tire
  tiresync all --tires-only=false --dry-run
  tiresync one --id 42
  tiresync status
  tiresync import --file catalog.xlsx`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogger(verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newAllCommand(), newOneCommand(), newStatusCommand(), newImportCommand())
	return root
}

func newAllCommand() *cobra.Command {
	var (
		batchSize int
		tiresOnly bool
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Sync every active catalog product into the legacy tire table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.sync.SyncAll(ctx, service.SyncOptions{BatchSize: batchSize, TiresOnly: tiresOnly, DryRun: dryRun})
			if result != nil {
				if printErr := printJSON(result); printErr != nil {
					return printErr
				}
			}
			if err != nil {
				return err
			}
			if result.ErrorCount > 0 {
				return fmt.Errorf("%d records failed in %d batch(es)", result.ErrorCount, len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Records per batch (default SYNC_BATCH_SIZE)")
	cmd.Flags().BoolVar(&tiresOnly, "tires-only", true, "Only read the tire category")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Count candidates without writing")
	return cmd
}

func newOneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "one",
		Short: "Sync a single catalog product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := strconv.Atoi(oneFlags[idFlag].GetString())
			if err != nil || id <= 0 {
				return fmt.Errorf("--%s must be a positive integer", idFlag)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.sync.SyncOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("sync failed: %s", result.Error)
			}
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, oneFlags)
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Compare catalog and legacy row counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			status, err := a.sync.GetSyncStatus(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(status)
		},
	}
}

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import catalog products from an .xlsx export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := importFlags[fileFlag].GetString()
			if path == "" {
				return fmt.Errorf("--%s is required", fileFlag)
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.catalog.ImportXLSX(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cobraflags.RegisterMap(cmd, importFlags)
	return cmd
}

func newApp() (*app, error) {
	cfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	catalogRepo := repository.NewCatalogRepository(db)
	syncSvc := service.NewTireSyncService(
		catalogRepo,
		repository.NewLegacyTireRepository(db),
		repository.NewSyncRunRepository(db),
		cfg.Sync,
	)

	a := &app{
		db:      db,
		sync:    syncSvc,
		catalog: service.NewCatalogImportService(catalogRepo, category.NewTable()),
	}

	// The status cache is shared with the API; without Redis the CLI still works
	// and the cached status simply expires.
	if redisClient, err := cache.NewRedisClient(&cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, sync status cache disabled")
	} else {
		a.redis = redisClient
		syncSvc.SetStatusCache(cache.NewSyncStatusCache(redisClient, cfg.Sync.StatusCacheTTL))
	}
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.db.Close()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(verbose bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
