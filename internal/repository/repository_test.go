package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/tirestore_api/internal/models"
	"github.com/GTDGit/tirestore_api/internal/repository"
	"github.com/GTDGit/tirestore_api/internal/testutil"
)

func product(code, categoryID int, designation, salePrice string, active bool) models.CatalogProduct {
	return models.CatalogProduct{
		Code:           code,
		CategoryID:     categoryID,
		Designation:    designation,
		StockOnHand:    10,
		StockAvailable: 8,
		PurchasePrice:  decimal.RequireFromString("50.000"),
		SalePrice:      decimal.RequireFromString(salePrice),
		TaxRatePercent: 19,
		Coefficient:    decimal.RequireFromString("1.4"),
		Active:         active,
	}
}

func TestCatalogRepositoryUpsertAndList(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repo := repository.NewCatalogRepository(testutil.NewDB(t))

	n, err := repo.UpsertByCode(ctx, []models.CatalogProduct{
		product(100, 1, "MICHELIN PILOT SPORT 4 205/55R16 91V", "120.500", true),
		product(101, 2, "JANTE ALU 16", "300", true),
		product(102, 1, "PIRELLI P ZERO 245/40R18", "210", false),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 3)

	all, err := repo.ListActive(ctx, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 2)
	c.Assert(all[0].Code, qt.Equals, 100)
	c.Assert(all[0].SalePrice.Equal(decimal.RequireFromString("120.5")), qt.IsTrue)
	c.Assert(all[1].Code, qt.Equals, 101)

	tires := 1
	onlyTires, err := repo.ListActive(ctx, &tires)
	c.Assert(err, qt.IsNil)
	c.Assert(onlyTires, qt.HasLen, 1)
	c.Assert(onlyTires[0].Code, qt.Equals, 100)

	count, err := repo.CountActive(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 2)

	// Re-import with the same code updates in place.
	updated := product(100, 1, "MICHELIN PILOT SPORT 5 205/55R16 91V", "130", true)
	_, err = repo.UpsertByCode(ctx, []models.CatalogProduct{updated})
	c.Assert(err, qt.IsNil)

	got, err := repo.GetByCode(ctx, 100)
	c.Assert(err, qt.IsNil)
	c.Assert(got.ID, qt.Equals, all[0].ID)
	c.Assert(got.Designation, qt.Equals, "MICHELIN PILOT SPORT 5 205/55R16 91V")

	count, err = repo.CountActive(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 2)
}

func TestCatalogRepositoryStatusAndDelete(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repo := repository.NewCatalogRepository(testutil.NewDB(t))

	_, err := repo.UpsertByCode(ctx, []models.CatalogProduct{product(1, 1, "A B 205/55R16", "10", true)})
	c.Assert(err, qt.IsNil)
	p, err := repo.GetByCode(ctx, 1)
	c.Assert(err, qt.IsNil)

	c.Assert(repo.UpdateStatus(ctx, p.ID, false), qt.IsNil)
	got, err := repo.GetByID(ctx, p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Active, qt.IsFalse)

	c.Assert(repo.UpdateStatus(ctx, 9999, false), qt.ErrorIs, sql.ErrNoRows)

	c.Assert(repo.Delete(ctx, p.ID), qt.IsNil)
	_, err = repo.GetByID(ctx, p.ID)
	c.Assert(err, qt.ErrorIs, sql.ErrNoRows)
	c.Assert(repo.Delete(ctx, p.ID), qt.ErrorIs, sql.ErrNoRows)
}

func TestLegacyTireRepositoryUpsertBatch(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repo := repository.NewLegacyTireRepository(testutil.NewDB(t))

	rows := []models.LegacyTire{
		{Brand: "MICHELIN", Model: "PILOT SPORT 4", Dimensions: "205/55R16", Type: "pneu", Price: decimal.RequireFromString("120.5"), Stock: 4, Description: "first"},
		{Brand: "PIRELLI", Model: "P ZERO", Dimensions: "245/40R18", Type: "pneu", Price: decimal.RequireFromString("210"), Stock: 2, Description: "pirelli"},
		{Brand: "MICHELIN", Model: "PILOT SPORT 4", Dimensions: "205/55R16", Type: "pneu", Price: decimal.RequireFromString("125"), Stock: 7, Description: "second"},
	}

	n, err := repo.UpsertBatch(ctx, rows)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 2)

	count, err := repo.Count(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 2)

	key := models.LegacyTireKey{Brand: "MICHELIN", Model: "PILOT SPORT 4", Dimensions: "205/55R16"}
	got, err := repo.GetByKey(ctx, key)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Stock, qt.Equals, 7)
	c.Assert(got.Description, qt.Equals, "second")
	c.Assert(got.Price.Equal(decimal.RequireFromString("125")), qt.IsTrue)
	c.Assert(got.ImageURL, qt.IsNil)

	// A second write of the same key updates rather than inserts.
	_, err = repo.UpsertBatch(ctx, []models.LegacyTire{{Brand: "MICHELIN", Model: "PILOT SPORT 4", Dimensions: "205/55R16", Type: "pneu", Price: decimal.RequireFromString("99.999"), Stock: 1}})
	c.Assert(err, qt.IsNil)

	count, err = repo.Count(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 2)

	again, err := repo.GetByKey(ctx, key)
	c.Assert(err, qt.IsNil)
	c.Assert(again.ID, qt.Equals, got.ID)
	c.Assert(again.Stock, qt.Equals, 1)

	n, err = repo.UpsertBatch(ctx, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 0)
}

func TestSyncRunRepository(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repo := repository.NewSyncRunRepository(testutil.NewDB(t))

	last, err := repo.LastFinishedAt(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(last, qt.IsNil)

	started := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	run := &models.SyncRun{ID: "run-1", Scope: models.SyncScopeTires, BatchSize: 50, StartedAt: started}
	c.Assert(repo.Create(ctx, run), qt.IsNil)

	// Unfinished runs do not count as a sync.
	last, err = repo.LastFinishedAt(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(last, qt.IsNil)

	finished := started.Add(90 * time.Second)
	run.SourceCount, run.SuccessCount, run.ErrorCount, run.SkippedCount = 120, 110, 5, 5
	run.Errors = "batch 51-100: timeout"
	run.FinishedAt = &finished
	c.Assert(repo.Finish(ctx, run), qt.IsNil)

	last, err = repo.LastFinishedAt(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(last, qt.IsNotNil)
	c.Assert(last.Equal(finished), qt.IsTrue, qt.Commentf("got %v", last))

	runs, err := repo.ListRecent(ctx, 10)
	c.Assert(err, qt.IsNil)
	c.Assert(runs, qt.HasLen, 1)
	c.Assert(runs[0].Scope, qt.Equals, models.SyncScopeTires)
	c.Assert(runs[0].SuccessCount, qt.Equals, 110)
	c.Assert(runs[0].Errors, qt.Equals, "batch 51-100: timeout")
}

func TestAdminUserRepository(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	repo := repository.NewAdminUserRepository(testutil.NewDB(t))

	user := &models.AdminUser{Email: "ops@example.com", PasswordHash: "hash", Name: "Ops", IsActive: true}
	c.Assert(repo.Create(ctx, user), qt.IsNil)
	c.Assert(user.ID > 0, qt.IsTrue)

	got, err := repo.GetByEmail(ctx, "ops@example.com")
	c.Assert(err, qt.IsNil)
	c.Assert(got.ID, qt.Equals, user.ID)
	c.Assert(got.Role, qt.Equals, models.AdminRoleAdmin)
	c.Assert(got.LastLoginAt, qt.IsNil)

	c.Assert(repo.TouchLastLogin(ctx, user.ID), qt.IsNil)
	got, err = repo.GetByEmail(ctx, "ops@example.com")
	c.Assert(err, qt.IsNil)
	c.Assert(got.LastLoginAt, qt.IsNotNil)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	c.Assert(err, qt.ErrorIs, sql.ErrNoRows)
}
