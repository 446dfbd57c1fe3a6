package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/tirestore_api/internal/models"
)

// LegacyTireRepository handles data access for legacy_tires.
type LegacyTireRepository struct {
	db *sqlx.DB
}

// NewLegacyTireRepository creates a new LegacyTireRepository.
func NewLegacyTireRepository(db *sqlx.DB) *LegacyTireRepository {
	return &LegacyTireRepository{db: db}
}

// UpsertBatch writes rows in a single statement, conflict-resolved on
// (brand, model, dimensions) with every mirrored column overwritten.
// Rows sharing a key are collapsed first, the last one winning, because a
// single INSERT ... ON CONFLICT cannot touch the same row twice.
// It returns the number of distinct keys written.
func (r *LegacyTireRepository) UpsertBatch(ctx context.Context, rows []models.LegacyTire) (int, error) {
	rows = models.DedupeLegacyTires(rows)
	if len(rows) == 0 {
		return 0, nil
	}

	const cols = 9
	now := time.Now().UTC()
	placeholders := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*cols)
	for _, t := range rows {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			t.Brand,
			t.Model,
			t.Dimensions,
			t.Type,
			t.Price,
			t.Stock,
			t.Description,
			t.ImageURL,
			now,
		)
	}

	q := `
        INSERT INTO legacy_tires (brand, model, dimensions, type, price, stock, description, image_url, updated_at)
        VALUES ` + strings.Join(placeholders, ", ") + `
        ON CONFLICT (brand, model, dimensions) DO UPDATE SET
            type = EXCLUDED.type,
            price = EXCLUDED.price,
            stock = EXCLUDED.stock,
            description = EXCLUDED.description,
            image_url = EXCLUDED.image_url,
            updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(q), args...); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Count returns the total number of legacy tires.
func (r *LegacyTireRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM legacy_tires`)
	return n, err
}

// GetByKey returns the legacy tire with the given natural key.
func (r *LegacyTireRepository) GetByKey(ctx context.Context, key models.LegacyTireKey) (*models.LegacyTire, error) {
	q := r.db.Rebind(`
        SELECT id, brand, model, dimensions, type, price, stock, description, image_url, created_at, updated_at
        FROM legacy_tires
        WHERE brand = ? AND model = ? AND dimensions = ?
        LIMIT 1`)

	var t models.LegacyTire
	if err := r.db.GetContext(ctx, &t, q, key.Brand, key.Model, key.Dimensions); err != nil {
		return nil, err
	}
	return &t, nil
}
