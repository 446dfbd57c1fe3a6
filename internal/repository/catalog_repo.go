package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/tirestore_api/internal/models"
)

const catalogColumns = `id, code, category_id, designation, stock_on_hand, stock_available,
        purchase_price, average_purchase_price, sale_price, stock_value, tax_rate_percent,
        coefficient, active, created_at, updated_at`

// CatalogRepository handles data access for catalog_products.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListActive returns all active products ordered by id. When categoryID is
// non-nil only that category is returned.
func (r *CatalogRepository) ListActive(ctx context.Context, categoryID *int) ([]models.CatalogProduct, error) {
	q := `SELECT ` + catalogColumns + ` FROM catalog_products WHERE active = ?`
	args := []interface{}{true}
	if categoryID != nil {
		q += ` AND category_id = ?`
		args = append(args, *categoryID)
	}
	q += ` ORDER BY id`

	var products []models.CatalogProduct
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product by id.
func (r *CatalogRepository) GetByID(ctx context.Context, id int) (*models.CatalogProduct, error) {
	q := r.db.Rebind(`SELECT ` + catalogColumns + ` FROM catalog_products WHERE id = ? LIMIT 1`)

	var p models.CatalogProduct
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByCode returns a single product by its business code.
func (r *CatalogRepository) GetByCode(ctx context.Context, code int) (*models.CatalogProduct, error) {
	q := r.db.Rebind(`SELECT ` + catalogColumns + ` FROM catalog_products WHERE code = ? LIMIT 1`)

	var p models.CatalogProduct
	if err := r.db.GetContext(ctx, &p, q, code); err != nil {
		return nil, err
	}
	return &p, nil
}

// CountActive returns the number of active products across all categories.
func (r *CatalogRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(1) FROM catalog_products WHERE active = ?`), true)
	return n, err
}

// UpsertByCode inserts or updates products keyed on code inside one transaction.
// It returns the number of rows written.
func (r *CatalogRepository) UpsertByCode(ctx context.Context, products []models.CatalogProduct) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	const q = `
        INSERT INTO catalog_products (
            code, category_id, designation, stock_on_hand, stock_available,
            purchase_price, average_purchase_price, sale_price, stock_value,
            tax_rate_percent, coefficient, active, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (code) DO UPDATE SET
            category_id = EXCLUDED.category_id,
            designation = EXCLUDED.designation,
            stock_on_hand = EXCLUDED.stock_on_hand,
            stock_available = EXCLUDED.stock_available,
            purchase_price = EXCLUDED.purchase_price,
            average_purchase_price = EXCLUDED.average_purchase_price,
            sale_price = EXCLUDED.sale_price,
            stock_value = EXCLUDED.stock_value,
            tax_rate_percent = EXCLUDED.tax_rate_percent,
            coefficient = EXCLUDED.coefficient,
            active = EXCLUDED.active,
            updated_at = EXCLUDED.updated_at`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(q))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range products {
		if _, err := stmt.ExecContext(ctx,
			p.Code,
			p.CategoryID,
			p.Designation,
			p.StockOnHand,
			p.StockAvailable,
			p.PurchasePrice,
			p.AveragePurchasePrice,
			p.SalePrice,
			p.StockValue,
			p.TaxRatePercent,
			p.Coefficient,
			p.Active,
			now,
			now,
		); err != nil {
			return 0, fmt.Errorf("upsert code %d: %w", p.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(products), nil
}

// UpdateStatus sets the active flag. It returns sql.ErrNoRows when id does not exist.
func (r *CatalogRepository) UpdateStatus(ctx context.Context, id int, active bool) error {
	q := r.db.Rebind(`UPDATE catalog_products SET active = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, active, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes a product by id. It returns sql.ErrNoRows when id does not exist.
func (r *CatalogRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM catalog_products WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
