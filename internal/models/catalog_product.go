package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogProduct is a row of the generic product catalog (catalog_products).
// Code is the business key used by bulk imports; ID is store-assigned.
type CatalogProduct struct {
	ID                   int             `db:"id" json:"id"`
	Code                 int             `db:"code" json:"code"`
	CategoryID           int             `db:"category_id" json:"categoryId"`
	Designation          string          `db:"designation" json:"designation"`
	StockOnHand          int             `db:"stock_on_hand" json:"stockOnHand"`
	StockAvailable       int             `db:"stock_available" json:"stockAvailable"`
	PurchasePrice        decimal.Decimal `db:"purchase_price" json:"purchasePrice"`
	AveragePurchasePrice decimal.Decimal `db:"average_purchase_price" json:"averagePurchasePrice"`
	SalePrice            decimal.Decimal `db:"sale_price" json:"salePrice"`
	StockValue           decimal.Decimal `db:"stock_value" json:"stockValue"`
	TaxRatePercent       int             `db:"tax_rate_percent" json:"taxRatePercent"`
	Coefficient          decimal.Decimal `db:"coefficient" json:"coefficient"`
	Active               bool            `db:"active" json:"active"`
	CreatedAt            time.Time       `db:"created_at" json:"-"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updatedAt"`
}

// DefaultTaxRatePercent is applied to imported rows without a tax column.
const DefaultTaxRatePercent = 19

// ComputeStockValue sets StockValue to StockAvailable × PurchasePrice.
func (p *CatalogProduct) ComputeStockValue() {
	p.StockValue = p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.StockAvailable))).Round(3)
}
