package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/GTDGit/tirestore_api/internal/category"
	"github.com/GTDGit/tirestore_api/internal/models"
	"github.com/GTDGit/tirestore_api/internal/utils"
)

// CatalogStore is the catalog persistence used by CatalogImportService.
type CatalogStore interface {
	GetByID(ctx context.Context, id int) (*models.CatalogProduct, error)
	UpsertByCode(ctx context.Context, products []models.CatalogProduct) (int, error)
	UpdateStatus(ctx context.Context, id int, active bool) error
	Delete(ctx context.Context, id int) error
}

// ImportResult summarizes a bulk catalog import.
type ImportResult struct {
	Rows     int      `json:"rows"`
	Upserted int      `json:"upserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

type importColumn int

const (
	colCode importColumn = iota
	colCategory
	colDesignation
	colStockOnHand
	colStockAvailable
	colPurchasePrice
	colAveragePurchasePrice
	colSalePrice
	colTaxRate
	colCoefficient
	colActive
)

// defaultColumnOrder is used when the sheet has no header row.
var defaultColumnOrder = []importColumn{
	colCode, colCategory, colDesignation, colStockOnHand, colStockAvailable,
	colPurchasePrice, colAveragePurchasePrice, colSalePrice, colTaxRate, colCoefficient, colActive,
}

var headerAliases = map[string]importColumn{
	"code":                   colCode,
	"reference":              colCode,
	"référence":              colCode,
	"category":               colCategory,
	"categorie":              colCategory,
	"catégorie":              colCategory,
	"famille":                colCategory,
	"designation":            colDesignation,
	"désignation":            colDesignation,
	"libelle":                colDesignation,
	"libellé":                colDesignation,
	"stock":                  colStockOnHand,
	"stock reel":             colStockOnHand,
	"stock réel":             colStockOnHand,
	"stock on hand":          colStockOnHand,
	"stock disponible":       colStockAvailable,
	"stock available":        colStockAvailable,
	"prix achat":             colPurchasePrice,
	"prix d'achat":           colPurchasePrice,
	"purchase price":         colPurchasePrice,
	"pmp":                    colAveragePurchasePrice,
	"prix achat moyen":       colAveragePurchasePrice,
	"average purchase price": colAveragePurchasePrice,
	"prix vente":             colSalePrice,
	"prix de vente":          colSalePrice,
	"sale price":             colSalePrice,
	"tva":                    colTaxRate,
	"tax":                    colTaxRate,
	"coefficient":            colCoefficient,
	"coef":                   colCoefficient,
	"actif":                  colActive,
	"active":                 colActive,
}

// CatalogImportService manages catalog rows: bulk .xlsx import and admin edits.
type CatalogImportService struct {
	store      CatalogStore
	categories *category.Table
}

// NewCatalogImportService constructs a CatalogImportService.
func NewCatalogImportService(store CatalogStore, categories *category.Table) *CatalogImportService {
	return &CatalogImportService{store: store, categories: categories}
}

// ImportXLSX reads the first sheet of an .xlsx workbook and upserts every
// valid row keyed on its code. Invalid rows are skipped and reported.
func (s *CatalogImportService) ImportXLSX(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidImportFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", utils.ErrInvalidImportFile)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidImportFile, err)
	}

	result := &ImportResult{Errors: []string{}}
	if len(rows) == 0 {
		return result, nil
	}

	columns, start := detectColumns(rows[0])
	if _, ok := columns[colCode]; !ok {
		return nil, fmt.Errorf("%w: no code column", utils.ErrInvalidImportFile)
	}
	if _, ok := columns[colDesignation]; !ok {
		return nil, fmt.Errorf("%w: no designation column", utils.ErrInvalidImportFile)
	}

	products := make([]models.CatalogProduct, 0, len(rows)-start)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		result.Rows++

		p, err := s.parseRow(row, columns)
		if err != nil {
			result.Skipped++
			// Excel row numbers are 1-based.
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		products = append(products, p)
	}

	if len(products) > 0 {
		n, err := s.store.UpsertByCode(ctx, products)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert catalog products: %w", err)
		}
		result.Upserted = n
	}

	log.Info().
		Int("rows", result.Rows).
		Int("upserted", result.Upserted).
		Int("skipped", result.Skipped).
		Msg("Catalog import completed")

	return result, nil
}

// Get returns a catalog product by id.
func (s *CatalogImportService) Get(ctx context.Context, id int) (*models.CatalogProduct, error) {
	p, err := s.store.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrCatalogProductNotFound
	}
	return p, err
}

// SetActive toggles a product. Deactivation does not remove its legacy tire.
func (s *CatalogImportService) SetActive(ctx context.Context, id int, active bool) error {
	err := s.store.UpdateStatus(ctx, id, active)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrCatalogProductNotFound
	}
	return err
}

// Delete removes a catalog product.
func (s *CatalogImportService) Delete(ctx context.Context, id int) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrCatalogProductNotFound
	}
	return err
}

// Categories returns the category reference table.
func (s *CatalogImportService) Categories() []category.Category {
	return s.categories.All()
}

func (s *CatalogImportService) parseRow(row []string, columns map[importColumn]int) (models.CatalogProduct, error) {
	cell := func(c importColumn) string {
		i, ok := columns[c]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var p models.CatalogProduct
	var err error

	if p.Code, err = strconv.Atoi(cell(colCode)); err != nil || p.Code <= 0 {
		return p, fmt.Errorf("invalid code %q", cell(colCode))
	}
	if p.CategoryID, err = s.parseCategory(cell(colCategory)); err != nil {
		return p, err
	}
	p.Designation = norm.NFC.String(strings.Join(strings.Fields(cell(colDesignation)), " "))
	if p.Designation == "" {
		return p, errors.New("empty designation")
	}

	if p.StockOnHand, err = parseIntCell(cell(colStockOnHand), 0); err != nil {
		return p, fmt.Errorf("invalid stock: %w", err)
	}
	if p.StockAvailable, err = parseIntCell(cell(colStockAvailable), p.StockOnHand); err != nil {
		return p, fmt.Errorf("invalid available stock: %w", err)
	}
	if p.PurchasePrice, err = parseDecimalCell(cell(colPurchasePrice), decimal.Zero); err != nil {
		return p, fmt.Errorf("invalid purchase price: %w", err)
	}
	if p.AveragePurchasePrice, err = parseDecimalCell(cell(colAveragePurchasePrice), p.PurchasePrice); err != nil {
		return p, fmt.Errorf("invalid average purchase price: %w", err)
	}
	if p.SalePrice, err = parseDecimalCell(cell(colSalePrice), decimal.Zero); err != nil {
		return p, fmt.Errorf("invalid sale price: %w", err)
	}
	if p.TaxRatePercent, err = parseIntCell(strings.TrimSuffix(cell(colTaxRate), "%"), models.DefaultTaxRatePercent); err != nil {
		return p, fmt.Errorf("invalid tax rate: %w", err)
	}
	if p.Coefficient, err = parseDecimalCell(cell(colCoefficient), decimal.NewFromInt(1)); err != nil {
		return p, fmt.Errorf("invalid coefficient: %w", err)
	}
	if p.Active, err = parseActiveCell(cell(colActive)); err != nil {
		return p, err
	}

	p.ComputeStockValue()
	return p, nil
}

// parseCategory accepts a numeric id or a category code (e.g. PNE).
// An empty cell defaults to tires.
func (s *CatalogImportService) parseCategory(raw string) (int, error) {
	if raw == "" {
		return category.TireCategoryID, nil
	}
	if id, err := strconv.Atoi(raw); err == nil {
		return id, nil
	}
	if c, ok := s.categories.ByCode(strings.ToUpper(raw)); ok {
		return c.ID, nil
	}
	return 0, fmt.Errorf("unknown category %q", raw)
}

// detectColumns maps the header row to columns. When the first row is not a
// header, the default order is used and data starts at row 0.
func detectColumns(first []string) (map[importColumn]int, int) {
	columns := make(map[importColumn]int)
	for i, raw := range first {
		key := strings.ToLower(norm.NFC.String(strings.Join(strings.Fields(raw), " ")))
		if col, ok := headerAliases[key]; ok {
			if _, seen := columns[col]; !seen {
				columns[col] = i
			}
		}
	}
	if len(columns) > 0 {
		return columns, 1
	}

	for i, col := range defaultColumnOrder {
		columns[col] = i
	}
	return columns, 0
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseIntCell(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	// Spreadsheet cells often hold integers formatted as decimals ("4.0").
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	return int(d.IntPart()), nil
}

func parseDecimalCell(raw string, def decimal.Decimal) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if raw == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", raw)
	}
	return d.Round(3), nil
}

func parseActiveCell(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "1", "true", "yes", "oui", "o", "y":
		return true, nil
	case "0", "false", "no", "non", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid active flag %q", raw)
}
