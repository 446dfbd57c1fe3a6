package category

// Type is the legacy type tag stored in legacy_tires.type.
type Type string

const (
	TypeTire      Type = "pneu"
	TypeRim       Type = "jante"
	TypeFilter    Type = "filtre"
	TypeBattery   Type = "batterie"
	TypeAccessory Type = "accessoire"
	TypeInnerTube Type = "chambre"
	TypeLubricant Type = "lubrifiant"
)

// DefaultType is returned for category ids missing from the table.
const DefaultType = TypeTire

// TireCategoryID is the catalog category holding tires.
const TireCategoryID = 1

// Category is a row of the static category reference data.
type Category struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Type Type   `json:"type"`
}

var categories = []Category{
	{ID: TireCategoryID, Code: "PNE", Name: "Pneumatiques", Type: TypeTire},
	{ID: 2, Code: "JAN", Name: "Jantes", Type: TypeRim},
	{ID: 3, Code: "FIL", Name: "Filtres", Type: TypeFilter},
	{ID: 4, Code: "BAT", Name: "Batteries", Type: TypeBattery},
	{ID: 5, Code: "ACC", Name: "Accessoires", Type: TypeAccessory},
	{ID: 6, Code: "CHA", Name: "Chambres à air", Type: TypeInnerTube},
	{ID: 7, Code: "LUB", Name: "Lubrifiants", Type: TypeLubricant},
}

// Table is the lookup from category id (and family code) to reference data.
type Table struct {
	byID   map[int]Category
	byCode map[string]Category
}

// NewTable builds the lookup table from the built-in reference data.
func NewTable() *Table {
	t := &Table{
		byID:   make(map[int]Category, len(categories)),
		byCode: make(map[string]Category, len(categories)),
	}
	for _, c := range categories {
		t.byID[c.ID] = c
		t.byCode[c.Code] = c
	}
	return t
}

// TypeFor maps a category id to its legacy type tag. Unknown ids map to DefaultType.
func (t *Table) TypeFor(categoryID int) Type {
	if c, ok := t.byID[categoryID]; ok {
		return c.Type
	}
	return DefaultType
}

// ByID returns the category with the given id.
func (t *Table) ByID(id int) (Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// ByCode returns the category with the given family code (e.g. "PNE").
func (t *Table) ByCode(code string) (Category, bool) {
	c, ok := t.byCode[code]
	return c, ok
}

// All returns the reference data ordered by id.
func (t *Table) All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

var defaultTable = NewTable()

// MapCategoryToType maps a category id using the built-in table.
func MapCategoryToType(categoryID int) Type {
	return defaultTable.TypeFor(categoryID)
}
