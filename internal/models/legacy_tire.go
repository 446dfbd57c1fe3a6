package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLegacyDescriptionLen caps legacy_tires.description.
const MaxLegacyDescriptionLen = 255

// LegacyTire is a row of the tire-shaped legacy table (legacy_tires).
// Brand, Model and Dimensions form the natural key.
type LegacyTire struct {
	ID          int             `db:"id" json:"id"`
	Brand       string          `db:"brand" json:"brand"`
	Model       string          `db:"model" json:"model"`
	Dimensions  string          `db:"dimensions" json:"dimensions"`
	Type        string          `db:"type" json:"type"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Description string          `db:"description" json:"description"`
	ImageURL    *string         `db:"image_url" json:"imageUrl"`
	CreatedAt   time.Time       `db:"created_at" json:"-"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// LegacyTireKey is the natural key of a legacy tire.
type LegacyTireKey struct {
	Brand      string
	Model      string
	Dimensions string
}

// Key returns the natural key of t.
func (t *LegacyTire) Key() LegacyTireKey {
	return LegacyTireKey{Brand: t.Brand, Model: t.Model, Dimensions: t.Dimensions}
}

// DedupeLegacyTires collapses rows sharing a natural key, keeping the last
// occurrence at the position of the first one.
func DedupeLegacyTires(rows []LegacyTire) []LegacyTire {
	index := make(map[LegacyTireKey]int, len(rows))
	out := make([]LegacyTire, 0, len(rows))
	for _, row := range rows {
		k := row.Key()
		if i, ok := index[k]; ok {
			out[i] = row
			continue
		}
		index[k] = len(out)
		out = append(out, row)
	}
	return out
}
