// Package carbon resolves emission factors and computes CO2e values.
package carbon

import (
	"context"
	"strings"

	"example.com/carbonlog/internal/domain"
)

// defaultFactors is the in-memory fallback table consulted when the catalog
// is unreachable or has no row for a key. Constructed once; never mutated.
var defaultFactors = map[string]float64{
	"car":              0.19,
	"diesel_car":       0.17,
	"public_transport": 0.04,
	"flight":           0.25,
	"beef":             15.5,
	"poultry":          1.8,
	"electricity":      0.5,
}

// Resolver looks up emission factors by normalized key. Lookups degrade
// through verified rows, the caller's own pending rows, any catalog row, and
// finally the built-in default table; no error ever escapes.
type Resolver struct {
	catalog  domain.CatalogRepository
	defaults map[string]float64
}

// NewResolver builds a Resolver over the given catalog.
func NewResolver(catalog domain.CatalogRepository) *Resolver {
	return &Resolver{catalog: catalog, defaults: defaultFactors}
}

// Resolve returns the factor value for key and whether it is verified.
// A miss on every tier yields (0, false).
func (r *Resolver) Resolve(ctx context.Context, key, username string) (float64, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return 0, false
	}

	if r.catalog != nil {
		// Tier 1: the curated verified row.
		if rows, err := r.catalog.Find(ctx, key, domain.FactorVerified, ""); err == nil && len(rows) > 0 {
			return rows[0].CO2ePerUnit, true
		}

		// Tier 2: the caller's own pending submission.
		if username != "" {
			if rows, err := r.catalog.Find(ctx, key, domain.FactorPending, username); err == nil && len(rows) > 0 {
				return rows[0].CO2ePerUnit, false
			}
		}

		// Tier 3: any row. Legacy rows without a status are trusted as
		// verified; everything else is usable but unverified.
		if rows, err := r.catalog.Find(ctx, key, "", ""); err == nil && len(rows) > 0 {
			row := rows[0]
			return row.CO2ePerUnit, row.Status == ""
		}
	}

	// Tier 4: built-in defaults, never verified.
	if value, ok := r.defaults[key]; ok {
		return value, false
	}

	return 0, false
}
