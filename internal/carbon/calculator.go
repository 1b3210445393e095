package carbon

import (
	"context"
	"math"
	"strings"
)

// milesToKM converts statute miles to kilometres.
const milesToKM = 1.60934

// synonyms folds colloquial item names onto catalog keys. Constructed once at
// process start and never mutated.
var synonyms = map[string]string{
	"cab":    "car",
	"taxi":   "car",
	"uber":   "car",
	"ride":   "car",
	"bus":    "public_transport",
	"metro":  "public_transport",
	"train":  "public_transport",
	"burger": "beef",
	"steak":  "beef",
	"meat":   "beef",
	"power":  "electricity",
	"lights": "electricity",
}

// Calculator converts a (key, quantity, unit) triple into a CO2e mass.
type Calculator struct {
	resolver *Resolver
	synonyms map[string]string
}

// NewCalculator builds a Calculator over the given resolver.
func NewCalculator(resolver *Resolver) *Calculator {
	return &Calculator{resolver: resolver, synonyms: synonyms}
}

// Calculate returns the CO2e in kilograms, rounded to two decimals, and
// whether the factor used was verified. Non-positive quantities or an absent
// key short-circuit to (0, false); nothing here ever raises.
func (c *Calculator) Calculate(ctx context.Context, key string, quantity float64, unit, username string) (float64, bool) {
	if quantity <= 0 || strings.TrimSpace(key) == "" {
		return 0, false
	}

	normalized := strings.ToLower(strings.TrimSpace(key))
	if mapped, ok := c.synonyms[normalized]; ok {
		normalized = mapped
	}

	// Normalize quantity into the unit the factor is expressed in. The
	// factor's declared unit is assumed compatible; no cross-category
	// validation happens here.
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "mile", "miles":
		quantity *= milesToKM
	case "g", "gram", "grams":
		quantity /= 1000
	}

	factor, verified := c.resolver.Resolve(ctx, normalized, username)
	return round2(quantity * factor), verified
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
