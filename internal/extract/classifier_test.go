package extract

import (
	"context"
	"errors"
	"testing"

	"example.com/carbonlog/internal/domain"
)

// fakeCatalog is an in-memory stand-in for the factor catalog, shared by the
// classifier and orchestrator tests.
type fakeCatalog struct {
	keys    []string
	rows    map[string][]domain.EmissionFactor
	failAll bool
}

func (f *fakeCatalog) AllKeys(ctx context.Context) ([]string, error) {
	if f.failAll {
		return nil, errors.New("catalog down")
	}
	return append([]string(nil), f.keys...), nil
}

func (f *fakeCatalog) Find(ctx context.Context, key string, status domain.FactorStatus, owner string) ([]domain.EmissionFactor, error) {
	if f.failAll {
		return nil, errors.New("catalog down")
	}
	var out []domain.EmissionFactor
	for _, row := range f.rows[key] {
		if status != "" && row.Status != status {
			continue
		}
		if owner != "" && row.AddedBy != owner {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeCatalog) Insert(ctx context.Context, factor domain.EmissionFactor) error {
	f.keys = append(f.keys, factor.Key)
	if f.rows == nil {
		f.rows = map[string][]domain.EmissionFactor{}
	}
	f.rows[factor.Key] = append(f.rows[factor.Key], factor)
	return nil
}

func newTestCatalog() *fakeCatalog {
	return &fakeCatalog{
		keys: []string{"beef", "car", "electricity", "public_transport"},
		rows: map[string][]domain.EmissionFactor{
			"beef":        {{Key: "beef", CO2ePerUnit: 15.5, Unit: "serving", Status: domain.FactorVerified}},
			"car":         {{Key: "car", CO2ePerUnit: 0.19, Unit: "km", Status: domain.FactorVerified}},
			"electricity": {{Key: "electricity", CO2ePerUnit: 0.5, Unit: "kWh", Status: domain.FactorVerified}},
		},
	}
}

func TestClassifyCab(t *testing.T) {
	c := NewClassifier(newTestCatalog())

	got := c.Classify(context.Background(), "I took a cab")

	if got.Type != domain.ActivityTransport {
		t.Fatalf("type = %v, want TRANSPORT", got.Type)
	}
	// "cab" matches no catalog key, so the category default applies.
	if got.Key != "car" {
		t.Errorf("key = %q, want car", got.Key)
	}
	if got.Quantity != 1 {
		t.Errorf("quantity = %v, want 1", got.Quantity)
	}
	if got.Unit != "km" {
		t.Errorf("unit = %q, want km", got.Unit)
	}
}

func TestClassifyCatalogSubstringWins(t *testing.T) {
	c := NewClassifier(newTestCatalog())

	got := c.Classify(context.Background(), "I used 50 kWh of electricity")

	if got.Type != domain.ActivityEnergy {
		t.Fatalf("type = %v, want ENERGY", got.Type)
	}
	if got.Key != "electricity" {
		t.Errorf("key = %q, want electricity", got.Key)
	}
	if got.Quantity != 50 {
		t.Errorf("quantity = %v, want 50", got.Quantity)
	}
}

func TestClassifyFuzzyKeyword(t *testing.T) {
	c := NewClassifier(newTestCatalog())

	// "burgers" is one edit away from the "burger" keyword.
	got := c.Classify(context.Background(), "I ate 2 burgers")

	if got.Type != domain.ActivityFood {
		t.Fatalf("type = %v, want FOOD", got.Type)
	}
	if got.Quantity != 2 {
		t.Errorf("quantity = %v, want 2", got.Quantity)
	}
	if got.Unit != "serving" {
		t.Errorf("unit = %q, want serving", got.Unit)
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := NewClassifier(newTestCatalog())

	got := c.Classify(context.Background(), "xylophone concerto rehearsal")

	if got.Type != domain.ActivityUnknown {
		t.Fatalf("type = %v, want UNKNOWN", got.Type)
	}
	if got.Key != "" {
		t.Errorf("key = %q, want empty", got.Key)
	}
}

func TestClassifySurvivesCatalogOutage(t *testing.T) {
	c := NewClassifier(&fakeCatalog{failAll: true})

	got := c.Classify(context.Background(), "I drove 10 km")

	if got.Type != domain.ActivityTransport {
		t.Fatalf("type = %v, want TRANSPORT", got.Type)
	}
	if got.Key != "car" {
		t.Errorf("key = %q, want category default car", got.Key)
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := normalizeKey("Auto_Rickshaw-CNG"); got != "auto rickshaw cng" {
		t.Fatalf("normalizeKey = %q", got)
	}
}
