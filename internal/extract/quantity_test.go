package extract

import "testing"

func TestExtractQuantity(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"I drove 2.5 km", 2.5},
		{"I ate 2 burgers", 2},
		{"I ate a burger", 1},
		{"I drank half a litre", 0.5},
		{"quarter tank of petrol", 0.25},
		{"I flew twice this month", 2},
		{"took the bus twenty km", 20},
		{"no numbers here", 1},
		{"", 1},
	}

	for _, tc := range cases {
		if got := ExtractQuantity(tc.text); got != tc.want {
			t.Errorf("ExtractQuantity(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestExtractQuantityPrefersDigitsOverWords(t *testing.T) {
	if got := ExtractQuantity("two rides totalling 30 km"); got != 30 {
		t.Fatalf("expected numeric literal to win, got %v", got)
	}
}
