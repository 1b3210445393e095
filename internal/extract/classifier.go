package extract

import (
	"context"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"example.com/carbonlog/internal/domain"
)

// similarityThreshold is the minimum edit-distance ratio for a word to count
// as a match against a keyword or catalog key part.
const similarityThreshold = 0.8

// categoryKeywords lists indicative words per category, checked in fixed
// priority order. Built once at process start and never mutated.
type categoryKeywords struct {
	Type  domain.ActivityType
	Words []string
}

var defaultCategoryKeywords = []categoryKeywords{
	{domain.ActivityFood, []string{"eat", "ate", "drink", "drank", "food", "meal", "burger", "apple", "rice", "chicken"}},
	{domain.ActivityTransport, []string{"drive", "drove", "ride", "took", "cab", "bus", "train", "flight", "fly", "car"}},
	{domain.ActivityEnergy, []string{"light", "electricity", "power", "kwh", "ac", "fan", "use", "used"}},
}

// Classification is the deterministic fallback guess for one sentence.
type Classification struct {
	Type     domain.ActivityType
	Key      string
	Quantity float64
	Unit     string
}

// Classifier matches free text against fixed keyword sets and the catalog of
// known factor keys using approximate string similarity. It is the safety net
// used when the oracle is unavailable or returns an unusable result.
type Classifier struct {
	catalog  domain.CatalogRepository
	keywords []categoryKeywords
	metric   *metrics.Levenshtein
}

// NewClassifier builds a Classifier over the given catalog.
func NewClassifier(catalog domain.CatalogRepository) *Classifier {
	return &Classifier{
		catalog:  catalog,
		keywords: defaultCategoryKeywords,
		metric:   metrics.NewLevenshtein(),
	}
}

// Classify guesses category, key, quantity, and unit for a sentence. A
// sentence with no recognizable category yields (UNKNOWN, "", 0, "").
func (c *Classifier) Classify(ctx context.Context, text string) Classification {
	words := tokenizeWords(text)

	category := domain.ActivityUnknown
	for _, set := range c.keywords {
		if c.anyWordMatches(words, set.Words) {
			category = set.Type
			break
		}
	}
	if category == domain.ActivityUnknown {
		return Classification{Type: domain.ActivityUnknown}
	}

	quantity := ExtractQuantity(text)
	key := c.resolveKey(ctx, strings.ToLower(text), words)
	if key == "" {
		key = category.DefaultKey()
	}

	return Classification{
		Type:     category,
		Key:      key,
		Quantity: quantity,
		Unit:     category.DefaultUnit(),
	}
}

// resolveKey matches the text against known catalog keys. Exact substring
// containment of a normalized key wins immediately, longest keys first so
// specific entries beat generic ones. Otherwise the single best fuzzy score
// across all key parts wins, provided it clears the threshold.
func (c *Classifier) resolveKey(ctx context.Context, loweredText string, words []string) string {
	keys, err := c.catalog.AllKeys(ctx)
	if err != nil || len(keys) == 0 {
		return ""
	}

	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	bestKey := ""
	bestScore := 0.0
	for _, key := range keys {
		normalized := normalizeKey(key)
		if strings.Contains(loweredText, normalized) {
			return key
		}
		for _, part := range strings.Fields(normalized) {
			if len(part) <= 2 {
				continue
			}
			for _, word := range words {
				score := strutil.Similarity(word, part, c.metric)
				if score > bestScore {
					bestScore = score
					bestKey = key
				}
			}
		}
	}

	if bestScore >= similarityThreshold {
		return bestKey
	}
	return ""
}

func (c *Classifier) anyWordMatches(words, keywords []string) bool {
	for _, word := range words {
		for _, keyword := range keywords {
			if strutil.Similarity(word, keyword, c.metric) >= similarityThreshold {
				return true
			}
		}
	}
	return false
}

func tokenizeWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.Trim(field, ".,!?;:'\"")
		if field != "" {
			words = append(words, field)
		}
	}
	return words
}

// normalizeKey lowercases a catalog key and replaces separators with spaces
// so stored keys like "Auto_Rickshaw_CNG" can match prose text.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", " ")
	key = strings.ReplaceAll(key, "-", " ")
	return strings.TrimSpace(key)
}
