package extract

import (
	"regexp"
	"strings"

	"github.com/tsawler/prose/v3"
)

// Conjunctions that commonly glue two activities into one clause.
var conjunctionPattern = regexp.MustCompile(`(?i)\s+and\s+(then|also|i)\s+`)

// SegmentSentences splits raw multi-line text into trimmed single-clause
// sentences. Commas outside numbers and glue conjunctions are promoted to
// sentence boundaries before the tokenizer runs, so "I drove 5 km and then
// ate a burger" yields two clauses. Segmenting an already-segmented clause
// returns it unchanged.
func SegmentSentences(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var sentences []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = promoteBoundaries(line)

		doc, err := prose.NewDocument(line,
			prose.WithTagging(false),
			prose.WithExtraction(false))
		if err != nil {
			// Tokenizer failure should not drop the line entirely.
			sentences = appendClause(sentences, line)
			continue
		}
		for _, sent := range doc.Sentences() {
			sentences = appendClause(sentences, sent.Text)
		}
	}
	return sentences
}

// promoteBoundaries rewrites commas (except those inside numbers, as in
// "1,000") and glue conjunctions into full stops.
func promoteBoundaries(line string) string {
	runes := []rune(line)
	var b strings.Builder
	b.Grow(len(line) + 8)
	for i, r := range runes {
		if r == ',' {
			prevDigit := i > 0 && isDigit(runes[i-1])
			nextDigit := i+1 < len(runes) && isDigit(runes[i+1])
			if !(prevDigit && nextDigit) {
				b.WriteString(". ")
				continue
			}
		}
		b.WriteRune(r)
	}
	return conjunctionPattern.ReplaceAllStringFunc(b.String(), func(match string) string {
		if strings.HasSuffix(strings.ToLower(strings.TrimSpace(match)), "i") {
			return ". I "
		}
		return ". "
	})
}

func appendClause(sentences []string, clause string) []string {
	clause = strings.TrimSpace(clause)
	// Strip the artificial boundary dot so re-segmentation is idempotent.
	clause = strings.TrimSuffix(clause, ".")
	clause = strings.TrimSpace(clause)
	if len(clause) > 2 {
		sentences = append(sentences, clause)
	}
	return sentences
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
