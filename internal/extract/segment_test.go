package extract

import (
	"reflect"
	"testing"
)

func TestSegmentSentencesSingle(t *testing.T) {
	got := SegmentSentences("I drove 10 km")
	want := []string{"I drove 10 km"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSegmentSentencesConjunctions(t *testing.T) {
	got := SegmentSentences("I drove 5 km and then I ate a burger")
	if len(got) != 2 {
		t.Fatalf("expected 2 clauses, got %v", got)
	}
	if got[0] != "I drove 5 km" {
		t.Errorf("first clause = %q", got[0])
	}
	if got[1] != "I ate a burger" {
		t.Errorf("second clause = %q", got[1])
	}
}

func TestSegmentSentencesCommas(t *testing.T) {
	got := SegmentSentences("I ate a burger, I took a cab home")
	if len(got) != 2 {
		t.Fatalf("expected 2 clauses, got %v", got)
	}
}

func TestSegmentSentencesKeepsNumericCommas(t *testing.T) {
	got := SegmentSentences("The flight covered 1,200 km")
	if len(got) != 1 {
		t.Fatalf("expected 1 clause, got %v", got)
	}
	if got[0] != "The flight covered 1,200 km" {
		t.Errorf("clause = %q", got[0])
	}
}

func TestSegmentSentencesNewlines(t *testing.T) {
	got := SegmentSentences("I drove 5 km.\nI used 2 kWh of power.")
	if len(got) != 2 {
		t.Fatalf("expected 2 clauses, got %v", got)
	}
}

func TestSegmentSentencesBlankInput(t *testing.T) {
	if got := SegmentSentences("   \n  "); len(got) != 0 {
		t.Fatalf("expected no clauses, got %v", got)
	}
}

// Feeding a clause back through segmentation must return it unchanged,
// otherwise re-processing stored text would drift.
func TestSegmentSentencesIdempotent(t *testing.T) {
	first := SegmentSentences("I ate 2 burgers and i drank a coffee")
	for _, clause := range first {
		again := SegmentSentences(clause)
		if len(again) != 1 || again[0] != clause {
			t.Errorf("clause %q re-segmented to %v", clause, again)
		}
	}
}
