package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatReply(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}
}

func TestLLMOracleAnalyze(t *testing.T) {
	server := httptest.NewServer(chatReply(t, `{ "activity_type": "FOOD", "key": "beef", "quantity": 2, "unit": "serving" }`))
	defer server.Close()

	oracle := NewLLMOracle(OracleConfig{Endpoint: server.URL, Model: "test-model"})
	result, err := oracle.Analyze(context.Background(), "I ate 2 burgers", "priya")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.ActivityType == nil || *result.ActivityType != "FOOD" {
		t.Errorf("activity_type = %v", result.ActivityType)
	}
	if result.Key == nil || *result.Key != "beef" {
		t.Errorf("key = %v", result.Key)
	}
	if result.Quantity == nil || float64(*result.Quantity) != 2 {
		t.Errorf("quantity = %v", result.Quantity)
	}
}

func TestLLMOracleStripsFences(t *testing.T) {
	content := "```json\n{ \"activity_type\": \"TRANSPORT\", \"key\": \"car\", \"quantity\": \"25\", \"unit\": \"mile\" }\n```"
	server := httptest.NewServer(chatReply(t, content))
	defer server.Close()

	oracle := NewLLMOracle(OracleConfig{Endpoint: server.URL})
	result, err := oracle.Analyze(context.Background(), "I took a 25 mile cab ride", "priya")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// Quantities quoted as strings are still accepted.
	if result.Quantity == nil || float64(*result.Quantity) != 25 {
		t.Errorf("quantity = %v", result.Quantity)
	}
	if result.Unit == nil || *result.Unit != "mile" {
		t.Errorf("unit = %v", result.Unit)
	}
}

func TestLLMOracleNoJSONObject(t *testing.T) {
	server := httptest.NewServer(chatReply(t, "Sorry, I cannot help with that."))
	defer server.Close()

	oracle := NewLLMOracle(OracleConfig{Endpoint: server.URL})
	if _, err := oracle.Analyze(context.Background(), "I drove 5 km", "priya"); err == nil {
		t.Fatal("expected error for prose-only reply")
	}
}

func TestLLMOracleHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	oracle := NewLLMOracle(OracleConfig{Endpoint: server.URL})
	if _, err := oracle.Analyze(context.Background(), "I drove 5 km", "priya"); err == nil {
		t.Fatal("expected error for HTTP 503")
	}
}

// A word quantity must not poison the rest of the reply; it decodes as zero
// and the orchestrator re-parses it from the sentence.
func TestParseOracleContentWordQuantity(t *testing.T) {
	result, err := parseOracleContent(`{ "activity_type": "FOOD", "key": "beef", "quantity": "a couple", "unit": "serving" }`)
	if err != nil {
		t.Fatalf("parseOracleContent: %v", err)
	}
	if result.Key == nil || *result.Key != "beef" {
		t.Errorf("key = %v", result.Key)
	}
	if result.Quantity == nil || float64(*result.Quantity) != 0 {
		t.Errorf("quantity = %v, want 0", result.Quantity)
	}
}

func TestParseOracleContentMalformed(t *testing.T) {
	if _, err := parseOracleContent(`{ "key": }`); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
