package transcribe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/recognize" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("model"); got != "en-US_Multimedia" {
			t.Errorf("model = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/webm" {
			t.Errorf("content type = %q", got)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "apikey" || pass != "secret" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "fake-audio" {
			t.Errorf("body = %q", body)
		}
		fmt.Fprint(w, `{"results":[
			{"alternatives":[{"transcript":"I drove ten km "},{"transcript":"worse guess"}]},
			{"alternatives":[{"transcript":"and ate a burger"}]}
		]}`)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "secret", Model: "en-US_Multimedia"})
	transcript, err := client.Recognize(context.Background(), []byte("fake-audio"), "audio/webm")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if transcript != "I drove ten km  and ate a burger" {
		t.Errorf("transcript = %q", transcript)
	}
}

func TestRecognizeNoSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	transcript, err := client.Recognize(context.Background(), []byte("silence"), "audio/webm")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if transcript != "" {
		t.Errorf("transcript = %q, want empty", transcript)
	}
}

func TestRecognizeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad model", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	if _, err := client.Recognize(context.Background(), nil, "audio/webm"); err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}
