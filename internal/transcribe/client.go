// Package transcribe wraps the external speech-to-text service. The service
// is a black box: audio bytes in, transcript out, empty string on any miss.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds connection parameters for the speech-to-text service.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client calls a Watson-style speech recognition endpoint.
type Client struct {
	config Config
	http   *http.Client
}

// recognizeResponse mirrors the STT service's result envelope.
type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// NewClient creates a Client. The timeout bounds the whole recognition call
// so a slow transcriber cannot hang a request indefinitely.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
	}
}

// Recognize transcribes an audio blob. The returned transcript is the joined
// text of the best alternative per result segment; no speech yields "".
func (c *Client) Recognize(ctx context.Context, audio []byte, contentType string) (string, error) {
	endpoint := strings.TrimRight(c.config.Endpoint, "/") + "/v1/recognize"
	if c.config.Model != "" {
		endpoint += "?model=" + url.QueryEscape(c.config.Model)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.config.APIKey != "" {
		req.SetBasicAuth("apikey", c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcriber HTTP %d: %s", resp.StatusCode, body)
	}

	var decoded recognizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	parts := make([]string, 0, len(decoded.Results))
	for _, result := range decoded.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}
