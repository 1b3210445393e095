package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extraction prompt for the language-model oracle. The model is asked for a
// single JSON object; anything else is treated as no result.
const oraclePrompt = `You are a Carbon Footprint Extractor. Extract 'activity_type', 'key', 'quantity', and 'unit' from the user's sentence.
- activity_type: "TRANSPORT", "FOOD", or "ENERGY".
- key: specific item, e.g. "car", "beef", "burger", "electricity".
- quantity: the numeric amount.
- unit: "km", "mile", "serving", "kg", "kWh".
If no unit is mentioned for food, assume "serving".
If no vehicle is mentioned for transport, assume "car".

Input: "I took a 25 mile cab ride"
Output: { "activity_type": "TRANSPORT", "key": "car", "quantity": 25, "unit": "mile" }

Input: "I ate 2 burgers"
Output: { "activity_type": "FOOD", "key": "beef", "quantity": 2, "unit": "serving" }

Input: "I used 50 kWh of electricity"
Output: { "activity_type": "ENERGY", "key": "electricity", "quantity": 50, "unit": "kWh" }

Respond with ONLY a single, valid JSON object.`

// OracleResult is the oracle's partial guess for one sentence. Every field is
// optional; the orchestrator validates before trusting any of them.
type OracleResult struct {
	ActivityType *string    `json:"activity_type"`
	Key          *string    `json:"key"`
	Quantity     *FlexFloat `json:"quantity"`
	Unit         *string    `json:"unit"`
}

// FlexFloat tolerates quantities encoded as JSON numbers or numeric strings.
// Anything unparseable ("a couple", null) decodes as zero rather than
// erroring, so a usable category and key survive a garbled quantity; the
// orchestrator re-parses non-positive quantities from the sentence text.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(strings.TrimSpace(string(data)), `"`)
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(value)
	return nil
}

// Oracle produces a partial structured guess for one sentence. A nil result
// or an error both mean "use the fallback classifier".
type Oracle interface {
	Analyze(ctx context.Context, sentence, username string) (*OracleResult, error)
}

// OracleConfig holds connection parameters for the remote language model.
type OracleConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// LLMOracle calls an OpenAI-compatible chat completion endpoint.
type LLMOracle struct {
	config OracleConfig
	http   *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// NewLLMOracle creates an oracle client. The timeout bounds the whole call;
// expiry is reported as an ordinary error and absorbed by the caller.
func NewLLMOracle(config OracleConfig) *LLMOracle {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &LLMOracle{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
	}
}

// Analyze sends one sentence to the model and parses its JSON reply.
func (o *LLMOracle) Analyze(ctx context.Context, sentence, username string) (*OracleResult, error) {
	req := chatRequest{
		Model: o.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: oraclePrompt},
			{Role: "user", Content: fmt.Sprintf("Input: %q\nOutput:", sentence)},
		},
		Temperature: 0.1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	}

	resp, err := o.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle HTTP %d: %s", resp.StatusCode, payload)
	}

	var chat chatResponse
	if err := json.Unmarshal(payload, &chat); err != nil {
		return nil, fmt.Errorf("parsing response JSON: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("no choices in oracle response")
	}

	return parseOracleContent(chat.Choices[0].Message.Content)
}

// parseOracleContent extracts the JSON object from free-form model output,
// stripping markdown fences first.
func parseOracleContent(content string) (*OracleResult, error) {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")

	match := jsonObjectPattern.FindString(content)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in oracle output")
	}

	var result OracleResult
	if err := json.Unmarshal([]byte(match), &result); err != nil {
		return nil, fmt.Errorf("invalid oracle JSON: %w", err)
	}
	return &result, nil
}
