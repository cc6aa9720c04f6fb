package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reliefwatch/internal/config"
)

// HTTPClassifier calls an external analysis service over HTTP. The
// service accepts {"text": ...} and replies with a Classification
// document.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier creates a classifier backed by a remote analysis
// service.
func NewHTTPClassifier(cfg *config.ClassifierConfig) *HTTPClassifier {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClassifier{
		url: cfg.URL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

// Classify posts the text to the analysis service.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (*Classification, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier response: %w", err)
	}

	var result Classification
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	// A relevant judgment with no type or severity means the upstream
	// contract was not honored; surface it instead of guessing.
	if result.Relevant && (result.Type == "" || result.Severity == "") {
		return nil, fmt.Errorf("%w: relevant result missing type or severity", ErrMalformedResponse)
	}
	if result.Type != "" && !result.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown crisis type %q", ErrMalformedResponse, result.Type)
	}
	if result.Severity != "" && !result.Severity.IsValid() {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrMalformedResponse, result.Severity)
	}

	return &result, nil
}
