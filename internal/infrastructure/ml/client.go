package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// Client talks to a hosted transformer service for summarization and zero-shot classification.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var (
	_ ports.SummarizationDelegate = (*Client)(nil)
	_ ports.BiasDelegate          = (*Client)(nil)
)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether an inference endpoint is set.
func (c *Client) Configured() bool {
	return c != nil && c.endpoint != ""
}

// Summarize requests an abstractive summary bounded by maxLen/minLen tokens.
func (c *Client) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	payload := map[string]any{
		"text":       text,
		"max_length": maxLen,
		"min_length": minLen,
		"do_sample":  false,
	}

	var resp struct {
		Summary string `json:"summary"`
	}
	if err := c.post(ctx, "/summarize", payload, &resp); err != nil {
		return "", err
	}

	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		return "", fmt.Errorf("inference service returned an empty summary: %w", domain.ErrMalformedResponse)
	}
	return summary, nil
}

// Classify runs zero-shot classification and returns the highest scoring label.
func (c *Client) Classify(ctx context.Context, text string, labels []string) (string, error) {
	payload := map[string]any{
		"text":             text,
		"candidate_labels": labels,
	}

	var resp struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := c.post(ctx, "/classify", payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Labels) == 0 {
		return "", fmt.Errorf("inference service returned no labels: %w", domain.ErrMalformedResponse)
	}

	best := 0
	for i := range resp.Labels {
		if i < len(resp.Scores) && resp.Scores[i] > resp.Scores[best] {
			best = i
		}
	}
	return resp.Labels[best], nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	if !c.Configured() {
		return errors.New("inference endpoint is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
