package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// OpenAICompat talks to a local OpenAI-compatible server (LM Studio
// style). Readiness is probed against /v1/models and cached briefly so
// a stopped server is rediscovered without hammering it.
type OpenAICompat struct {
	key        string
	baseURL    string
	model      string
	httpClient *http.Client

	mu       sync.Mutex
	ready    bool
	probedAt time.Time
	probeTTL time.Duration
}

// NewOpenAICompat creates a backend for a local endpoint. Returns nil
// when baseURL is empty (backend disabled).
func NewOpenAICompat(key, baseURL, model string) *OpenAICompat {
	if baseURL == "" {
		return nil
	}
	return &OpenAICompat{
		key:        key,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		probeTTL:   15 * time.Second,
	}
}

// Key identifies the backend in the registry.
func (c *OpenAICompat) Key() string { return c.key }

// Ready probes the endpoint, caching the result for the probe TTL.
// A backend that went away comes back automatically on the next probe.
func (c *OpenAICompat) Ready() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.probedAt) < c.probeTTL {
		return c.ready
	}
	c.probedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		c.ready = false
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.ready = false
		return false
	}
	resp.Body.Close()
	c.ready = resp.StatusCode == http.StatusOK
	return c.ready
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
}

// Generate sends a chat completion request.
func (c *OpenAICompat) Generate(ctx context.Context, req Request) (Reply, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		MaxTokens: req.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Reply{}, fmt.Errorf("backend call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Reply{}, fmt.Errorf("backend error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Reply{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Reply{}, fmt.Errorf("empty response")
	}

	model := parsed.Model
	if model == "" {
		model = c.model
	}
	return Reply{
		Text:      parsed.Choices[0].Message.Content,
		Model:     model,
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000.0,
	}, nil
}
