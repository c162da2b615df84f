// Package llm provides the pluggable inference-backend layer: a
// registry of local backends, a router with automatic fallback, and
// directive extraction from model output.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mkotake/kaede/internal/engine"
)

// Request is one completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Reply is one completion result with routing metadata.
type Reply struct {
	Text      string            `json:"text"`
	Model     string            `json:"model"`
	LatencyMS float64           `json:"latency_ms"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Backend is one text-generation engine the router can select.
type Backend interface {
	Key() string
	Ready() bool
	Generate(ctx context.Context, req Request) (Reply, error)
}

// ExtractDirectives pulls structured directives out of model output.
// The convention is a fenced json block holding a directive array;
// replies without one simply carry no directives. Extraction never
// fails the reply: malformed blocks yield nil.
func ExtractDirectives(text string) []engine.Directive {
	start := strings.Index(text, "```json")
	if start < 0 {
		return nil
	}
	rest := text[start+len("```json"):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return nil
	}
	var directives []engine.Directive
	if err := json.Unmarshal([]byte(strings.TrimSpace(rest[:end])), &directives); err != nil {
		return nil
	}
	return directives
}
