package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mock is a deterministic offline backend. Two profiles ship by
// default: a fast conversational tier and a slower reflective tier.
// It always answers, which makes it the fallback of last resort.
type Mock struct {
	key     string
	persona string
	delay   time.Duration
}

// NewMock creates a mock backend.
func NewMock(key, persona string, delay time.Duration) *Mock {
	return &Mock{key: key, persona: persona, delay: delay}
}

// Key identifies the backend in the registry.
func (m *Mock) Key() string { return m.key }

// Ready always holds for the mock.
func (m *Mock) Ready() bool { return true }

// Generate composes a canned reply echoing the prompt's gist.
func (m *Mock) Generate(ctx context.Context, req Request) (Reply, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		}
	}

	gist := req.Prompt
	if i := strings.IndexByte(gist, '\n'); i >= 0 {
		gist = gist[:i]
	}
	if len(gist) > 80 {
		gist = gist[:80] + "…"
	}
	text := fmt.Sprintf("[%s] Je prends en compte: %q. Je reste concentrée sur mon état interne.", m.persona, gist)
	return Reply{Text: text, Model: m.key}, nil
}
