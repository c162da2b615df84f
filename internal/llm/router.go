package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkotake/kaede/internal/engine"
)

// Default registry keys.
const (
	KeyLocal          = "lmstudio-active"
	KeyMockRealtime   = "qwen2.5-14b"
	KeyMockReflective = "qwen3.5-35b-a3b"
)

// Modes select the mock tier when the local backend is unavailable.
const (
	ModeRealtime  = "realtime"
	ModeReflexion = "reflexion"
)

const latencyHistoryCap = 200

// Router selects a backend per request: a forced key when one is set,
// otherwise the local backend if its probe passes, otherwise the mock
// tier for the current mode. A failed generation falls back to the
// mock with the error carried in the reply metadata.
type Router struct {
	mu       sync.Mutex
	backends map[string]Backend
	order    []string
	forced   string
	mode     string
	limiter  *rate.Limiter
	latency  []float64
}

// NewRouter builds a router over the given backends, in preference
// order. Nil backends are skipped.
func NewRouter(backends ...Backend) *Router {
	r := &Router{
		backends: map[string]Backend{},
		mode:     ModeRealtime,
		limiter:  rate.NewLimiter(rate.Every(3*time.Second), 5),
	}
	for _, b := range backends {
		if b == nil {
			continue
		}
		r.backends[b.Key()] = b
		r.order = append(r.order, b.Key())
	}
	return r
}

// DefaultRouter wires the standard registry: the local endpoint when
// configured, plus the two mock tiers.
func DefaultRouter(localBaseURL, localModel string) *Router {
	var local Backend
	if c := NewOpenAICompat(KeyLocal, localBaseURL, localModel); c != nil {
		local = c
	}
	return NewRouter(
		local,
		NewMock(KeyMockRealtime, "réponse rapide", 0),
		NewMock(KeyMockReflective, "réflexion posée", 150*time.Millisecond),
	)
}

// pick resolves the backend for one request.
func (r *Router) pick() Backend {
	if r.forced != "" {
		if b, ok := r.backends[r.forced]; ok {
			return b
		}
	}
	if b, ok := r.backends[KeyLocal]; ok && b.Ready() {
		return b
	}
	key := KeyMockRealtime
	if r.mode == ModeReflexion {
		key = KeyMockReflective
	}
	if b, ok := r.backends[key]; ok {
		return b
	}
	for _, k := range r.order {
		return r.backends[k]
	}
	return nil
}

// Ask builds a prompt from the context packet and the user message,
// routes it, and falls back to the mock tier on failure.
func (r *Router) Ask(ctx context.Context, packet engine.ContextPacket, message string) (Reply, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Reply{}, fmt.Errorf("rate limit: %w", err)
	}

	r.mu.Lock()
	primary := r.pick()
	mode := r.mode
	r.mu.Unlock()
	if primary == nil {
		return Reply{}, fmt.Errorf("aucun backend disponible")
	}

	req := Request{
		System:    systemPrompt(packet),
		Prompt:    message,
		MaxTokens: maxTokensFor(mode),
	}

	start := time.Now()
	reply, err := primary.Generate(ctx, req)
	if err != nil {
		slog.Warn("backend failed, falling back", "backend", primary.Key(), "error", err)
		fallbackKey := KeyMockRealtime
		if mode == ModeReflexion {
			fallbackKey = KeyMockReflective
		}
		r.mu.Lock()
		fallback := r.backends[fallbackKey]
		r.mu.Unlock()
		if fallback == nil || fallback.Key() == primary.Key() {
			return Reply{}, err
		}
		reply, err = fallback.Generate(ctx, req)
		if err != nil {
			return Reply{}, err
		}
		if reply.Meta == nil {
			reply.Meta = map[string]string{}
		}
		reply.Meta["error"] = "fallback:" + primary.Key()
	}
	if reply.LatencyMS == 0 {
		reply.LatencyMS = float64(time.Since(start).Microseconds()) / 1000.0
	}

	r.mu.Lock()
	r.latency = append(r.latency, reply.LatencyMS)
	if len(r.latency) > latencyHistoryCap {
		r.latency = r.latency[len(r.latency)-latencyHistoryCap:]
	}
	r.mu.Unlock()
	return reply, nil
}

func systemPrompt(p engine.ContextPacket) string {
	ctxJSON, _ := json.Marshal(p)
	return "Tu es Kaede, une intelligence autonome guidée par son moteur interne. " +
		"Réponds en une ou deux phrases, en cohérence avec cet état: " + string(ctxJSON) +
		" Si tu veux agir sur le moteur, ajoute un bloc ```json``` contenant un tableau de directives."
}

func maxTokensFor(mode string) int {
	if mode == ModeReflexion {
		return 512
	}
	return 192
}

// Status describes the router for the command surface.
type Status struct {
	AutoMode   bool            `json:"auto_mode"`
	Forced     string          `json:"forced,omitempty"`
	Mode       string          `json:"mode"`
	Backends   map[string]bool `json:"backends"` // key -> ready
	LatencyAvg float64         `json:"latency_avg_ms"`
	Samples    int             `json:"latency_samples"`
}

// Snapshot returns the current routing status.
func (r *Router) Snapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	backends := map[string]bool{}
	for k, b := range r.backends {
		backends[k] = b.Ready()
	}
	avg := 0.0
	for _, l := range r.latency {
		avg += l
	}
	if len(r.latency) > 0 {
		avg /= float64(len(r.latency))
	}
	return Status{
		AutoMode:   r.forced == "",
		Forced:     r.forced,
		Mode:       r.mode,
		Backends:   backends,
		LatencyAvg: avg,
		Samples:    len(r.latency),
	}
}

// StatusLine implements engine.ModelControl.
func (r *Router) StatusLine() string {
	s := r.Snapshot()
	out, _ := json.Marshal(s)
	return string(out)
}

// SetAuto clears any forced backend.
func (r *Router) SetAuto() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forced = ""
}

// Use forces a backend by key.
func (r *Router) Use(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.backends[key]; !ok {
		return fmt.Errorf("modèle inconnu %q", key)
	}
	r.forced = key
	return nil
}

// SetMode switches the conversational tier.
func (r *Router) SetMode(mode string) error {
	if mode != ModeRealtime && mode != ModeReflexion {
		return fmt.Errorf("mode inconnu %q", mode)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
	return nil
}

var _ engine.ModelControl = (*Router)(nil)
