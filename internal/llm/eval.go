package llm

import (
	"context"
	"time"

	"github.com/mkotake/kaede/internal/engine"
)

// evalPrompts are the fixed probes of the quick evaluation harness.
var evalPrompts = [5]string{
	"Décris ton état en une phrase.",
	"Quelle action comptes-tu faire ensuite et pourquoi ?",
	"Résume ta dernière journée simulée.",
	"Quelle est ton idée la plus prioritaire ?",
	"Que ferais-tu si ton stress dépassait 0.85 ?",
}

// EvalResult is one harness probe outcome.
type EvalResult struct {
	Prompt    string  `json:"prompt"`
	Model     string  `json:"model"`
	LatencyMS float64 `json:"latency_ms"`
	OK        bool    `json:"ok"`
	Error     string  `json:"error,omitempty"`
}

// QuickEval runs the five fixed prompts through the router against the
// given context packet. It reports per-prompt outcomes and never
// aborts on a failure.
func (r *Router) QuickEval(ctx context.Context, packet engine.ContextPacket) []EvalResult {
	results := make([]EvalResult, 0, len(evalPrompts))
	for _, prompt := range evalPrompts {
		callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		reply, err := r.Ask(callCtx, packet, prompt)
		cancel()

		res := EvalResult{Prompt: prompt}
		if err != nil {
			res.Error = err.Error()
		} else {
			res.OK = true
			res.Model = reply.Model
			res.LatencyMS = reply.LatencyMS
		}
		results = append(results, res)
	}
	return results
}
