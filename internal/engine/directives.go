package engine

import "fmt"

// Directive is one structured instruction as returned by the inference
// backend. Only validated directives are applied; the schema is the
// guardrail, the backend is never trusted.
type Directive struct {
	Op       string  `json:"op"`                 // adjust_state | add_idea | suggest_action | set_goal
	Field    string  `json:"field,omitempty"`    // adjust_state target
	Delta    float64 `json:"delta,omitempty"`    // adjust_state amount, |delta| <= 0.10
	Title    string  `json:"title,omitempty"`    // add_idea
	Priority float64 `json:"priority,omitempty"` // add_idea
	Action   string  `json:"action,omitempty"`   // suggest_action
	Goal     string  `json:"goal,omitempty"`     // set_goal
}

// DirectiveResult reports the fate of one directive. Rejections carry
// a reason and never abort the batch.
type DirectiveResult struct {
	Index   int    `json:"index"`
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

const maxStateDelta = 0.10

var adjustableFields = map[string]bool{
	"energy": true, "clarity": true, "stability": true, "curiosity": true,
	"risk_tolerance": true, "fatigue": true, "stress": true,
}

var settableGoals = map[Goal]bool{
	GoalRecover: true, GoalStabilize: true, GoalExplore: true, GoalProgress: true,
}

// ApplyDirectives validates and applies a batch of directives, one
// result per input in order. Invalid or unpermitted entries are
// rejected individually; permission refusals also land in the refusal
// record.
func (b *Brain) ApplyDirectives(directives []Directive) []DirectiveResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	results := make([]DirectiveResult, 0, len(directives))
	for i, d := range directives {
		res := DirectiveResult{Index: i}
		if reason := b.applyDirective(d); reason != "" {
			res.Reason = reason
		} else {
			res.Applied = true
		}
		results = append(results, res)
	}
	return results
}

// applyDirective returns an empty string on success, else the
// rejection reason.
func (b *Brain) applyDirective(d Directive) string {
	switch d.Op {
	case "adjust_state":
		if !adjustableFields[d.Field] {
			return fmt.Sprintf("champ inconnu %q", d.Field)
		}
		if d.Delta > maxStateDelta || d.Delta < -maxStateDelta {
			return fmt.Sprintf("delta %.3f hors borne ±%.2f", d.Delta, maxStateDelta)
		}
		if !b.allowed("state") {
			return ErrPermissionDenied.Error()
		}
		b.adjustField(d.Field, d.Delta)
		return ""
	case "add_idea":
		if d.Title == "" {
			return "titre vide"
		}
		if d.Priority < 0 || d.Priority > 1 {
			return fmt.Sprintf("priorité %.3f hors [0,1]", d.Priority)
		}
		if !b.allowed("idea") {
			return ErrPermissionDenied.Error()
		}
		b.addIdea(d.Title, "directive", d.Priority)
		return ""
	case "suggest_action":
		if !ValidAction(d.Action) {
			return fmt.Sprintf("action inconnue %q", d.Action)
		}
		if !b.allowed(d.Action) {
			return ErrPermissionDenied.Error()
		}
		// A suggestion is advisory: it enters the backlog and biases
		// future scoring, it never forces the next selection.
		b.addIdea("suggestion: "+d.Action, "directive", 0.5)
		return ""
	case "set_goal":
		goal := Goal(d.Goal)
		if !settableGoals[goal] {
			return fmt.Sprintf("objectif inconnu %q", d.Goal)
		}
		if !b.allowed("state") {
			return ErrPermissionDenied.Error()
		}
		b.intention = Intention{Goal: goal, TTL: 10, Priority: 0.8, Since: b.clock.Tick}
		return ""
	default:
		// Anything outside the schema is treated as a capability
		// request and refused through the permission layer.
		b.allowed(d.Op)
		return fmt.Sprintf("opération inconnue %q", d.Op)
	}
}

func (b *Brain) adjustField(field string, delta float64) {
	switch field {
	case "energy":
		b.state.Energy += delta
	case "clarity":
		b.state.Clarity += delta
	case "stability":
		b.state.Stability += delta
	case "curiosity":
		b.state.Curiosity += delta
	case "risk_tolerance":
		b.state.RiskTolerance += delta
	case "fatigue":
		b.state.Fatigue += delta
	case "stress":
		b.state.Stress += delta
	}
	b.clampState()
}

// Refusals exposes the permission refusal record.
func (b *Brain) Refusals() []Refusal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.perms.Refusals()
}

// allowed checks one capability, forwarding any fresh refusal to the
// recorder. Callers hold the mutex.
func (b *Brain) allowed(capability string) bool {
	if b.perms.Allowed(b.clock.Tick, capability) {
		return true
	}
	if b.rec != nil {
		refusals := b.perms.refusals
		b.rec.RecordRefusal(refusals[len(refusals)-1])
	}
	return false
}

// PermissionAllowed checks one capability against the allow-list,
// recording a refusal when denied.
func (b *Brain) PermissionAllowed(capability string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allowed(capability)
}
