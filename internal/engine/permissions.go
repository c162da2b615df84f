package engine

import "log/slog"

// Refusal is one denied capability request. Refusals are always
// recorded, never silently dropped.
type Refusal struct {
	Tick       uint64 `json:"tick"`
	Capability string `json:"capability"`
	Reason     string `json:"reason"`
}

// Permissions is the capability allow-list the engine enforces on
// incoming directives. The catalog actions plus a few internal
// capabilities are allowed; anything touching the outside world is
// refused unconditionally.
type Permissions struct {
	allowed  map[string]bool
	refusals []Refusal
}

// NewPermissions builds the default allow-list.
func NewPermissions() *Permissions {
	allowed := map[string]bool{
		"snapshot": true,
		"journal":  true,
		"idea":     true,
		"state":    true,
	}
	for _, spec := range Catalog {
		allowed[string(spec.Name)] = true
	}
	return &Permissions{allowed: allowed}
}

// sensitive capabilities are denied regardless of the allow-list.
var sensitive = map[string]string{
	"network":    "accès réseau interdit",
	"filesystem": "accès fichiers hors répertoire de données interdit",
	"shell":      "exécution de commandes interdite",
}

// Allowed checks a capability, recording a refusal when denied.
func (p *Permissions) Allowed(tick uint64, capability string) bool {
	if reason, bad := sensitive[capability]; bad {
		p.refuse(tick, capability, reason)
		return false
	}
	if !p.allowed[capability] {
		p.refuse(tick, capability, "capacité hors liste autorisée")
		return false
	}
	return true
}

func (p *Permissions) refuse(tick uint64, capability, reason string) {
	r := Refusal{Tick: tick, Capability: capability, Reason: reason}
	p.refusals = append(p.refusals, r)
	slog.Warn("capability refused", "capability", capability, "reason", reason, "tick", tick)
}

// Refusals returns a copy of the refusal record.
func (p *Permissions) Refusals() []Refusal {
	out := make([]Refusal, len(p.refusals))
	copy(out, p.refusals)
	return out
}
