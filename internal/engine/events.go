package engine

// EventType names a rare-event category.
type EventType string

const (
	EventNearFailure  EventType = "near_failure"
	EventStressSpike  EventType = "stress_spike"
	EventDiscovery    EventType = "discovery"
	EventSuccessMajor EventType = "success_major"
	EventOpportunity  EventType = "opportunity_exceptional"
)

// Positive reports whether the event type attracts rather than repels.
func (t EventType) Positive() bool {
	switch t {
	case EventDiscovery, EventSuccessMajor, EventOpportunity:
		return true
	}
	return false
}

// EventRates holds the per-type base probabilities. Tunable; the
// defaults are calibration, not contract.
type EventRates struct {
	NearFailure  float64 `yaml:"near_failure" json:"near_failure"`
	StressSpike  float64 `yaml:"stress_spike" json:"stress_spike"`
	Discovery    float64 `yaml:"discovery" json:"discovery"`
	SuccessMajor float64 `yaml:"success_major" json:"success_major"`
	Opportunity  float64 `yaml:"opportunity_exceptional" json:"opportunity_exceptional"`
}

// DefaultEventRates returns the calibrated base rates.
func DefaultEventRates() EventRates {
	return EventRates{
		NearFailure:  0.010,
		StressSpike:  0.012,
		Discovery:    0.015,
		SuccessMajor: 0.008,
		Opportunity:  0.006,
	}
}

// rollRareEvent draws each event type independently, in a fixed
// priority order; the first hit wins and at most one event fires per
// tick. Instability raises every probability; danger scales the
// threats, opportunity the windfalls. Runs before gating, so the
// marked memory points at the previous tick's action.
func (b *Brain) rollRareEvent() EventType {
	w := b.world
	checks := []struct {
		t EventType
		p float64
	}{
		{EventNearFailure, b.rates.NearFailure * (1 + w.Instability*1.5 + w.Danger)},
		{EventStressSpike, b.rates.StressSpike * (1 + w.Instability*1.5 + w.Danger*0.5)},
		{EventDiscovery, b.rates.Discovery * (1 + w.Instability + w.Opportunity*0.5)},
		{EventSuccessMajor, b.rates.SuccessMajor * (1 + w.Instability*0.5 + w.Opportunity)},
		{EventOpportunity, b.rates.Opportunity * (1 + w.Instability*0.5 + w.Opportunity*1.5)},
	}

	for _, c := range checks {
		if b.rng.Float64() >= c.p {
			continue
		}
		b.fireRareEvent(c.t)
		return c.t
	}
	return ""
}

// fireRareEvent applies the event's immediate perturbation, records a
// marked memory and possibly seeds an idea.
func (b *Brain) fireRareEvent(t EventType) {
	severity := 0.45 + b.rng.Float64()*0.55

	switch t {
	case EventDiscovery:
		b.state.Curiosity += 0.12 * severity
		b.state.Stability += 0.04 * severity
	case EventNearFailure:
		b.state.Stress += 0.14 * severity
		b.state.Stability -= 0.07 * severity
	case EventSuccessMajor:
		b.state.Stress -= 0.08 * severity
		b.state.RiskTolerance += 0.05 * severity
		b.state.Stability += 0.06 * severity
	case EventStressSpike:
		b.state.Stress += 0.18 * severity
		b.state.Clarity -= 0.06 * severity
	case EventOpportunity:
		b.state.Curiosity += 0.10 * severity
		b.world.Opportunity += 0.12 * severity
	}

	// Lasting nudge on the risk/curiosity profile.
	if t.Positive() {
		b.state.RiskTolerance += 0.02 * severity
		b.state.Curiosity += 0.01 * severity
	} else {
		b.state.RiskTolerance -= 0.03 * severity
		b.state.Curiosity -= 0.005 * severity
	}
	b.clampState()
	b.clampWorld()

	b.marked = append(b.marked, MarkedMemory{
		Type:     t,
		Severity: severity,
		Action:   b.lastAction,
		Tick:     b.clock.Tick,
		State:    b.state,
	})

	switch {
	case t == EventDiscovery:
		b.addIdea("creuser la découverte", string(t), severity)
	case t == EventNearFailure && severity > 0.7:
		b.addIdea("éviter ce piège", string(t), severity*0.8)
	case t == EventOpportunity && severity > 0.5:
		b.addIdea("saisir l'opportunité", string(t), severity*0.9)
	}
}
