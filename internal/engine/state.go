package engine

// InternalState is the agent's bounded self-model. Every field lives in
// [0,1]. Mutation sites write freely and then call Clamp, the single
// point where bounds are enforced.
type InternalState struct {
	Energy        float64 `json:"energy"`
	Clarity       float64 `json:"clarity"`
	Stability     float64 `json:"stability"`
	Curiosity     float64 `json:"curiosity"`
	RiskTolerance float64 `json:"risk_tolerance"`
	Fatigue       float64 `json:"fatigue"`
	Stress        float64 `json:"stress"`
}

// DefaultInternalState returns the starting self-model.
func DefaultInternalState() InternalState {
	return InternalState{
		Energy:        0.70,
		Clarity:       0.65,
		Stability:     0.70,
		Curiosity:     0.60,
		RiskTolerance: 0.45,
		Fatigue:       0.25,
		Stress:        0.25,
	}
}

// Clamp forces every field back into [0,1] and reports how many fields
// were out of bounds. A non-zero count after a normal transition is a
// defect; callers log it and continue with the clamped values.
func (s *InternalState) Clamp() int {
	violations := 0
	for _, f := range []*float64{
		&s.Energy, &s.Clarity, &s.Stability, &s.Curiosity,
		&s.RiskTolerance, &s.Fatigue, &s.Stress,
	} {
		c := clamp01(*f)
		if c != *f {
			violations++
			*f = c
		}
	}
	return violations
}

// PassiveRecover applies the per-tick drift toward rest baselines.
// Night phases recover faster; a matching host-clock night adds a
// small bonus on top.
func (s *InternalState) PassiveRecover(phase, pcPhase DayPhase) {
	e, c, f, st := 0.012, 0.008, -0.010, -0.006
	if phase == PhaseNight {
		e, c, f, st = 0.030, 0.020, -0.025, -0.012
	}
	if pcPhase == PhaseNight {
		e, c, f, st = e*1.10, c*1.10, f*1.10, st*1.10
	}
	s.Energy += e
	s.Clarity += c
	s.Fatigue += f
	s.Stress += st
	s.Clamp()
}

// WorldState is the bounded simulated environment. It drifts once per
// tick on its own and is further perturbed by executed actions.
type WorldState struct {
	Instability     float64 `json:"instability"`
	Opportunity     float64 `json:"opportunity"`
	Danger          float64 `json:"danger"`
	Novelty         float64 `json:"novelty"`
	GlobalStability float64 `json:"global_stability"`
}

// DefaultWorldState returns the starting environment.
func DefaultWorldState() WorldState {
	return WorldState{
		Instability:     0.35,
		Opportunity:     0.55,
		Danger:          0.30,
		Novelty:         0.70,
		GlobalStability: 0.60,
	}
}

// Clamp forces every field back into [0,1]; see InternalState.Clamp.
func (w *WorldState) Clamp() int {
	violations := 0
	for _, f := range []*float64{
		&w.Instability, &w.Opportunity, &w.Danger, &w.Novelty, &w.GlobalStability,
	} {
		c := clamp01(*f)
		if c != *f {
			violations++
			*f = c
		}
	}
	return violations
}
