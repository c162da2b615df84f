package engine

// Gating thresholds and the anti-loop window.
const (
	energyFloor     = 0.20
	stressCeiling   = 0.85
	stabilityFloor  = 0.30
	antiLoopWindow  = 30
	repetitionPenal = 0.12 // per occurrence of the action in the window
	cooldownPenal   = 0.50 // flat penalty while the cooldown is live
)

// exclusionUntil resolves avoidance against the per-action cooldown.
// When both are in the future the longer one wins (override, no
// stacking); a cooldown alone never excludes, it only penalizes.
func (b *Brain) exclusionUntil(action Action) uint64 {
	until := b.longTermFor(action).AvoidUntil
	if until > b.clock.Tick && b.cooldownUntil[action] > until {
		until = b.cooldownUntil[action]
	}
	return until
}

// gate filters the catalog down to this tick's eligible actions.
// Order matters: avoidance first, then the energy floor, then the
// combined stress/stability guard. Never returns an empty set — rest
// is force-included as the fallback.
func (b *Brain) gate() []Action {
	var eligible []Action
	for _, spec := range Catalog {
		if b.exclusionUntil(spec.Name) > b.clock.Tick {
			continue
		}
		if b.state.Energy < energyFloor && spec.EnergyCost > 0 {
			continue
		}
		if b.state.Stress > stressCeiling && b.state.Stability < stabilityFloor {
			if spec.Name == ActionExplore || spec.Name == ActionChallenge {
				continue
			}
		}
		eligible = append(eligible, spec.Name)
	}
	if len(eligible) == 0 {
		eligible = []Action{ActionRest}
	}
	return eligible
}

// repetitionCount counts occurrences of the action in the anti-loop
// window (last 30 executed ticks).
func (b *Brain) repetitionCount(action Action) int {
	n := 0
	for _, a := range b.window {
		if a == action {
			n++
		}
	}
	return n
}

// score computes the scalar utility of one eligible action. Each term
// is independent: expected reward/cost through the skill lens, fit to
// the active intention, long-term memory feedback, a diversity term
// against repetition, risk weighted by tolerance, marked-memory bias,
// routine bonus and a small jitter for tie-breaking.
func (b *Brain) score(action Action) float64 {
	spec, _ := SpecFor(action)
	lt := b.longTermFor(action)
	skill := b.skillFor(action)

	reward := (spec.KnowledgeGain+spec.StabilityGain)*skill.RewardMult() + 0.03*b.world.Opportunity
	cost := spec.EnergyCost*skill.EnergyMult() + spec.ClarityCost + spec.FatigueGain*0.6
	score := reward - cost

	score += b.intention.Fit(action)

	score += 0.60 * lt.EMAReward
	score -= 0.60 * lt.EMACost
	score -= 0.80 * float64(lt.FailStreak)
	score += 0.25 * float64(lt.SuccessStreak)

	gap := min(1.0, float64(b.clock.Tick-b.lastActionTick[action])/50.0)
	score += 0.20 * gap

	score -= repetitionPenal * float64(b.repetitionCount(action))
	if b.cooldownUntil[action] > b.clock.Tick {
		score -= cooldownPenal
	}

	risk := spec.BaseRisk*skill.RiskMult() + b.state.Stress*0.25 - b.state.Stability*0.15 + b.world.Danger*0.15
	score -= (1.0 - b.state.RiskTolerance) * 0.60 * risk

	if action == ActionExplore {
		if b.state.Stability < stabilityFloor {
			score -= 0.20
		}
		if b.state.Stress > stressCeiling {
			score -= 0.30
		}
	}

	score += b.routineBonus(action)
	score += b.memoryBias(action)
	score += b.rng.Float64()*0.10 - 0.05
	return score
}

// choose ranks the eligible set and returns the winner plus the full
// score table for the debug journal. Ties break by catalog order.
func (b *Brain) choose(eligible []Action) (Action, map[Action]float64) {
	scores := make(map[Action]float64, len(eligible))
	for _, a := range eligible {
		scores[a] = b.score(a)
	}
	best := eligible[0]
	for _, spec := range Catalog {
		s, ok := scores[spec.Name]
		if !ok {
			continue
		}
		if s > scores[best] {
			best = spec.Name
		}
	}
	return best, scores
}
