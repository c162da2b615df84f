package engine

// Per-action cooldown assigned after execution. Only the heavy
// actions carry one; the rest rely on the repetition penalty.
var actionCooldown = map[Action]uint64{
	ActionExplore:   3,
	ActionChallenge: 4,
}

// execResult carries the observable outcome of one execution.
type execResult struct {
	Success       bool
	EffectiveRisk float64
	Reward        float64
	Cost          float64
}

// execute resolves the chosen action against the world: a success roll
// under the effective risk, then the state deltas. Costs land whatever
// the outcome; gains are scaled down on failure.
func (b *Brain) execute(action Action) execResult {
	spec, _ := SpecFor(action)
	skill := b.skillFor(action)

	risk := spec.BaseRisk*skill.RiskMult() +
		b.state.Stress*0.20 -
		b.state.Stability*0.10 +
		b.world.Danger*0.20 +
		b.world.Instability*0.10
	risk = clampRange(risk, 0.02, 0.95) // no certainties either way
	success := b.rng.Float64() > risk

	b.state.Energy -= spec.EnergyCost * skill.EnergyMult()
	b.state.Clarity -= spec.ClarityCost
	b.state.Fatigue += spec.FatigueGain
	b.state.Curiosity += spec.KnowledgeGain*0.05 + b.world.Novelty*0.02

	reward := (spec.KnowledgeGain + spec.StabilityGain) * skill.RewardMult()
	if success {
		b.state.Stability += spec.StabilityGain
		b.state.Stress -= 0.02 + skill.StressRelief()
	} else {
		b.state.Stability += spec.StabilityGain * 0.4
		b.state.Stress += spec.StressOnFail + b.world.Danger*0.05
		reward *= 0.25
	}
	cost := spec.EnergyCost*skill.EnergyMult() + spec.ClarityCost + spec.FatigueGain*0.6
	b.clampState()

	b.applyWorldEffect(action, success)

	return execResult{Success: success, EffectiveRisk: risk, Reward: reward, Cost: cost}
}

// applyWorldEffect perturbs the environment with the action's declared
// world effects. Failures still leave half the footprint; destabilizing
// side effects grow when the action fails.
func (b *Brain) applyWorldEffect(action Action, success bool) {
	gain := 0.5
	if success {
		gain = 1.0
	}
	w := &b.world
	switch action {
	case ActionOrganize:
		w.GlobalStability += 0.030 * gain
		w.Instability -= 0.025 * gain
		w.Danger -= 0.010 * gain
	case ActionExplore:
		w.Novelty += 0.060 * gain
		w.Opportunity += 0.030 * gain
		w.Instability += 0.015 * (2 - gain)
	case ActionChallenge:
		w.Opportunity += 0.045 * gain
		w.Danger += 0.030 * (2 - gain)
	case ActionReflect:
		w.GlobalStability += 0.018 * gain
		w.Instability -= 0.012 * gain
	case ActionIdle:
		w.Novelty -= 0.010
	}
	b.clampWorld()
}

// driftWorld evolves the environment once per tick, independently of
// the chosen action. The smooth noise channel keeps instability
// coherent across neighboring ticks instead of a pure random walk.
func (b *Brain) driftWorld() {
	w := &b.world
	w.Instability += b.noise.Sample(b.clock.Tick, 0)*0.015 + b.uniform(0.01)
	w.Danger += 0.25*w.Instability*0.01 + b.uniform(0.008)
	w.Opportunity += b.uniform(0.01) + (0.5-w.Danger)*0.005
	w.Novelty -= 0.004
	w.GlobalStability += (0.5-w.Instability)*0.01 + b.uniform(0.006)
	b.clampWorld()
}

// uniform returns a draw in [-amp, amp].
func (b *Brain) uniform(amp float64) float64 {
	return b.rng.Float64()*2*amp - amp
}
