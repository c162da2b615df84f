package engine

import "sort"

const (
	consolidationEvery  = 48 // ticks between consolidation passes
	consolidationWindow = 80 // executed actions examined per pass
)

// consolidate runs the periodic maintenance pass: meta-learning nudges
// from dominant and avoided actions, marked-memory pruning, nothing
// else. Routine counters accrue per tick, not here.
func (b *Brain) consolidate() {
	if b.clock.Tick%consolidationEvery != 0 {
		return
	}
	window := b.window
	if len(window) > consolidationWindow {
		window = window[len(window)-consolidationWindow:]
	}
	if len(window) == 0 {
		return
	}

	counts := map[Action]int{}
	for _, spec := range Catalog {
		counts[spec.Name] = 0
	}
	for _, a := range window {
		counts[a]++
	}
	dominant, avoided := Catalog[0].Name, Catalog[0].Name
	for _, spec := range Catalog {
		if counts[spec.Name] > counts[dominant] {
			dominant = spec.Name
		}
		if counts[spec.Name] < counts[avoided] {
			avoided = spec.Name
		}
	}

	if dominant == ActionExplore || dominant == ActionChallenge {
		b.state.RiskTolerance += 0.015
		b.state.Curiosity += 0.010
	}
	if dominant == ActionOrganize || dominant == ActionReflect || dominant == ActionRest {
		b.state.Stability += 0.012
		b.state.RiskTolerance -= 0.006
	}
	if avoided == ActionExplore || avoided == ActionChallenge {
		b.state.Curiosity -= 0.008
	}
	b.clampState()

	b.pruneMarked()
}

// pruneMarked drops memories below the severity floor, then trims to
// capacity oldest-first among the least severe.
func (b *Brain) pruneMarked() {
	kept := b.marked[:0]
	for _, m := range b.marked {
		if m.Severity >= markedFloor {
			kept = append(kept, m)
		}
	}
	b.marked = kept
	if len(b.marked) <= markedCap {
		return
	}
	sort.SliceStable(b.marked, func(i, j int) bool {
		if b.marked[i].Severity != b.marked[j].Severity {
			return b.marked[i].Severity < b.marked[j].Severity
		}
		return b.marked[i].Tick < b.marked[j].Tick
	})
	b.marked = b.marked[len(b.marked)-markedCap:]
	sort.SliceStable(b.marked, func(i, j int) bool { return b.marked[i].Tick < b.marked[j].Tick })
}

// updateRoutines counts the (action, phase) pairing for the emergent
// routine bonus.
func (b *Brain) updateRoutines(action Action) {
	phase := b.clock.SimDayPhase()
	if b.routines[action] == nil {
		b.routines[action] = map[DayPhase]int{}
	}
	b.routines[action][phase]++
}

// routineBonus rewards habits: actions repeated in the same day phase
// gain up to +0.10.
func (b *Brain) routineBonus(action Action) float64 {
	count := b.routines[action][b.clock.SimDayPhase()]
	return min(0.10, 0.01*float64(count))
}
