package engine

import (
	"sort"

	"github.com/google/uuid"
)

// Goal names a behavioral objective an Intention can pursue.
type Goal string

const (
	GoalNone       Goal = ""
	GoalRecover    Goal = "recover"
	GoalStabilize  Goal = "stabilize"
	GoalExplore    Goal = "explore"
	GoalProgress   Goal = "progress"
	GoalPursueIdea Goal = "pursue_idea"
)

// Intention is the single active multi-tick directive. Exactly one is
// live at a time; it is replaced, never mutated, once it expires or a
// cancel condition fires.
type Intention struct {
	Goal      Goal    `json:"goal"`
	TTL       int     `json:"ttl_remaining"`
	Priority  float64 `json:"priority"`
	IdeaTitle string  `json:"idea_title,omitempty"`
	Since     uint64  `json:"since_tick"`
}

// Active reports whether an intention is live.
func (i Intention) Active() bool { return i.Goal != GoalNone }

// affinity maps each goal to its per-action fit.
var goalAffinity = map[Goal]map[Action]float64{
	GoalRecover:    {ActionRest: 1.0, ActionIdle: 0.5, ActionReflect: 0.3},
	GoalStabilize:  {ActionOrganize: 1.0, ActionReflect: 0.6, ActionRest: 0.4},
	GoalExplore:    {ActionExplore: 1.0, ActionChallenge: 0.3},
	GoalProgress:   {ActionPractice: 1.0, ActionReflect: 0.4, ActionOrganize: 0.2},
	GoalPursueIdea: {ActionExplore: 0.8, ActionPractice: 0.6, ActionChallenge: 0.4},
}

// Fit returns the intention's affinity for an action, weighted by its
// priority.
func (i Intention) Fit(action Action) float64 {
	if !i.Active() {
		return 0
	}
	return i.Priority * goalAffinity[i.Goal][action]
}

// cancelled evaluates the goal's cancel conditions against current
// state. Checked before scoring each tick.
func (i Intention) cancelled(s InternalState) bool {
	switch i.Goal {
	case GoalRecover:
		return s.Energy >= 0.60 && s.Fatigue <= 0.45
	case GoalStabilize:
		return s.Stability >= 0.60 && s.Stress <= 0.50
	case GoalExplore:
		return s.Stress > 0.85 || s.Energy < 0.25
	case GoalProgress:
		return s.Fatigue > 0.85 || s.Energy < 0.15
	case GoalPursueIdea:
		return s.Stress > 0.85
	}
	return false
}

// stepIntention runs the lifecycle state machine for one tick:
// active intentions tick their TTL down and may cancel; an empty slot
// adopts the most urgent goal, or promotes the top backlog idea.
func (b *Brain) stepIntention() {
	if b.intention.Active() {
		if b.intention.cancelled(b.state) {
			b.intention = Intention{}
		} else {
			b.intention.TTL--
			if b.intention.TTL <= 0 {
				b.intention = Intention{}
			}
		}
	}
	if b.intention.Active() {
		return
	}

	ttl := 5 + b.rng.Intn(16) // [5,20]
	s := b.state
	switch {
	case s.Energy < 0.35 || s.Clarity < 0.35 || s.Fatigue > 0.70:
		b.intention = Intention{Goal: GoalRecover, TTL: ttl, Priority: 1.0, Since: b.clock.Tick}
	case s.Stability < 0.45 || s.Stress > 0.65:
		b.intention = Intention{Goal: GoalStabilize, TTL: ttl, Priority: 0.9, Since: b.clock.Tick}
	case s.Curiosity > 0.60 && s.Energy > 0.50 && s.Stability > 0.55 && s.Stress < 0.70:
		b.intention = Intention{Goal: GoalExplore, TTL: ttl, Priority: 0.6, Since: b.clock.Tick}
	case len(b.ideas) > 0 && b.ideas[0].Priority >= 0.6:
		idea := b.popIdea()
		b.intention = Intention{
			Goal:      GoalPursueIdea,
			TTL:       ttl,
			Priority:  idea.Priority,
			IdeaTitle: idea.Title,
			Since:     b.clock.Tick,
		}
	default:
		b.intention = Intention{Goal: GoalProgress, TTL: ttl, Priority: 0.5, Since: b.clock.Tick}
	}
}

// Idea is a spontaneous candidate directive waiting in the backlog.
type Idea struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	ContextTag    string  `json:"context_tag"`
	EstimatedCost float64 `json:"estimated_cost"`
	EstimatedRisk float64 `json:"estimated_risk"`
	Priority      float64 `json:"priority"`
	Recency       uint64  `json:"recency"`
}

// addIdea appends to the backlog and re-sorts (priority descending,
// recency as tie-break). Duplicate pending titles are refreshed, not
// duplicated.
func (b *Brain) addIdea(title, tag string, priority float64) {
	priority = clamp01(priority)
	for i := range b.ideas {
		if b.ideas[i].Title == title {
			if priority > b.ideas[i].Priority {
				b.ideas[i].Priority = priority
			}
			b.ideas[i].Recency = b.clock.Tick
			b.sortIdeas()
			return
		}
	}
	b.ideas = append(b.ideas, Idea{
		ID:            uuid.NewString(),
		Title:         title,
		ContextTag:    tag,
		EstimatedCost: 0.3 + 0.4*priority,
		EstimatedRisk: 0.2 + 0.5*priority,
		Priority:      priority,
		Recency:       b.clock.Tick,
	})
	b.sortIdeas()
}

func (b *Brain) sortIdeas() {
	sort.SliceStable(b.ideas, func(i, j int) bool {
		if b.ideas[i].Priority != b.ideas[j].Priority {
			return b.ideas[i].Priority > b.ideas[j].Priority
		}
		return b.ideas[i].Recency > b.ideas[j].Recency
	})
}

// popIdea removes and returns the top backlog entry.
func (b *Brain) popIdea() Idea {
	idea := b.ideas[0]
	b.ideas = append(b.ideas[:0], b.ideas[1:]...)
	return idea
}

// detectStagnation injects a high-priority "change approach" idea when
// one action, or a pair of actions, covers more than 70% of the last
// 20 executed ticks. Selection is never forced; the diversity term
// does the nudging.
func (b *Brain) detectStagnation() {
	const window, threshold = 20, 0.70
	if len(b.window) < window {
		return
	}
	counts := map[Action]int{}
	for _, a := range b.window[len(b.window)-window:] {
		counts[a]++
	}
	top1, top2 := 0, 0
	for _, n := range counts {
		if n > top1 {
			top1, top2 = n, top1
		} else if n > top2 {
			top2 = n
		}
	}
	if float64(top1) > threshold*window || float64(top1+top2) > threshold*window && len(counts) <= 2 {
		b.addIdea("changer d'approche", "stagnation", 0.9)
	}
}
