package engine

import "sort"

// ContextPacket is the immutable, stable-shaped summary handed to the
// inference backend. Building it never mutates engine state.
type ContextPacket struct {
	Tick      uint64         `json:"tick"`
	Phase     DayPhase       `json:"sim_day_phase"`
	State     InternalState  `json:"state"`
	World     WorldState     `json:"world"`
	Goal      Goal           `json:"goal"`
	GoalTTL   int            `json:"goal_ttl"`
	Ideas     []string       `json:"ideas"`
	Recent    []Outcome      `json:"recent_outcomes"`
	Skills    map[Action]int `json:"skills"`
	FailRate  float64        `json:"recent_fail_rate"`
	LastEvent EventType      `json:"last_rare_event,omitempty"`
}

// BuildContextPacket snapshots current state for the router.
func (b *Brain) BuildContextPacket() ContextPacket {
	b.mu.Lock()
	defer b.mu.Unlock()

	ideas := make([]string, 0, len(b.ideas))
	for _, idea := range b.ideas {
		ideas = append(ideas, idea.Title)
	}

	recent := make([]Outcome, 0, 10)
	start := 0
	if len(b.shortTerm) > 10 {
		start = len(b.shortTerm) - 10
	}
	recent = append(recent, b.shortTerm[start:]...)

	skills := make(map[Action]int, len(b.skills))
	for a, s := range b.skills {
		skills[a] = s.Level
	}

	fails, total := 0, 0
	for _, o := range b.shortTerm {
		total++
		if !o.Success {
			fails++
		}
	}
	failRate := 0.0
	if total > 0 {
		failRate = float64(fails) / float64(total)
	}

	var last EventType
	if len(b.marked) > 0 {
		last = b.marked[len(b.marked)-1].Type
	}

	return ContextPacket{
		Tick:      b.clock.Tick,
		Phase:     b.clock.SimDayPhase(),
		State:     b.state,
		World:     b.world,
		Goal:      b.intention.Goal,
		GoalTTL:   b.intention.TTL,
		Ideas:     ideas,
		Recent:    recent,
		Skills:    skills,
		FailRate:  failRate,
		LastEvent: last,
	}
}

// Dashboard is the aggregate view served by the HTTP front end.
type Dashboard struct {
	Tick       uint64        `json:"tick"`
	Phase      DayPhase      `json:"sim_day_phase"`
	Paused     bool          `json:"paused"`
	State      InternalState `json:"state"`
	World      WorldState    `json:"world"`
	Goal       Goal          `json:"goal"`
	FailRate   float64       `json:"fail_rate"`
	TopActions []ActionCount `json:"top_actions"`
	TopEvents  []EventType   `json:"top_events"`
	IdeaCount  int           `json:"idea_count"`
	Refusals   int           `json:"refusals"`
}

// BuildDashboard summarizes current state for the /state endpoint.
func (b *Brain) BuildDashboard() Dashboard {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := map[Action]int{}
	fails, total := 0, 0
	for _, o := range b.shortTerm {
		counts[o.Action]++
		total++
		if !o.Success {
			fails++
		}
	}
	top := make([]ActionCount, 0, len(counts))
	for a, n := range counts {
		top = append(top, ActionCount{Action: a, Count: n})
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Action < top[j].Action
	})
	if len(top) > 3 {
		top = top[:3]
	}
	failRate := 0.0
	if total > 0 {
		failRate = float64(fails) / float64(total)
	}

	events := map[EventType]int{}
	for _, m := range b.marked {
		events[m.Type]++
	}
	var topEvents []EventType
	for t := range events {
		topEvents = append(topEvents, t)
	}

	return Dashboard{
		Tick:       b.clock.Tick,
		Phase:      b.clock.SimDayPhase(),
		Paused:     b.paused,
		State:      b.state,
		World:      b.world,
		Goal:       b.intention.Goal,
		FailRate:   failRate,
		TopActions: top,
		TopEvents:  topEvents,
		IdeaCount:  len(b.ideas),
		Refusals:   len(b.perms.refusals),
	}
}
