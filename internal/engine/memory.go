package engine

// Memory sizing.
const (
	shortTermCap  = 40 // recent outcomes kept in the ring
	markedCap     = 30 // salient memories kept between consolidations
	markedFloor   = 0.55
	emaAlpha      = 0.15
	avoidDuration = 40 // ticks an action stays excluded after a bad streak
	failStreakMax = 3  // consecutive failures before avoidance kicks in
)

// Outcome is one short-term memory entry: what was done and how it went.
type Outcome struct {
	Tick    uint64   `json:"tick"`
	Action  Action   `json:"action"`
	Success bool     `json:"success"`
	Reward  float64  `json:"reward"`
	Cost    float64  `json:"cost"`
	Stress  float64  `json:"stress"`
	Fatigue float64  `json:"fatigue"`
	Event   string   `json:"rare_event,omitempty"`
	Phase   DayPhase `json:"phase"`
}

// LongTerm accumulates per-action statistics across the whole run.
// Streaks are mutually exclusive: a success zeroes the fail streak and
// vice versa.
type LongTerm struct {
	NTotal        int     `json:"n_total"`
	NSuccess      int     `json:"n_success"`
	NFail         int     `json:"n_fail"`
	LastTick      uint64  `json:"last_tick"`
	EMAReward     float64 `json:"ema_reward"`
	EMACost       float64 `json:"ema_cost"`
	FailStreak    int     `json:"recent_fail_streak"`
	SuccessStreak int     `json:"recent_success_streak"`
	AvoidUntil    uint64  `json:"avoid_until_tick"`
}

// Observe folds one outcome into the long-term record. Returns true
// when a fresh failure streak crossed the avoidance threshold.
func (lt *LongTerm) Observe(tick uint64, success bool, reward, cost float64) bool {
	lt.NTotal++
	lt.LastTick = tick

	triggered := false
	if success {
		lt.NSuccess++
		lt.SuccessStreak++
		lt.FailStreak = 0
	} else {
		lt.NFail++
		lt.FailStreak++
		lt.SuccessStreak = 0
		if lt.FailStreak >= failStreakMax {
			lt.AvoidUntil = tick + avoidDuration
			triggered = true
		}
	}

	lt.EMAReward = (1.0-emaAlpha)*lt.EMAReward + emaAlpha*reward
	lt.EMACost = (1.0-emaAlpha)*lt.EMACost + emaAlpha*cost
	return triggered
}

// MarkedMemory is a retained record of a rare event, with the internal
// state frozen at the moment it happened.
type MarkedMemory struct {
	Type     EventType     `json:"event_type"`
	Severity float64       `json:"severity"`
	Action   Action        `json:"associated_action"`
	Tick     uint64        `json:"tick"`
	State    InternalState `json:"state"`
}

// recordOutcome appends to the short-term ring, trimming to capacity.
func (b *Brain) recordOutcome(o Outcome) {
	b.shortTerm = append(b.shortTerm, o)
	if len(b.shortTerm) > shortTermCap {
		b.shortTerm = b.shortTerm[len(b.shortTerm)-shortTermCap:]
	}
}

// memoryBias sums the scoring influence of recent marked memories tied
// to the given action: positive events attract, threats repel.
func (b *Brain) memoryBias(action Action) float64 {
	start := 0
	if len(b.marked) > 20 {
		start = len(b.marked) - 20
	}
	bias := 0.0
	for _, m := range b.marked[start:] {
		if m.Action != action {
			continue
		}
		if m.Type.Positive() {
			bias += 0.08 * m.Severity
		} else {
			bias -= 0.06 * m.Severity
		}
	}
	return bias
}
