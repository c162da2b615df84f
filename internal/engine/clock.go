// Package engine implements the tick-driven decision core: a bounded
// internal state, a drifting world model, a seven-action catalog and the
// memory, gating and scoring machinery that picks one action per tick.
package engine

import "time"

// Simulated time granularity. One tick is five simulated minutes; a
// simulated day is 1440 minutes (288 ticks).
const (
	MinutesPerTick = 5
	MinutesPerDay  = 1440
	TicksPerDay    = MinutesPerDay / MinutesPerTick
)

// DayPhase is a quarter of the simulated day.
type DayPhase string

const (
	PhaseNight   DayPhase = "night"
	PhaseMorning DayPhase = "morning"
	PhaseDay     DayPhase = "day"
	PhaseEvening DayPhase = "evening"
)

// Clock owns the tick counter. Everything else about simulated time is
// derived from Tick, never stored, so the fields cannot desync.
type Clock struct {
	Tick uint64 `json:"tick"`

	// now reads the host clock for the weak pc-phase modifier. Injected
	// so tests can pin it; never authoritative over simulated time.
	now func() time.Time
}

// NewClock returns a clock at tick zero reading the host wall clock.
func NewClock() Clock {
	return Clock{now: time.Now}
}

// Advance increments the tick counter by exactly one.
func (c *Clock) Advance() { c.Tick++ }

// SimMinutes returns total simulated minutes elapsed.
func (c *Clock) SimMinutes() uint64 { return c.Tick * MinutesPerTick }

// DayIndex returns the number of completed simulated days.
func (c *Clock) DayIndex() uint64 { return c.SimMinutes() / MinutesPerDay }

// SimDayPhase returns the phase of the current simulated day.
func (c *Clock) SimDayPhase() DayPhase {
	m := c.SimMinutes() % MinutesPerDay
	switch {
	case m < 360:
		return PhaseNight
	case m < 720:
		return PhaseMorning
	case m < 1080:
		return PhaseDay
	default:
		return PhaseEvening
	}
}

// PCDayPhase maps the host clock to a coarse night/day signal. It only
// ever nudges passive recovery, it never drives the simulation. Value
// receiver: it reads and must stay callable on clock values.
func (c Clock) PCDayPhase() DayPhase {
	now := c.now
	if now == nil {
		now = time.Now
	}
	h := now().Hour()
	if h < 6 || h >= 22 {
		return PhaseNight
	}
	return PhaseDay
}
