package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"

	"github.com/mkotake/kaede/internal/drift"
)

// Recorder receives journal output as it is produced. Implementations
// persist it; a nil recorder drops nothing the engine needs, the
// in-memory journals stay authoritative for the command surface.
type Recorder interface {
	RecordEntry(JournalEntry)
	RecordDaySummary(DaySummary)
	RecordRefusal(Refusal)
}

// ModelControl is the narrow view the command surface has over the
// inference-backend router.
type ModelControl interface {
	StatusLine() string
	SetAuto()
	Use(key string) error
	SetMode(mode string) error
}

// Brain is the engine aggregate. All state is owned here and mutated
// only under the mutex; one tick runs to completion before the next
// begins.
type Brain struct {
	mu    sync.Mutex
	rng   *rand.Rand
	noise *drift.Noise
	rates EventRates

	clock Clock
	state InternalState
	world WorldState

	skills   map[Action]*SkillRecord
	longTerm map[Action]*LongTerm

	shortTerm []Outcome
	marked    []MarkedMemory

	intention Intention
	ideas     []Idea

	window         []Action // anti-loop ring, last 30 executed actions
	cooldownUntil  map[Action]uint64
	lastActionTick map[Action]uint64
	routines       map[Action]map[DayPhase]int

	lastAction   Action
	lastDayIndex uint64
	paused       bool

	humanJournal []string
	daySummaries []DaySummary

	perms  *Permissions
	rec    Recorder
	models ModelControl
}

// Options configures a Brain. Zero values fall back to defaults.
type Options struct {
	Seed     int64
	Rates    EventRates
	Recorder Recorder
	Models   ModelControl
}

// New constructs a Brain at tick zero with default state.
func New(opts Options) *Brain {
	if opts.Rates == (EventRates{}) {
		opts.Rates = DefaultEventRates()
	}
	b := &Brain{
		rng:            rand.New(rand.NewSource(opts.Seed)),
		noise:          drift.New(opts.Seed),
		rates:          opts.Rates,
		clock:          NewClock(),
		state:          DefaultInternalState(),
		world:          DefaultWorldState(),
		skills:         map[Action]*SkillRecord{},
		longTerm:       map[Action]*LongTerm{},
		cooldownUntil:  map[Action]uint64{},
		lastActionTick: map[Action]uint64{},
		routines:       map[Action]map[DayPhase]int{},
		perms:          NewPermissions(),
		rec:            opts.Recorder,
		models:         opts.Models,
	}
	return b
}

// skillFor returns the skill record for an action, creating it lazily.
func (b *Brain) skillFor(action Action) *SkillRecord {
	s, ok := b.skills[action]
	if !ok {
		s = newSkillRecord()
		b.skills[action] = s
	}
	return s
}

// longTermFor returns the long-term memory for an action, creating it
// lazily.
func (b *Brain) longTermFor(action Action) *LongTerm {
	lt, ok := b.longTerm[action]
	if !ok {
		lt = &LongTerm{}
		b.longTerm[action] = lt
	}
	return lt
}

func (b *Brain) clampState() {
	if n := b.state.Clamp(); n > 0 {
		slog.Warn("internal state clamped", "fields", n, "tick", b.clock.Tick)
	}
}

func (b *Brain) clampWorld() {
	if n := b.world.Clamp(); n > 0 {
		slog.Warn("world state clamped", "fields", n, "tick", b.clock.Tick)
	}
}

// JournalEntry is the outcome of one tick: a one-line human summary
// plus the structured debug record.
type JournalEntry struct {
	Tick    uint64      `json:"tick"`
	Summary string      `json:"summary"`
	Debug   DebugRecord `json:"debug"`
}

// DebugRecord is the numeric audit trail of one decision.
type DebugRecord struct {
	Tick          uint64             `json:"tick"`
	Phase         DayPhase           `json:"sim_day_phase"`
	PCPhase       DayPhase           `json:"pc_day_phase"`
	Goal          Goal               `json:"goal"`
	Candidates    []Action           `json:"candidates"`
	Scores        map[Action]float64 `json:"scores"`
	Chosen        Action             `json:"chosen"`
	Success       bool               `json:"success"`
	EffectiveRisk float64            `json:"risk_effective"`
	Reward        float64            `json:"reward"`
	Cost          float64            `json:"cost"`
	RareEvent     EventType          `json:"rare_event,omitempty"`
	SkillLevel    int                `json:"skill_level"`
	State         InternalState      `json:"state_after"`
	World         WorldState         `json:"world_after"`
}

// AdvanceTick runs exactly one tick: clock, world drift, passive
// recovery, rare-event roll, intention lifecycle, gating, scoring,
// execution, learning, journals, periodic consolidation. Paused
// engines report without advancing.
func (b *Brain) AdvanceTick() JournalEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.advanceTickLocked()
}

func (b *Brain) advanceTickLocked() JournalEntry {
	if b.paused {
		return JournalEntry{
			Tick:    b.clock.Tick,
			Summary: "Moteur en pause, aucun tick exécuté.",
		}
	}

	b.clock.Advance()
	b.driftWorld()
	b.state.PassiveRecover(b.clock.SimDayPhase(), b.clock.PCDayPhase())

	rare := b.rollRareEvent()

	b.stepIntention()

	eligible := b.gate()
	action, scores := b.choose(eligible)
	res := b.execute(action)

	b.lastActionTick[action] = b.clock.Tick
	b.pushWindow(action)
	if cd := actionCooldown[action]; cd > 0 {
		b.cooldownUntil[action] = b.clock.Tick + cd
	}
	b.updateRoutines(action)
	skill := b.skillFor(action)
	if skill.Gain(res.Success) {
		slog.Info("skill level up", "action", action, "level", skill.Level, "tick", b.clock.Tick)
	}
	if b.longTermFor(action).Observe(b.clock.Tick, res.Success, res.Reward, res.Cost) {
		slog.Info("action avoidance set", "action", action, "until", b.longTermFor(action).AvoidUntil)
	}
	b.lastAction = action

	b.recordOutcome(Outcome{
		Tick:    b.clock.Tick,
		Action:  action,
		Success: res.Success,
		Reward:  res.Reward,
		Cost:    res.Cost,
		Stress:  b.state.Stress,
		Fatigue: b.state.Fatigue,
		Event:   string(rare),
		Phase:   b.clock.SimDayPhase(),
	})

	b.detectStagnation()
	b.consolidate()
	b.daySummaryIfNeeded()

	entry := JournalEntry{
		Tick:    b.clock.Tick,
		Summary: b.humanLine(action, res.Success, rare),
		Debug: DebugRecord{
			Tick:          b.clock.Tick,
			Phase:         b.clock.SimDayPhase(),
			PCPhase:       b.clock.PCDayPhase(),
			Goal:          b.intention.Goal,
			Candidates:    eligible,
			Scores:        scores,
			Chosen:        action,
			Success:       res.Success,
			EffectiveRisk: res.EffectiveRisk,
			Reward:        res.Reward,
			Cost:          res.Cost,
			RareEvent:     rare,
			SkillLevel:    skill.Level,
			State:         b.state,
			World:         b.world,
		},
	}
	b.humanJournal = append(b.humanJournal, entry.Summary)
	if len(b.humanJournal) > 200 {
		b.humanJournal = b.humanJournal[len(b.humanJournal)-200:]
	}
	if b.rec != nil {
		b.rec.RecordEntry(entry)
	}
	return entry
}

func (b *Brain) pushWindow(action Action) {
	b.window = append(b.window, action)
	if len(b.window) > antiLoopWindow {
		b.window = b.window[len(b.window)-antiLoopWindow:]
	}
}

// humanLine renders the one-sentence summary of a tick.
func (b *Brain) humanLine(action Action, success bool, rare EventType) string {
	var base string
	switch action {
	case ActionRest:
		base = "Je récupère pour préserver ma clarté et mon énergie"
	case ActionExplore, ActionChallenge:
		base = "Je tente une progression mesurée malgré l'incertitude"
	case ActionOrganize, ActionReflect:
		base = "Je stabilise mon fonctionnement pour rester cohérente"
	default:
		base = "Je maintiens un rythme prudent et durable"
	}
	if rare != "" {
		return fmt.Sprintf("%s et un événement rare (%s) reconfigure ma trajectoire.", base, rare)
	}
	if success {
		return base + " (succès)."
	}
	return base + " (échec, j'ajuste)."
}

// DaySummary aggregates one simulated day.
type DaySummary struct {
	DayIndex        uint64         `json:"day_index"`
	DominantActions []ActionCount  `json:"dominant_actions"`
	FailRate        float64        `json:"fail_rate"`
	TopEvents       []EventType    `json:"events"`
	Skills          map[Action]int `json:"skills"`
	State           InternalState  `json:"state"`
}

// ActionCount is one (action, occurrences) pair.
type ActionCount struct {
	Action Action `json:"action"`
	Count  int    `json:"count"`
}

// daySummaryIfNeeded emits a summary when the simulated day rolls over.
func (b *Brain) daySummaryIfNeeded() {
	day := b.clock.DayIndex()
	if day <= b.lastDayIndex {
		return
	}
	b.lastDayIndex = day

	counts := map[Action]int{}
	fails, total := 0, 0
	for _, o := range b.shortTerm {
		if o.Tick+TicksPerDay <= b.clock.Tick {
			continue
		}
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

	var events []EventType
	start := 0
	if len(b.marked) > 5 {
		start = len(b.marked) - 5
	}
	for _, m := range b.marked[start:] {
		events = append(events, m.Type)
	}

	skills := map[Action]int{}
	for a, s := range b.skills {
		skills[a] = s.Level
	}
	failRate := 0.0
	if total > 0 {
		failRate = float64(fails) / float64(total)
	}

	summary := DaySummary{
		DayIndex:        day,
		DominantActions: top,
		FailRate:        failRate,
		TopEvents:       events,
		Skills:          skills,
		State:           b.state,
	}
	b.daySummaries = append(b.daySummaries, summary)
	if len(b.daySummaries) > 30 {
		b.daySummaries = b.daySummaries[len(b.daySummaries)-30:]
	}
	slog.Info("day summary",
		"day", day,
		"fail_rate", fmt.Sprintf("%.2f", failRate),
		"dominant", top,
	)
	if b.rec != nil {
		b.rec.RecordDaySummary(summary)
	}
}

// Tick returns the current tick without advancing.
func (b *Brain) Tick() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock.Tick
}

// Paused reports whether the engine is paused.
func (b *Brain) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}
