package engine

import (
	"encoding/json"
	"fmt"

	"github.com/mkotake/kaede/internal/snapshot"
)

// SnapshotVersion tags the current on-disk document shape. Version 2
// lacked routine counters and cooldowns; it migrates forward with
// those left empty.
const SnapshotVersion = 3

// snapshotDoc is the full serializable engine state.
type snapshotDoc struct {
	Tick           uint64                      `json:"tick"`
	State          InternalState               `json:"state"`
	World          WorldState                  `json:"world"`
	Skills         map[Action]*SkillRecord     `json:"skills"`
	LongTerm       map[Action]*LongTerm        `json:"long_term"`
	ShortTerm      []Outcome                   `json:"short_term"`
	Marked         []MarkedMemory              `json:"marked_memories"`
	Intention      Intention                   `json:"intention"`
	Ideas          []Idea                      `json:"ideas"`
	Window         []Action                    `json:"anti_loop_window"`
	Cooldowns      map[Action]uint64           `json:"cooldown_until"`
	LastActionTick map[Action]uint64           `json:"last_action_tick"`
	Routines       map[Action]map[DayPhase]int `json:"routines"`
	LastAction     Action                      `json:"last_action"`
	LastDayIndex   uint64                      `json:"last_day_index"`
	Paused         bool                        `json:"paused"`
}

// SaveSnapshot writes the full engine state to path (with backup and
// atomic replace, see the snapshot package).
func (b *Brain) SaveSnapshot(path string) error {
	if !b.PermissionAllowed("snapshot") {
		return ErrPermissionDenied
	}

	// Held across the write: no tick may observe a half-written
	// snapshot, and the doc aliases live maps.
	b.mu.Lock()
	defer b.mu.Unlock()

	doc := snapshotDoc{
		Tick:           b.clock.Tick,
		State:          b.state,
		World:          b.world,
		Skills:         b.skills,
		LongTerm:       b.longTerm,
		ShortTerm:      b.shortTerm,
		Marked:         b.marked,
		Intention:      b.intention,
		Ideas:          b.ideas,
		Window:         b.window,
		Cooldowns:      b.cooldownUntil,
		LastActionTick: b.lastActionTick,
		Routines:       b.routines,
		LastAction:     b.lastAction,
		LastDayIndex:   b.lastDayIndex,
		Paused:         b.paused,
	}
	return snapshot.Write(path, SnapshotVersion, doc)
}

// LoadSnapshot restores engine state from path. The live state is
// replaced only after the whole document deserializes and validates;
// any failure leaves the engine untouched.
func (b *Brain) LoadSnapshot(path string) error {
	data, err := snapshot.Read(path, SnapshotVersion, migrateSnapshot)
	if err != nil {
		return err
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return &snapshot.CorruptError{Path: path, Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.clock.Tick = doc.Tick
	b.state = doc.State
	b.world = doc.World
	b.clampState()
	b.clampWorld()
	b.skills = doc.Skills
	if b.skills == nil {
		b.skills = map[Action]*SkillRecord{}
	}
	b.longTerm = doc.LongTerm
	if b.longTerm == nil {
		b.longTerm = map[Action]*LongTerm{}
	}
	b.shortTerm = doc.ShortTerm
	b.marked = doc.Marked
	b.intention = doc.Intention
	b.ideas = doc.Ideas
	b.window = doc.Window
	b.cooldownUntil = doc.Cooldowns
	if b.cooldownUntil == nil {
		b.cooldownUntil = map[Action]uint64{}
	}
	b.lastActionTick = doc.LastActionTick
	if b.lastActionTick == nil {
		b.lastActionTick = map[Action]uint64{}
	}
	b.routines = doc.Routines
	if b.routines == nil {
		b.routines = map[Action]map[DayPhase]int{}
	}
	b.lastAction = doc.LastAction
	b.lastDayIndex = doc.LastDayIndex
	b.paused = doc.Paused
	return nil
}

// migrateSnapshot upgrades known prior payloads. Version 2 documents
// deserialize into the current shape directly; the fields added in
// version 3 default to empty.
func migrateSnapshot(from int, data json.RawMessage) (json.RawMessage, error) {
	switch from {
	case 2:
		var doc snapshotDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("migration v2: %w", err)
		}
		return json.Marshal(doc)
	default:
		return nil, &snapshot.VersionError{Found: from}
	}
}
