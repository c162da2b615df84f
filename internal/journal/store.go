// Package journal provides SQLite-backed storage for tick journal
// entries, day summaries and permission refusals.
package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mkotake/kaede/internal/engine"
)

// Store wraps a SQLite connection for journal persistence. It
// implements engine.Recorder.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st := &Store{conn: conn}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		summary TEXT NOT NULL,
		action TEXT NOT NULL,
		success INTEGER NOT NULL,
		rare_event TEXT NOT NULL DEFAULT '',
		debug_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS day_summaries (
		day_index INTEGER PRIMARY KEY,
		fail_rate REAL NOT NULL,
		top_actions_json TEXT NOT NULL,
		top_events_json TEXT NOT NULL,
		skills_json TEXT NOT NULL,
		state_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS refusals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		capability TEXT NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_tick ON entries(tick);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// AppendEntry stores one tick journal entry.
func (s *Store) AppendEntry(e engine.JournalEntry) error {
	debugJSON, err := json.Marshal(e.Debug)
	if err != nil {
		return fmt.Errorf("marshal debug: %w", err)
	}
	success := 0
	if e.Debug.Success {
		success = 1
	}
	_, err = s.conn.Exec(
		"INSERT INTO entries (tick, summary, action, success, rare_event, debug_json) VALUES (?, ?, ?, ?, ?, ?)",
		e.Tick, e.Summary, string(e.Debug.Chosen), success, string(e.Debug.RareEvent), string(debugJSON),
	)
	return err
}

// AppendDaySummary stores one day summary, replacing any prior row for
// the same day.
func (s *Store) AppendDaySummary(d engine.DaySummary) error {
	actionsJSON, _ := json.Marshal(d.DominantActions)
	eventsJSON, _ := json.Marshal(d.TopEvents)
	skillsJSON, _ := json.Marshal(d.Skills)
	stateJSON, _ := json.Marshal(d.State)

	_, err := s.conn.Exec(
		`INSERT OR REPLACE INTO day_summaries
		 (day_index, fail_rate, top_actions_json, top_events_json, skills_json, state_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.DayIndex, d.FailRate, string(actionsJSON), string(eventsJSON), string(skillsJSON), string(stateJSON),
	)
	return err
}

// AppendRefusal stores one permission refusal.
func (s *Store) AppendRefusal(r engine.Refusal) error {
	_, err := s.conn.Exec(
		"INSERT INTO refusals (tick, capability, reason) VALUES (?, ?, ?)",
		r.Tick, r.Capability, r.Reason,
	)
	return err
}

// EntryRow is one persisted journal line.
type EntryRow struct {
	Tick      uint64 `db:"tick" json:"tick"`
	Summary   string `db:"summary" json:"summary"`
	Action    string `db:"action" json:"action"`
	Success   bool   `db:"success" json:"success"`
	RareEvent string `db:"rare_event" json:"rare_event,omitempty"`
}

// RecentEntries returns the most recent N journal lines, newest first.
func (s *Store) RecentEntries(limit int) ([]EntryRow, error) {
	var rows []EntryRow
	err := s.conn.Select(&rows,
		"SELECT tick, summary, action, success, rare_event FROM entries ORDER BY id DESC LIMIT ?",
		limit,
	)
	return rows, err
}

// RecentRefusals returns the most recent N refusals, newest first.
func (s *Store) RecentRefusals(limit int) ([]engine.Refusal, error) {
	var rows []struct {
		Tick       uint64 `db:"tick"`
		Capability string `db:"capability"`
		Reason     string `db:"reason"`
	}
	err := s.conn.Select(&rows,
		"SELECT tick, capability, reason FROM refusals ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Refusal, 0, len(rows))
	for _, r := range rows {
		out = append(out, engine.Refusal{Tick: r.Tick, Capability: r.Capability, Reason: r.Reason})
	}
	return out, nil
}

// Recorder bridges the store to the engine's journal callbacks,
// logging rather than propagating storage failures — the in-memory
// journals stay authoritative.
type Recorder struct {
	Store *Store
}

var _ engine.Recorder = (*Recorder)(nil)

func (r *Recorder) RecordEntry(e engine.JournalEntry) {
	if err := r.Store.AppendEntry(e); err != nil {
		slog.Error("journal entry write failed", "tick", e.Tick, "error", err)
	}
}

func (r *Recorder) RecordDaySummary(d engine.DaySummary) {
	if err := r.Store.AppendDaySummary(d); err != nil {
		slog.Error("day summary write failed", "day", d.DayIndex, "error", err)
	}
}

func (r *Recorder) RecordRefusal(ref engine.Refusal) {
	if err := r.Store.AppendRefusal(ref); err != nil {
		slog.Error("refusal write failed", "capability", ref.Capability, "error", err)
	}
}
