package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkotake/kaede/internal/snapshot"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaede.json")

	b1 := New(Options{Seed: 3})
	for i := 0; i < 60; i++ {
		b1.AdvanceTick()
	}
	if err := b1.SaveSnapshot(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	b2 := New(Options{Seed: 99})
	if err := b2.LoadSnapshot(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	if b2.Tick() != b1.Tick() {
		t.Fatalf("tick = %d, want %d", b2.Tick(), b1.Tick())
	}
	if b2.state != b1.state {
		t.Fatalf("state mismatch:\n%+v\n%+v", b2.state, b1.state)
	}
	if b2.world != b1.world {
		t.Fatalf("world mismatch:\n%+v\n%+v", b2.world, b1.world)
	}
	if b2.intention != b1.intention {
		t.Fatalf("intention mismatch: %+v vs %+v", b2.intention, b1.intention)
	}
	if len(b2.skills) != len(b1.skills) {
		t.Fatalf("skills: %d vs %d", len(b2.skills), len(b1.skills))
	}
	for a, s1 := range b1.skills {
		if s2 := b2.skills[a]; s2 == nil || *s2 != *s1 {
			t.Fatalf("skill %s mismatch", a)
		}
	}
	if len(b2.window) != len(b1.window) || len(b2.shortTerm) != len(b1.shortTerm) {
		t.Fatalf("memory rings differ after reload")
	}
	if b2.lastAction != b1.lastAction || b2.lastDayIndex != b1.lastDayIndex {
		t.Fatalf("counters differ after reload")
	}
}

func TestSnapshotVersionError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaede.json")
	future := `{"snapshot_version": 999, "saved_at": "2026-01-01T00:00:00Z", "data": {}}`
	if err := os.WriteFile(path, []byte(future), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	b := New(Options{Seed: 1})
	b.AdvanceTick()
	before := b.Tick()

	err := b.LoadSnapshot(path)
	var verr *snapshot.VersionError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want VersionError", err)
	}
	if verr.Found != 999 {
		t.Fatalf("Found = %d", verr.Found)
	}
	if b.Tick() != before {
		t.Fatalf("failed load mutated the engine: tick %d -> %d", before, b.Tick())
	}
}

func TestSnapshotBackupFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaede.json")

	b := New(Options{Seed: 5})
	for i := 0; i < 20; i++ {
		b.AdvanceTick()
	}
	if err := b.SaveSnapshot(path); err != nil {
		t.Fatalf("first save: %v", err)
	}
	goodTick := b.Tick()

	// Second save moves the first one to .bak.
	b.AdvanceTick()
	if err := b.SaveSnapshot(path); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if err := os.WriteFile(path, []byte("{{{ corrompu"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	b2 := New(Options{Seed: 1})
	if err := b2.LoadSnapshot(path); err != nil {
		t.Fatalf("load with backup: %v", err)
	}
	if b2.Tick() != goodTick {
		t.Fatalf("restored tick = %d, want backup tick %d", b2.Tick(), goodTick)
	}
}

func TestSnapshotBothCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaede.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(path+snapshot.BackupSuffix, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write bak: %v", err)
	}

	b := New(Options{Seed: 1})
	b.AdvanceTick()
	stateBefore := b.state

	err := b.LoadSnapshot(path)
	var cerr *snapshot.CorruptError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CorruptError", err)
	}
	if b.state != stateBefore {
		t.Fatalf("corrupt load mutated the engine state")
	}
}

func TestSnapshotMigratesVersion2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaede.json")
	v2 := `{
		"snapshot_version": 2,
		"saved_at": "2026-01-01T00:00:00Z",
		"data": {
			"tick": 42,
			"state": {"energy": 0.5, "clarity": 0.5, "stability": 0.5, "curiosity": 0.5, "risk_tolerance": 0.5, "fatigue": 0.5, "stress": 0.5},
			"world": {"instability": 0.3, "opportunity": 0.5, "danger": 0.3, "novelty": 0.7, "global_stability": 0.6},
			"last_action": "rest"
		}
	}`
	if err := os.WriteFile(path, []byte(v2), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	b := New(Options{Seed: 1})
	if err := b.LoadSnapshot(path); err != nil {
		t.Fatalf("load v2: %v", err)
	}
	if b.Tick() != 42 {
		t.Fatalf("tick = %d, want 42", b.Tick())
	}
	if b.lastAction != ActionRest {
		t.Fatalf("last action = %s", b.lastAction)
	}
	// Fields added in v3 come back usable, not nil.
	if b.cooldownUntil == nil || b.routines == nil || b.lastActionTick == nil {
		t.Fatalf("migrated maps not initialized")
	}
	b.AdvanceTick()
	if b.Tick() != 43 {
		t.Fatalf("engine not usable after migration")
	}
}
