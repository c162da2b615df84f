package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"KAEDE_LISTEN_ADDR", "KAEDE_SNAPSHOT", "KAEDE_SEED", "KAEDE_AUTOSAVE_SECONDS"} {
		os.Unsetenv(key)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:8787" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.SnapshotPath != "kaede_snapshot.json" {
		t.Fatalf("snapshot path = %q", cfg.SnapshotPath)
	}
	if cfg.AutosaveSecs != 300 {
		t.Fatalf("autosave = %d", cfg.AutosaveSecs)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("KAEDE_LISTEN_ADDR", "0.0.0.0:9999")
	t.Setenv("KAEDE_SEED", "1234")
	t.Setenv("KAEDE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9999" || cfg.Seed != 1234 || cfg.LogLevel != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadTunablesEmptyPath(t *testing.T) {
	tun, err := LoadTunables("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tun.EventRates != DefaultTunables().EventRates {
		t.Fatalf("empty path did not yield defaults: %+v", tun.EventRates)
	}
}

// The YAML file only overrides what it names; unnamed rates keep their
// defaults.
func TestLoadTunablesPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunables.yaml")
	yaml := "event_rates:\n  discovery: 0.5\n  stress_spike: 0.2\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tun, err := LoadTunables(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tun.EventRates.Discovery != 0.5 || tun.EventRates.StressSpike != 0.2 {
		t.Fatalf("overrides not applied: %+v", tun.EventRates)
	}
	defaults := DefaultTunables().EventRates
	if tun.EventRates.NearFailure != defaults.NearFailure || tun.EventRates.Opportunity != defaults.Opportunity {
		t.Fatalf("unnamed rates lost their defaults: %+v", tun.EventRates)
	}
}

func TestLoadTunablesRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunables.yaml")
	if err := os.WriteFile(path, []byte(": pas du yaml:\n\t-"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTunables(path); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
}
