// Package config loads process configuration from the environment and
// an optional YAML tunables file.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mkotake/kaede/internal/engine"
)

// Config is the environment-driven process configuration.
type Config struct {
	ListenAddr   string  `env:"KAEDE_LISTEN_ADDR" envDefault:"127.0.0.1:8787"`
	SnapshotPath string  `env:"KAEDE_SNAPSHOT" envDefault:"kaede_snapshot.json"`
	JournalPath  string  `env:"KAEDE_JOURNAL_DB" envDefault:"kaede_journal.db"`
	TunablesPath string  `env:"KAEDE_TUNABLES" envDefault:""`
	Seed         int64   `env:"KAEDE_SEED" envDefault:"0"`
	TickSeconds  float64 `env:"KAEDE_TICK_SECONDS" envDefault:"1.0"`
	AutosaveSecs int     `env:"KAEDE_AUTOSAVE_SECONDS" envDefault:"300"`
	LLMBaseURL   string  `env:"KAEDE_LLM_BASE_URL" envDefault:""`
	LLMModel     string  `env:"KAEDE_LLM_MODEL" envDefault:"local-model"`
	LogLevel     string  `env:"KAEDE_LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (when present) then parses the environment.
func Load() (Config, error) {
	// Missing .env is normal; real deployments use the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Tunables are the calibration knobs: rare-event base rates and the
// maintenance intervals. Everything has a working default; the YAML
// file only overrides what it names.
type Tunables struct {
	EventRates engine.EventRates `yaml:"event_rates"`
}

// DefaultTunables returns the built-in calibration.
func DefaultTunables() Tunables {
	return Tunables{EventRates: engine.DefaultEventRates()}
}

// LoadTunables reads the YAML tunables file. An empty path returns the
// defaults.
func LoadTunables(path string) (Tunables, error) {
	t := DefaultTunables()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tunables{}, fmt.Errorf("read tunables: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tunables{}, fmt.Errorf("parse tunables: %w", err)
	}
	return t, nil
}
