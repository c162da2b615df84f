// Command kaede-server runs the autonomous engine with its HTTP chat
// front end, SQLite journal and snapshot autosave.
package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkotake/kaede/internal/api"
	"github.com/mkotake/kaede/internal/config"
	"github.com/mkotake/kaede/internal/drift"
	"github.com/mkotake/kaede/internal/engine"
	"github.com/mkotake/kaede/internal/journal"
	"github.com/mkotake/kaede/internal/llm"
	"github.com/mkotake/kaede/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("Kaede — moteur autonome de décision et de mémoire")

	tunables, err := config.LoadTunables(cfg.TunablesPath)
	if err != nil {
		slog.Error("tunables invalid", "path", cfg.TunablesPath, "error", err)
		os.Exit(1)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = drift.RandomSeed()
	}

	// ── Journal ───────────────────────────────────────────────────────
	store, err := journal.Open(cfg.JournalPath)
	if err != nil {
		slog.Error("failed to open journal", "path", cfg.JournalPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("journal opened", "path", cfg.JournalPath)

	// ── Model router ──────────────────────────────────────────────────
	router := llm.DefaultRouter(cfg.LLMBaseURL, cfg.LLMModel)
	if cfg.LLMBaseURL == "" {
		slog.Warn("KAEDE_LLM_BASE_URL not set, conversational replies use the mock tiers")
	}

	// ── Engine ────────────────────────────────────────────────────────
	brain := engine.New(engine.Options{
		Seed:     seed,
		Rates:    tunables.EventRates,
		Recorder: &journal.Recorder{Store: store},
		Models:   router,
	})

	if _, statErr := os.Stat(cfg.SnapshotPath); statErr == nil {
		if err := brain.LoadSnapshot(cfg.SnapshotPath); err != nil {
			var verr *snapshot.VersionError
			if errors.As(err, &verr) {
				slog.Error("snapshot version unsupported, refusing to start over it",
					"path", cfg.SnapshotPath, "found", verr.Found)
				os.Exit(1)
			}
			slog.Error("snapshot load failed, starting fresh", "path", cfg.SnapshotPath, "error", err)
		} else {
			slog.Info("snapshot restored", "path", cfg.SnapshotPath, "tick", brain.Tick())
		}
	} else {
		slog.Info("no snapshot found, starting at tick zero", "path", cfg.SnapshotPath)
	}

	// ── Runner ────────────────────────────────────────────────────────
	runner := engine.NewRunner(brain)
	if cfg.TickSeconds > 0 {
		runner.Interval = time.Duration(cfg.TickSeconds * float64(time.Second))
	}
	runner.SnapshotPath = cfg.SnapshotPath
	if cfg.AutosaveSecs > 0 {
		runner.Autosave = time.Duration(cfg.AutosaveSecs) * time.Second
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{
		Brain:  brain,
		Router: router,
		Store:  store,
		Addr:   cfg.ListenAddr,
	}
	server.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		runner.Stop()
	}()

	slog.Info("engine running", "seed", seed, "addr", cfg.ListenAddr, "tick", brain.Tick())
	runner.Run()

	// Final save on shutdown.
	if err := brain.SaveSnapshot(cfg.SnapshotPath); err != nil {
		slog.Error("final save failed", "path", cfg.SnapshotPath, "error", err)
	} else {
		slog.Info("final snapshot saved", "path", cfg.SnapshotPath, "tick", brain.Tick())
	}
}
