package engine

import (
	"log/slog"
	"time"
)

// Runner drives a Brain in real time: one tick per interval, scaled by
// Speed. Pausing the brain keeps the loop alive but idle.
type Runner struct {
	Brain    *Brain
	Speed    float64       // multiplier, 1.0 = one tick per Interval, 0 = hold
	Interval time.Duration // base tick interval

	Autosave     time.Duration // zero disables
	SnapshotPath string

	stop chan struct{}
}

// NewRunner returns a runner with one tick per second and no autosave.
func NewRunner(b *Brain) *Runner {
	return &Runner{
		Brain:    b,
		Speed:    1.0,
		Interval: time.Second,
		stop:     make(chan struct{}),
	}
}

// Run blocks, ticking until Stop is called.
func (r *Runner) Run() {
	slog.Info("engine runner started", "tick", r.Brain.Tick(), "speed", r.Speed)

	var lastSave time.Time
	for {
		select {
		case <-r.stop:
			slog.Info("engine runner stopped", "tick", r.Brain.Tick())
			return
		default:
		}

		if r.Speed <= 0 || r.Brain.Paused() {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		r.Brain.AdvanceTick()

		if r.Autosave > 0 && r.SnapshotPath != "" && time.Since(lastSave) >= r.Autosave {
			if err := r.Brain.SaveSnapshot(r.SnapshotPath); err != nil {
				slog.Error("autosave failed", "path", r.SnapshotPath, "error", err)
			} else {
				slog.Debug("autosave", "path", r.SnapshotPath, "tick", r.Brain.Tick())
			}
			lastSave = time.Now()
		}

		elapsed := time.Since(start)
		target := time.Duration(float64(r.Interval) / r.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
}

// Stop halts the loop after the in-flight tick completes.
func (r *Runner) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}
