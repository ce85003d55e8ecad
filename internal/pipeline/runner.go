package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/MikeSquared-Agency/winnow/internal/config"
)

// RunSink persists finished run reports.
type RunSink interface {
	WriteRunReport(ctx context.Context, rep Report) error
}

// Publisher broadcasts finished run reports.
type Publisher interface {
	PublishReport(rep Report) error
}

// Notifier posts human-readable run summaries.
type Notifier interface {
	PostRunSummary(ctx context.Context, text string) error
}

// Runner orchestrates the cleaning operations. The store, bus, and slack
// collaborators are optional; a nil collaborator is skipped.
type Runner struct {
	cfg    config.Config
	store  RunSink
	bus    Publisher
	slack  Notifier
	logger *slog.Logger
}

// NewRunner wires a runner.
func NewRunner(cfg config.Config, store RunSink, bus Publisher, slack Notifier, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  store,
		bus:    bus,
		slack:  slack,
		logger: logger,
	}
}

// finishRun closes out an operation: prints the tally, announces empty
// yields, stamps the report, and fans it out to state, store, bus, and
// Slack. Side effects are best-effort; only the op's own output write can
// fail a run.
func (r *Runner) finishRun(ctx context.Context, op, in, out string, counters Counters, started time.Time, withRepairs bool) Report {
	rep := Report{
		RunID:    uuid.New(),
		Op:       op,
		Input:    in,
		Output:   out,
		Counters: counters,
		Started:  started,
		Finished: time.Now().UTC(),
	}

	fmt.Printf("\n%s", counters.Summary(withRepairs))
	if counters.Kept == 0 {
		fmt.Println("no valid data")
	}

	r.logger.Info("run complete",
		"op", op,
		"run_id", rep.RunID,
		"total", counters.Total,
		"kept", counters.Kept,
		"duration", rep.Duration().Round(time.Millisecond),
	)

	r.recordRun(ctx, rep)
	return rep
}

func (r *Runner) recordRun(ctx context.Context, rep Report) {
	state, err := LoadState(r.cfg.StateFile)
	if err != nil {
		r.logger.Warn("load state failed", "error", err)
	} else {
		state.MarkRun(rep)
		if err := state.Save(); err != nil {
			r.logger.Warn("save state failed", "path", state.Path(), "error", err)
		}
	}

	if r.store != nil {
		if err := r.store.WriteRunReport(ctx, rep); err != nil {
			r.logger.Warn("store run report failed", "error", err)
		}
	}
	if r.bus != nil {
		if err := r.bus.PublishReport(rep); err != nil {
			r.logger.Warn("publish run report failed", "error", err)
		}
	}
	if r.slack != nil {
		if err := r.slack.PostRunSummary(ctx, rep.Oneline()); err != nil {
			r.logger.Warn("slack post failed", "error", err)
		}
	}
}

// progress logs a processing heartbeat every ProgressEvery records.
func (r *Runner) progress(op string, counters Counters) {
	if r.cfg.ProgressEvery > 0 && counters.Total%r.cfg.ProgressEvery == 0 {
		r.logger.Info("progress",
			"op", op,
			"processed", counters.Total,
			"kept", counters.Kept,
		)
	}
}
