package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage is one step of the pipeline. Stages run strictly in order.
type Stage interface {
	Name() string
	Run(ctx context.Context) error
}

type stageFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (s stageFunc) Name() string                  { return s.name }
func (s stageFunc) Run(ctx context.Context) error { return s.fn(ctx) }

// NewStage adapts a function into a Stage.
func NewStage(name string, fn func(ctx context.Context) error) Stage {
	return stageFunc{name: name, fn: fn}
}

// Attempt statuses.
const (
	StatusSkipped   = "skipped"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Attempt is one invocation of RunIfDue as written to the ledger.
type Attempt struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Due         bool
	Forced      bool
	Status      string
	FailedStage string
	Error       string
}

// Ledger receives every attempt. It is informational only; due decisions read
// the RunRecord.
type Ledger interface {
	Record(ctx context.Context, a Attempt) error
}

// Outcome describes what RunIfDue did.
type Outcome struct {
	RunID       string
	Due         bool
	Ran         bool
	LastRun     *RunRecord
	Record      *RunRecord // set when the run succeeded
	FailedStage string
	Err         error
	NextDue     time.Time
}

// Succeeded reports whether every stage ran and the record advanced.
func (o Outcome) Succeeded() bool {
	return o.Ran && o.Err == nil
}

// Runner orchestrates the due check and the stages.
type Runner struct {
	Store    *Store
	Stages   []Stage
	Interval time.Duration
	Force    bool
	Ledger   Ledger
	Logger   *zap.Logger
	Now      func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) interval() time.Duration {
	if r.Interval <= 0 {
		return DefaultInterval
	}
	return r.Interval
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// RunIfDue runs the stages when the last successful run is at least one
// interval old. A failing stage aborts the chain without advancing the
// record; that failure lands in Outcome.Err, not in the returned error, so the
// next external trigger simply checks again. The returned error is reserved
// for record I/O problems.
func (r *Runner) RunIfDue(ctx context.Context) (Outcome, error) {
	log := r.logger()
	interval := r.interval()
	started := r.now()

	out := Outcome{RunID: uuid.NewString()}

	last, err := r.Store.Load()
	if err != nil {
		return out, err
	}
	out.LastRun = last

	if last != nil {
		log.Info("last run",
			zap.String("date", last.Date),
			zap.String("days_since", fmt.Sprintf("%.2f", DaysSince(started, last))),
			zap.Duration("interval", interval))
	} else {
		log.Info("last run: never", zap.Duration("interval", interval))
	}

	out.Due = IsDue(started, last, interval)
	if !out.Due && !r.Force {
		out.NextDue = last.Time().Add(interval)
		log.Info("not due yet, skipping", zap.Time("next_due", out.NextDue))
		r.record(ctx, out, started)
		return out, nil
	}

	if out.Due {
		log.Info("due for update, running workflow", zap.String("run_id", out.RunID))
	} else {
		log.Info("not due, running anyway (forced)", zap.String("run_id", out.RunID))
	}

	out.Ran = true
	for i, stage := range r.Stages {
		if err := ctx.Err(); err != nil {
			out.FailedStage = stage.Name()
			out.Err = err
			break
		}
		log.Info(fmt.Sprintf("[%d/%d] %s", i+1, len(r.Stages), stage.Name()))
		if err := stage.Run(ctx); err != nil {
			out.FailedStage = stage.Name()
			out.Err = fmt.Errorf("%s: %w", stage.Name(), err)
			break
		}
	}

	if out.Err != nil {
		log.Error("workflow failed, will retry next time",
			zap.String("stage", out.FailedStage), zap.Error(out.Err))
		r.record(ctx, out, started)
		return out, nil
	}

	rec, err := r.Store.RecordRun(r.now())
	if err != nil {
		out.Err = err
		r.record(ctx, out, started)
		return out, err
	}
	out.Record = &rec
	out.NextDue = rec.Time().Add(interval)
	log.Info("workflow complete", zap.Time("next_due", out.NextDue))

	r.record(ctx, out, started)
	return out, nil
}

func (r *Runner) record(ctx context.Context, out Outcome, started time.Time) {
	if r.Ledger == nil {
		return
	}
	a := Attempt{
		ID:          out.RunID,
		StartedAt:   started,
		FinishedAt:  r.now(),
		Due:         out.Due,
		Forced:      r.Force && !out.Due,
		FailedStage: out.FailedStage,
	}
	switch {
	case !out.Ran:
		a.Status = StatusSkipped
	case out.Err != nil:
		a.Status = StatusFailed
		a.Error = out.Err.Error()
	default:
		a.Status = StatusSucceeded
	}
	// Ledger writes must not fail the run; the ledger is informational.
	if err := r.Ledger.Record(context.WithoutCancel(ctx), a); err != nil {
		r.logger().Warn("failed to write run ledger", zap.Error(err))
	}
}
