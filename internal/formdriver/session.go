package formdriver

import (
	"context"
	"fmt"
	"time"

	"casbot/internal/cas"
	"casbot/internal/config"

	"go.uber.org/zap"
)

// Session owns one browser page.
type Session interface {
	Page() Page
	Close() error
}

// Opener starts a browser session.
type Opener func(ctx context.Context) (Session, error)

// Runner acquires a session, drives one submission, and releases the session
// after CloseGrace on every path.
type Runner struct {
	Open       Opener
	Options    Options
	CloseGrace time.Duration
	Logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// Run submits result. Missing credentials fail before a browser is launched.
func (r *Runner) Run(ctx context.Context, result cas.ReflectionResult) (report Report, err error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if r.Options.BaseURL == "" || r.Options.Username == "" || r.Options.Password == "" {
		return Report{State: StateStart}, config.ErrMissingCredentials
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	sess, err := r.Open(ctx)
	if err != nil {
		return Report{State: StateStart}, fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		logger.Info("closing browser", zap.Duration("grace", r.CloseGrace))
		_ = sleep(context.WithoutCancel(ctx), r.CloseGrace)
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("browser close failed", zap.Error(cerr))
		}
	}()

	d := New(sess.Page(), r.Options, logger)
	if r.sleep != nil {
		d.sleep = r.sleep
	}
	return d.Submit(ctx, result)
}
