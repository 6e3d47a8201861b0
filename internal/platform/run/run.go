package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type Runner struct {
	Logger *zap.Logger
	// Grace bounds how long start may keep running after a shutdown signal.
	Grace time.Duration
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log, Grace: 10 * time.Second}
}

// WithSignals runs start with a context cancelled on SIGINT/SIGTERM and
// returns a process exit code. After a signal start is given Grace to
// return so partial work can be handed off.
func (r *Runner) WithSignals(start func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.wait(ctx, start)
}

func (r *Runner) wait(ctx context.Context, start func(ctx context.Context) error) int {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(ctx)
	}()

	select {
	case err := <-errCh:
		return r.code(err)
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
	}

	grace := r.Grace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case err := <-errCh:
		return r.code(err)
	case <-t.C:
		r.Logger.Warn("shutdown grace period elapsed", zap.Duration("grace", grace))
		return 1
	}
}

func (r *Runner) code(err error) int {
	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return 0
	}
	r.Logger.Error("service exited with error", zap.Error(err))
	return 1
}

func Exit(code int) {
	os.Exit(code)
}
