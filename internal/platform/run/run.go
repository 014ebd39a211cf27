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

// ShutdownTimeout bounds every shutdown hook registered with Graceful.
const ShutdownTimeout = 10 * time.Second

// DrainTimeout bounds how long WithSignals waits for start to return after a
// signal. It leaves room for two hooks run back to back.
const DrainTimeout = 2*ShutdownTimeout + 5*time.Second

type Runner struct {
	Logger *zap.Logger
	// Drain overrides DrainTimeout when positive.
	Drain time.Duration
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log}
}

// WithSignals runs start until it returns, and maps the outcome to a process
// exit code. SIGINT/SIGTERM cancel start's context; start is expected to run its
// shutdown hooks and return. http.ErrServerClosed counts as success.
func (r *Runner) WithSignals(start func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.run(ctx, start)
}

func (r *Runner) run(ctx context.Context, start func(ctx context.Context) error) int {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(ctx)
	}()

	select {
	case err := <-errCh:
		return r.exitCode(err)
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
	}

	drain := r.Drain
	if drain <= 0 {
		drain = DrainTimeout
	}
	t := time.NewTimer(drain)
	defer t.Stop()
	select {
	case err := <-errCh:
		return r.exitCode(err)
	case <-t.C:
		r.Logger.Error("shutdown did not complete in time", zap.Duration("drain", drain))
		return 1
	}
}

func (r *Runner) exitCode(err error) int {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return 0
	}
	r.Logger.Error("service exited with error", zap.Error(err))
	return 1
}

// Graceful calls shutdown with a fresh context limited to ShutdownTimeout.
func (r *Runner) Graceful(name string, shutdown func(context.Context) error) {
	c, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := shutdown(c); err != nil {
		r.Logger.Warn("graceful shutdown failed", zap.String("component", name), zap.Error(err))
	}
}

func Exit(code int) {
	os.Exit(code)
}
