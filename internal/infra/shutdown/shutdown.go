package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// Hook is a cleanup step.
type Hook func(context.Context) error

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	signals []os.Signal
	log     logger.Logger

	mu    sync.Mutex
	hooks []Hook
	once  sync.Once
	done  chan struct{}
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithSignals replaces the signals that trigger shutdown. No signals
// means only the context ends the wait.
func WithSignals(sigs ...os.Signal) Option {
	return func(h *Handler) {
		h.signals = sigs
	}
}

// NewHandler creates a handler whose hooks share timeout.
func NewHandler(timeout time.Duration, opts ...Option) *Handler {
	h := &Handler{
		timeout: timeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		log:     logger.Nop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnShutdown registers a hook. Hooks run in reverse order of registration.
func (h *Handler) OnShutdown(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Wait blocks until a signal arrives or ctx ends, then runs the hooks.
// It returns the joined hook errors.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	if len(h.signals) > 0 {
		signal.Notify(sigCh, h.signals...)
		defer signal.Stop(sigCh)
	}

	select {
	case sig := <-sigCh:
		h.log.Debug("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		h.log.Debug("shutdown requested", "cause", context.Cause(ctx))
	}

	return h.Shutdown()
}

// Shutdown runs the hooks once. Later calls return nil.
func (h *Handler) Shutdown() error {
	var err error
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := append([]Hook(nil), h.hooks...)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if e := hooks[i](ctx); e != nil {
				errs = append(errs, e)
			}
		}
		err = errors.Join(errs...)
		close(h.done)
	})
	return err
}

// Done is closed once the hooks have run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
