package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"
)

// RunOption configures the server runtime.
type RunOption func(*runConfig)

type runConfig struct {
	baseCtx         context.Context
	logger          *slog.Logger
	address         string
	startupHooks    []startupHook
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

// Address sets the HTTP server address. Defaults to ":8080".
func Address(addr string) RunOption {
	return func(c *runConfig) {
		if addr != "" {
			c.address = addr
		}
	}
}

// Logger sets the runtime logger. Defaults to the app logger.
func Logger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// ShutdownTimeout bounds the graceful shutdown of the server and the
// shutdown hooks. Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// startupHook is a start function with an optional matching stop.
type startupHook struct {
	start func(context.Context) error
	stop  func(context.Context) error
}

// StartupHook runs fn before the server accepts connections.
// A failing hook aborts Run.
func StartupHook(fn func(context.Context) error) RunOption {
	return LifecycleHook(fn, nil)
}

// LifecycleHook runs start with the startup hooks and stop during shutdown,
// before the shutdown hooks. stop also runs when a later startup hook or the
// listener fails, so a started resource is always released.
func LifecycleHook(start, stop func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if start != nil {
			c.startupHooks = append(c.startupHooks, startupHook{start: start, stop: stop})
		}
	}
}

// ShutdownHook registers a cleanup function run after the server stopped,
// in registration order.
//
//	edmunds.ShutdownHook(db.Shutdown(pool))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.shutdownHooks = append(c.shutdownHooks, fn)
		}
	}
}

// WithContext sets the base context for signal handling. Cancelling it
// shuts the server down.
func WithContext(ctx context.Context) RunOption {
	return func(c *runConfig) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}

// Run starts the HTTP server and blocks until SIGINT, SIGTERM or the base
// context ends. A configured job worker starts before serving and stops
// during shutdown.
func (a *App) Run(opts ...RunOption) error {
	cfg := &runConfig{
		address:         ":8080",
		shutdownTimeout: defaultShutdownTimeout,
		logger:          a.logger,
		baseCtx:         context.Background(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if a.worker != nil {
		worker := startupHook{start: a.worker.StartFunc(), stop: a.worker.Shutdown()}
		cfg.startupHooks = append([]startupHook{worker}, cfg.startupHooks...)
	}

	return runServer(a, cfg)
}

func runServer(h http.Handler, cfg *runConfig) error {
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	server := &http.Server{
		Addr:              cfg.address,
		Handler:           h,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	ctx, cancel := signal.NotifyContext(cfg.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var started []func(context.Context) error
	for _, hook := range cfg.startupHooks {
		if err := hook.start(ctx); err != nil {
			err = fmt.Errorf("startup hook: %w", err)
			return errors.Join(append([]error{err}, stopAll(log, started, cfg.shutdownTimeout)...)...)
		}
		if hook.stop != nil {
			started = append(started, hook.stop)
		}
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return errors.Join(append([]error{err}, stopAll(log, started, cfg.shutdownTimeout)...)...)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer shutdownCancel()

	errs := []error{serveErr}
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, runHooks(shutdownCtx, log, reversed(started))...)
	errs = append(errs, runHooks(shutdownCtx, log, cfg.shutdownHooks)...)

	if err := errors.Join(errs...); err != nil {
		log.Error("shutdown completed with errors")
		return err
	}
	log.Info("shutdown completed")
	return nil
}

// stopAll releases what the startup hooks already started, newest first.
func stopAll(log *slog.Logger, started []func(context.Context) error, timeout time.Duration) []error {
	if len(started) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return runHooks(ctx, log, reversed(started))
}

func runHooks(ctx context.Context, log *slog.Logger, hooks []func(context.Context) error) []error {
	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}
	return errs
}

func reversed(hooks []func(context.Context) error) []func(context.Context) error {
	out := slices.Clone(hooks)
	slices.Reverse(out)
	return out
}
