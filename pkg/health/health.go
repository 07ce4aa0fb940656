package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	StatusUp   = "up"
	StatusDown = "down"
)

// Check is a named dependency probe.
type Check struct {
	Fn   func(ctx context.Context) error
	Name string
}

// Report is the readiness result.
type Report struct {
	Checks map[string]Result `json:"checks,omitempty"`
	Status string            `json:"status"`
}

// Result is one probe outcome.
type Result struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Healthy reports whether every probe passed.
func (r Report) Healthy() bool { return r.Status == StatusUp }

// Option configures Run and Readiness.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// WithTimeout bounds every probe. Defaults to 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs failing probes at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Run executes the probes concurrently and collects their results.
func Run(ctx context.Context, checks []Check, opts ...Option) Report {
	cfg := config{timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	report := Report{Status: StatusUp}
	if len(checks) == 0 {
		return report
	}
	report.Checks = make(map[string]Result, len(checks))

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range checks {
		g.Go(func() error {
			start := time.Now()
			err := c.Fn(gctx)
			res := Result{Status: StatusUp, Duration: time.Since(start).String()}
			if err != nil {
				res.Status, res.Error = StatusDown, err.Error()
				if cfg.logger != nil {
					cfg.logger.WarnContext(ctx, "health check failed", slog.String("check", c.Name), slog.Any("error", err))
				}
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[c.Name] = res
			if err != nil {
				report.Status = StatusDown
			}
			// Never fail the group so one slow probe cannot cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	return report
}

// Liveness always answers 200.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		write(w, r, http.StatusOK, Report{Status: StatusUp})
	}
}

// Readiness answers 200 when every probe passes and 503 otherwise.
func Readiness(checks []Check, opts ...Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := Run(r.Context(), checks, opts...)
		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}
		write(w, r, status, report)
	}
}

func write(w http.ResponseWriter, r *http.Request, status int, report Report) {
	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(report.Status))
}
