package middlewares

import (
	"context"
	"time"

	"github.com/edmunds-dev/edmunds/internal"
	"github.com/edmunds-dev/edmunds/pkg/analytics"
	"github.com/edmunds-dev/edmunds/pkg/id"
)

// Visitor cookie defaults.
const (
	DefaultVisitorCookie = "__vid"
	defaultVisitorMaxAge = 86400 * 365 * 2
	defaultFlushTimeout  = 5 * time.Second
)

// AnalyticsConfig configures the analytics middleware.
type AnalyticsConfig struct {
	CookieName   string
	CookieMaxAge int
	FlushTimeout time.Duration
}

// AnalyticsOption configures AnalyticsConfig.
type AnalyticsOption func(*AnalyticsConfig)

// WithVisitorCookie sets the visitor cookie name and lifetime in seconds.
func WithVisitorCookie(name string, maxAge int) AnalyticsOption {
	return func(cfg *AnalyticsConfig) {
		if name != "" {
			cfg.CookieName = name
		}
		if maxAge > 0 {
			cfg.CookieMaxAge = maxAge
		}
	}
}

// WithFlushTimeout bounds the hand-off of the request's entries to the sink.
func WithFlushTimeout(d time.Duration) AnalyticsOption {
	return func(cfg *AnalyticsConfig) {
		if d > 0 {
			cfg.FlushTimeout = d
		}
	}
}

// Analytics gives every request a tracker bound to the visitor cookie and
// hands the recorded entries to sink as one batch when the request ends.
// Flush failures are logged, never returned.
//
//	edmunds.WithMiddleware(
//	    middlewares.Analytics(analytics.Queued(app.JobWorker(), cfg.Analytics.MaxAttempts)),
//	)
func Analytics(sink analytics.Sink, opts ...AnalyticsOption) internal.Middleware {
	cfg := &AnalyticsConfig{
		CookieName:   DefaultVisitorCookie,
		CookieMaxAge: defaultVisitorMaxAge,
		FlushTimeout: defaultFlushTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			visitor, err := c.Cookie(cfg.CookieName)
			if err != nil || !id.ValidVisitorID(visitor) {
				visitor = id.NewVisitorID()
				c.SetCookie(cfg.CookieName, visitor, cfg.CookieMaxAge)
			}

			tracker := analytics.NewTracker(sink, visitor)
			if uid := c.UserID(); uid != "" {
				tracker.SetUser(uid)
			}
			c.Set(analytics.TrackerKey(), tracker)

			defer func() {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(c), cfg.FlushTimeout)
				defer cancel()
				n := tracker.Len()
				if ferr := tracker.Flush(ctx); ferr != nil {
					c.LogWarn("analytics flush failed", "error", ferr, "entries", n)
				}
			}()

			return next(c)
		}
	}
}
