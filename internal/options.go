package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edmunds-dev/edmunds/pkg/config"
	"github.com/edmunds-dev/edmunds/pkg/health"
	"github.com/edmunds-dev/edmunds/pkg/job"
	"github.com/edmunds-dev/edmunds/pkg/logger"
	"github.com/edmunds-dev/edmunds/pkg/session"
)

// Option configures the application.
type Option func(*App)

// WithRouting sets the controller namespace, the default and home
// controllers and the login route. Empty fields keep their defaults.
func WithRouting(cfg config.Routing) Option {
	return func(a *App) {
		if cfg.Namespace != "" {
			a.routing.Namespace = cfg.Namespace
		}
		if cfg.DefaultController != "" {
			a.routing.DefaultController = cfg.DefaultController
		}
		if cfg.HomeController != "" {
			a.routing.HomeController = cfg.HomeController
		}
		if cfg.LoginRoute != "" {
			a.routing.LoginRoute = cfg.LoginRoute
		}
		a.routing.RedirectHalt = cfg.RedirectHalt
		a.redirectHalt = cfg.RedirectHalt
	}
}

// WithController registers a controller under path, e.g. "admin/users".
// newFn is called once to read the routes and then once per request.
//
//	edmunds.WithController("admin/users", func() *Users { return &Users{repo: repo} })
func WithController[C Routable[C]](path string, newFn func() C) Option {
	return func(a *App) {
		a.controllers = append(a.controllers, controllerRegistration{
			path: path,
			build: func() (*controllerEntry, error) {
				return newControllerEntry(path, newFn)
			},
		})
	}
}

// WithDefaultController sets the controller whose lifecycle wraps every
// dispatched action. It is never routed to.
func WithDefaultController[C Controller](newFn func() C) Option {
	return func(a *App) {
		if newFn == nil {
			a.defaultController = nil
			return
		}
		a.defaultController = func() Controller { return newFn() }
	}
}

// WithNamedMiddleware registers middleware that routes reference by name.
// The gate looks up "auth" and "roles".
func WithNamedMiddleware(name string, mw Middleware) Option {
	return func(a *App) {
		if name != "" && mw != nil {
			a.namedMiddleware[name] = mw
		}
	}
}

// WithRenderer sets the view renderer used for responses that select a view.
// Without one, views fall back to JSON.
func WithRenderer(r Renderer) Option {
	return func(a *App) {
		a.renderer = r
	}
}

// WithSiteName sets the value assigned as "__siteName".
func WithSiteName(name string) Option {
	return func(a *App) {
		a.siteName = name
	}
}

// WithRootURL sets the value assigned as "__root". Defaults to the
// request's scheme and host.
func WithRootURL(url string) Option {
	return func(a *App) {
		a.rootURL = url
	}
}

// WithLocal marks the app as running in a local environment. Redirect
// halt only takes effect locally, and cookies drop the Secure flag.
func WithLocal(local bool) Option {
	return func(a *App) {
		a.local = local
	}
}

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers handlers with explicit routes. They take
// precedence over controller dispatch.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithErrorHandler sets a custom error handler for handler errors.
//
//	edmunds.WithErrorHandler(func(c edmunds.Context, err error) error {
//	    return c.JSON(http.StatusInternalServerError, map[string]string{
//	        "error": err.Error(),
//	    })
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFoundHandler replaces the 404 answer for unroutable requests.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
//
//	edmunds.WithReadinessCheck("db", db.Healthcheck(pool))
func WithReadinessCheck(name string, fn func(ctx context.Context) error) HealthOption {
	return func(c *healthConfig) {
		c.checks = append(c.checks, health.Check{Name: name, Fn: fn})
	}
}

// WithHealthChecks enables the liveness and readiness endpoints.
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.health = cfg
	}
}

// WithLogger creates a logger from cfg with optional context extractors.
//
//	edmunds.New(
//	    edmunds.WithLogger(cfg.Logger, middlewares.RequestIDExtractor()),
//	)
func WithLogger(cfg logger.Config, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(cfg, extractors...)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSession enables server-side sessions stored in store.
// Sessions are saved automatically before the response is written.
//
//	edmunds.New(
//	    edmunds.WithSession(session.NewCacheStore(cache.NewRedis[*session.Session](client)),
//	        edmunds.WithSessionSecure(true),
//	    ),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.sessionManager = NewSessionManager(store, opts...)
	}
}

// WithJobs enables job enqueueing and processing using River.
// Workers start with App.Run and stop during shutdown.
//
//	edmunds.New(
//	    edmunds.WithJobs(pool,
//	        job.WithTask[analytics.Batch](analytics.NewFlushTask(wh)),
//	        job.WithQueue(analytics.QueueName, 5),
//	    ),
//	)
func WithJobs(pool *pgxpool.Pool, opts ...job.Option) Option {
	return func(a *App) {
		m, err := job.NewManager(pool, opts...)
		if err != nil {
			panic(fmt.Sprintf("job manager: %v", err))
		}
		a.jobs = m
		a.worker = m
	}
}

// WithJobEnqueuer enables job enqueueing for web processes whose jobs are
// worked elsewhere.
func WithJobEnqueuer(pool *pgxpool.Pool, opts ...job.EnqueuerOption) Option {
	return func(a *App) {
		e, err := job.NewEnqueuer(pool, opts...)
		if err != nil {
			panic(fmt.Sprintf("job enqueuer: %v", err))
		}
		a.jobs = e
	}
}
