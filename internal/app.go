package internal

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edmunds-dev/edmunds/pkg/config"
	"github.com/edmunds-dev/edmunds/pkg/health"
	"github.com/edmunds-dev/edmunds/pkg/job"
	"github.com/edmunds-dev/edmunds/pkg/logger"
	"github.com/edmunds-dev/edmunds/pkg/routing"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// App serves explicit handlers and dispatches everything else onto
// registered controllers. It is immutable after New returns.
type App struct {
	router            chi.Router
	errorHandler      ErrorHandler
	notFoundHandler   HandlerFunc
	logger            *slog.Logger
	sessionManager    *SessionManager
	jobs              jobQueue
	worker            *job.Manager
	renderer          Renderer
	dispatcher        *routing.Dispatcher[actionFunc, *controllerEntry]
	defaultController func() Controller
	namedMiddleware   map[string]Middleware
	health            *healthConfig
	routing           config.Routing
	siteName          string
	rootURL           string
	middlewares       []Middleware
	handlers          []Handler
	controllers       []controllerRegistration
	entries           []*controllerEntry
	redirectHalt      bool
	local             bool
}

type controllerRegistration struct {
	build func() (*controllerEntry, error)
	path  string
}

type healthConfig struct {
	checks        []health.Check
	livenessPath  string
	readinessPath string
}

// New creates an application. Invalid controller declarations, duplicate
// controller paths and routes naming unknown middleware panic.
//
//	app := edmunds.New(
//	    edmunds.WithRouting(cfg.Routing),
//	    edmunds.WithController("admin/users", NewUsers),
//	    edmunds.WithAuth(guard, cfg.Routing.LoginRoute),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:          chi.NewRouter(),
		logger:          logger.NewNope(),
		namedMiddleware: make(map[string]Middleware),
		routing: config.Routing{
			Namespace:         "App",
			DefaultController: "Default",
			HomeController:    "Home",
			LoginRoute:        "/login",
		},
	}

	for _, opt := range opts {
		opt(a)
	}

	if err := a.buildDispatcher(); err != nil {
		panic(err)
	}

	a.setupRoutes()
	return a
}

// ServeHTTP makes App an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Router returns the underlying chi.Router.
func (a *App) Router() chi.Router {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// JobWorker returns the job manager if WithJobs was used, nil otherwise.
func (a *App) JobWorker() *job.Manager {
	return a.worker
}

// RouteInfo describes one controller route for listings.
type RouteInfo struct {
	Controller string
	Name       string
	Path       string
	Verbs      []string
	Params     []string
	Middleware []string
	Position   int
}

// Routes lists every controller route ordered by controller and position.
func (a *App) Routes() []RouteInfo {
	var out []RouteInfo
	for _, entry := range a.entries {
		for _, r := range entry.table.Routes() {
			verbs := make([]string, 0, len(r.Verbs()))
			for _, v := range r.Verbs() {
				verbs = append(verbs, v.String())
			}
			mw := r.Middleware()
			for _, name := range routing.Gate(r.Roles(), entry.login) {
				if !slices.Contains(mw, name) {
					mw = append(mw, name)
				}
			}
			out = append(out, RouteInfo{
				Controller: entry.path,
				Name:       r.Key(),
				Path:       routePath(entry.path, r),
				Verbs:      verbs,
				Params:     r.Params(),
				Middleware: mw,
				Position:   r.Position(),
			})
		}
	}
	return out
}

// buildDispatcher registers the controllers and checks that every
// middleware a route can ask for exists.
func (a *App) buildDispatcher() error {
	reg := routing.NewRegistry[*controllerEntry](routing.Config{
		Namespace: a.routing.Namespace,
		Default:   a.routing.DefaultController,
		Home:      a.routing.HomeController,
	})

	for _, cr := range a.controllers {
		entry, err := cr.build()
		if err != nil {
			return err
		}
		if err := reg.Register(cr.path, entry); err != nil {
			return err
		}
		a.entries = append(a.entries, entry)
		for _, r := range entry.table.Routes() {
			names := append(r.Middleware(), routing.Gate(r.Roles(), entry.login)...)
			for _, name := range names {
				if _, ok := a.namedMiddleware[name]; !ok {
					return fmt.Errorf("controller %q route %q: middleware %q is not registered", cr.path, r.Key(), name)
				}
			}
		}
	}

	slices.SortFunc(a.entries, func(x, y *controllerEntry) int {
		return strings.Compare(x.path, y.path)
	})
	a.dispatcher = routing.NewDispatcher[actionFunc](reg)
	return nil
}

func (a *App) setupRoutes() {
	if a.sessionManager != nil {
		a.router.Use(a.sessionMiddleware)
	}

	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}

	if a.health != nil {
		opts := []health.Option{health.WithLogger(a.logger)}
		a.router.Get(a.health.livenessPath, health.Liveness())
		a.router.Get(a.health.readinessPath, health.Readiness(a.health.checks, opts...))
	}

	r := &routerAdapter{router: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}

	// Anything no explicit handler claimed goes to the controllers.
	a.router.HandleFunc("/*", a.dispatchHTTP)
	a.router.NotFound(a.dispatchHTTP)
	a.router.MethodNotAllowed(a.dispatchHTTP)
}

// sessionMiddleware wraps the writer and loads the request session.
func (a *App) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := NewResponseWriter(w)
		next.ServeHTTP(rw, a.sessionManager.attach(r, rw, a.logger))
	})
}

// wrapHandler converts a HandlerFunc to http.HandlerFunc using the app's error handler.
func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// handleError renders err unless a response was already written.
func (a *App) handleError(c Context, err error) {
	if c.Written() {
		a.logger.WarnContext(c, "error after response was written", slog.Any("error", err))
		return
	}
	if a.errorHandler != nil {
		if herr := a.errorHandler(c, err); herr != nil {
			a.logger.ErrorContext(c, "error handler failed", slog.Any("error", herr))
		}
		return
	}
	_ = defaultErrorHandler(c, err)
}

// defaultErrorHandler answers HTTPErrors with their status and hides
// everything else behind a 500.
func defaultErrorHandler(c Context, err error) error {
	he, ok := AsHTTPError(err)
	if !ok {
		c.LogError("request failed", slog.Any("error", err))
		he = ErrInternal("")
	}
	for k, vs := range he.Header {
		for _, v := range vs {
			c.Response().Header().Add(k, v)
		}
	}
	if c.IsAjax() || c.WantsJSON() {
		return c.JSON(he.Code, map[string]any{"error": he.Message, "code": he.Code})
	}
	return c.String(he.Code, he.Message)
}

// routePath renders a route as a URL pattern, e.g. /admin/users/edit/{\d+}.
func routePath(controller string, r *routing.Route[actionFunc]) string {
	path := "/" + controller
	for range r.Position() {
		path += "/{?}"
	}
	switch r.Key() {
	case routing.IndexRoute, routing.RootRoute:
	default:
		path += "/" + r.Key()
	}
	for _, p := range r.Params() {
		path += "/{" + p + "}"
	}
	return path
}
