package edmunds

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edmunds-dev/edmunds/internal"
	"github.com/edmunds-dev/edmunds/middlewares"
	"github.com/edmunds-dev/edmunds/pkg/auth"
	"github.com/edmunds-dev/edmunds/pkg/config"
	"github.com/edmunds-dev/edmunds/pkg/job"
	"github.com/edmunds-dev/edmunds/pkg/logger"
	"github.com/edmunds-dev/edmunds/pkg/routing"
	"github.com/edmunds-dev/edmunds/pkg/session"
)

// Type aliases re-exported from internal.
type (
	App                     = internal.App
	Router                  = internal.Router
	Context                 = internal.Context
	Handler                 = internal.Handler
	HandlerFunc             = internal.HandlerFunc
	Middleware              = internal.Middleware
	ErrorHandler            = internal.ErrorHandler
	Option                  = internal.Option
	RunOption               = internal.RunOption
	HealthOption            = internal.HealthOption
	SessionOption           = internal.SessionOption
	ResponseWriter          = internal.ResponseWriter
	Controller              = internal.Controller
	BaseController          = internal.BaseController
	LoginRequiredController = internal.LoginRequiredController
	Renderer                = internal.Renderer
	RendererFunc            = internal.RendererFunc
	RouteInfo               = internal.RouteInfo
	HTTPError               = internal.HTTPError
	HTTPErrorOption         = internal.HTTPErrorOption
	ContextExtractor        = logger.ContextExtractor
	Session                 = session.Session
	SessionStore            = session.Store
	JobOption               = job.Option
	EnqueueOption           = job.EnqueueOption
	EnqueuerOption          = job.EnqueuerOption
	Params                  = routing.Params
)

// Action handles one controller route. See [Routable].
type Action[C any] = internal.Action[C]

// Routable is a controller that declares its routes.
type Routable[C any] = internal.Routable[C]

// Routes declares the routes of controller C, keyed by position and name.
//
//	func (*Users) Routes() edmunds.Routes[*Users] {
//	    return edmunds.Routes[*Users]{
//	        0: {"edit": {Params: []string{`\d+`}, Handler: (*Users).edit}},
//	    }
//	}
type Routes[C any] = routing.Routes[Action[C]]

// Keys assigned to every dispatched response.
const (
	KeyRoot     = internal.KeyRoot
	KeySiteName = internal.KeySiteName
	KeyLocal    = internal.KeyLocal
	KeyLogin    = internal.KeyLogin
)

// ErrRendererNotConfigured is returned by Context.Render without a renderer.
var ErrRendererNotConfigured = internal.ErrRendererNotConfigured

// New creates an application with the given options.
// Invalid controller declarations panic.
//
//	app := edmunds.New(
//	    edmunds.WithConfig(cfg),
//	    edmunds.WithController("users", NewUsers),
//	    edmunds.WithAuth(guard, cfg.Routing.LoginRoute),
//	)
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// WithConfig applies the routing section, site name, root URL and
// environment of cfg.
func WithConfig(cfg config.Config) Option {
	opts := []Option{
		internal.WithRouting(cfg.Routing),
		internal.WithSiteName(cfg.AppName),
		internal.WithRootURL(cfg.RootURL),
		internal.WithLocal(cfg.IsLocal()),
	}
	return func(a *App) {
		for _, opt := range opts {
			opt(a)
		}
	}
}

// WithRouting sets the controller namespace, the default and home
// controllers and the login route.
func WithRouting(cfg config.Routing) Option {
	return internal.WithRouting(cfg)
}

// WithController registers a controller under path, e.g. "admin/users".
// newFn is called once to read the routes and then once per request.
//
//	edmunds.WithController("admin/users", func() *Users { return &Users{repo: repo} })
func WithController[C Routable[C]](path string, newFn func() C) Option {
	return internal.WithController(path, newFn)
}

// WithDefaultController sets the controller whose Initialize and Finalize
// wrap every dispatched action.
func WithDefaultController[C Controller](newFn func() C) Option {
	return internal.WithDefaultController(newFn)
}

// WithNamedMiddleware registers middleware that routes reference by name.
func WithNamedMiddleware(name string, mw Middleware) Option {
	return internal.WithNamedMiddleware(name, mw)
}

// WithAuth registers the "auth" and "roles" middleware the dispatcher
// attaches to guarded routes. Guests are sent to loginRoute.
//
//	users := auth.NewStaticProvider()
//	edmunds.WithAuth(auth.SessionGuard{Users: users}, "/login")
func WithAuth(guard auth.Guard, loginRoute string) Option {
	authMW := internal.WithNamedMiddleware(routing.MiddlewareAuth, middlewares.Auth(guard, loginRoute))
	rolesMW := internal.WithNamedMiddleware(routing.MiddlewareRoles, middlewares.Roles())
	return func(a *App) {
		authMW(a)
		rolesMW(a)
	}
}

// WithRenderer sets the view renderer. Without one, views fall back to JSON.
func WithRenderer(r Renderer) Option {
	return internal.WithRenderer(r)
}

// WithSiteName sets the value assigned as "__siteName".
func WithSiteName(name string) Option {
	return internal.WithSiteName(name)
}

// WithRootURL sets the value assigned as "__root".
func WithRootURL(url string) Option {
	return internal.WithRootURL(url)
}

// WithLocal marks the app as running locally.
func WithLocal(local bool) Option {
	return internal.WithLocal(local)
}

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
//
//	edmunds.WithMiddleware(
//	    middlewares.RequestID(),
//	    middlewares.Recover(),
//	)
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers with explicit routes.
// Explicit routes take precedence over controller dispatch.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithErrorHandler sets a custom error handler for handler errors.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler replaces the 404 answer for unroutable requests.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithHealthChecks enables health check endpoints.
// Liveness (/health/live) always answers OK while the process runs.
// Readiness (/health/ready) runs all configured checks.
//
//	edmunds.WithHealthChecks(
//	    edmunds.WithReadinessCheck("db", db.Healthcheck(pool)),
//	    edmunds.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger creates a logger from cfg with optional context extractors.
//
//	edmunds.WithLogger(cfg.Logger,
//	    middlewares.RequestIDExtractor(),
//	    middlewares.TransactionExtractor(),
//	)
func WithLogger(cfg logger.Config, extractors ...ContextExtractor) Option {
	return internal.WithLogger(cfg, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithSession enables server-side sessions stored in store.
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithJobs enables job enqueueing and processing.
// Workers start with Run and stop during shutdown.
func WithJobs(pool *pgxpool.Pool, opts ...JobOption) Option {
	return internal.WithJobs(pool, opts...)
}

// WithJobEnqueuer enables job enqueueing without processing.
func WithJobEnqueuer(pool *pgxpool.Pool, opts ...EnqueuerOption) Option {
	return internal.WithJobEnqueuer(pool, opts...)
}

// Health check options

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn func(ctx context.Context) error) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Session options

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

// WithSessionMaxAge sets the session lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

// WithSessionSecure sets the Secure flag of the session cookie.
func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

// WithSessionSameSite sets the SameSite mode of the session cookie.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// Run options

// Address sets the HTTP server address. Defaults to ":8080".
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the runtime logger. Defaults to the app logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown. Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs fn before the server accepts connections.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// LifecycleHook pairs a startup function with its cleanup. stop runs at
// shutdown, or right away when a later startup step fails.
func LifecycleHook(start, stop func(context.Context) error) RunOption {
	return internal.LifecycleHook(start, stop)
}

// ShutdownHook registers a cleanup function run during shutdown.
//
//	app.Run(edmunds.ShutdownHook(db.Shutdown(pool)))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context for signal handling.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Context helpers

// ContextValue retrieves a typed value from the context.
// Returns the zero value of T if the key is missing or of another type.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param converts the i-th validated route parameter to T.
//
//	id, err := edmunds.Param[int64](p, 0)
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](p Params, i int) (T, error) {
	return routing.Param[T](p, i)
}

// Query returns the query parameter converted to T.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns the query parameter converted to T or defaultValue.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}

// HTTP errors

// NewHTTPError creates an HTTPError with the given status code.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// AsHTTPError extracts an HTTPError from err's chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	return internal.AsHTTPError(err)
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnauthorized(message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnprocessable(message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

// WithDetail adds a detail message to an HTTPError.
func WithDetail(detail string) HTTPErrorOption {
	return internal.WithDetail(detail)
}

// WithError wraps the underlying cause.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// WithHeader adds a response header to an HTTPError.
func WithHeader(key, value string) HTTPErrorOption {
	return internal.WithHeader(key, value)
}
