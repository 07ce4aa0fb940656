package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/edmunds-dev/edmunds/pkg/analytics"
	"github.com/edmunds-dev/edmunds/pkg/auth"
	"github.com/edmunds-dev/edmunds/pkg/job"
	"github.com/edmunds-dev/edmunds/pkg/routing"
	"github.com/edmunds-dev/edmunds/pkg/session"
)

// Context provides request/response access and helper methods.
// It also implements context.Context by delegating to the underlying request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the underlying http.ResponseWriter.
	Response() http.ResponseWriter

	// ResponseWriter returns the wrapped writer for advanced usage.
	ResponseWriter() *ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Param returns a chi URL parameter, or an empty string.
	Param(name string) string

	// Query returns the query parameter value by name.
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Form returns the form value by name, parsing the body on first access.
	Form(name string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// IsAjax reports whether the request was sent with X-Requested-With.
	IsAjax() bool

	// WantsJSON reports whether the client accepts JSON.
	WantsJSON() bool

	// WantsXML reports whether the client accepts XML.
	WantsXML() bool

	// JSON writes a JSON response with the given status code.
	JSON(code int, v any) error

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects to url. With redirect halt enabled in a local
	// environment it renders a page naming the target instead.
	Redirect(code int, url string) error

	// Render renders a named view through the configured Renderer.
	Render(code int, view string, data map[string]any) error

	// Error creates an HTTPError without writing a response.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Written returns true if a response has already been written.
	Written() bool

	// Logger returns the logger for advanced usage.
	Logger() *slog.Logger

	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	// Later middleware and the handler see it through Get or Value.
	Set(key any, value any)

	// Get retrieves a value from the request context.
	Get(key any) any

	// Cookie returns a plain cookie value.
	Cookie(name string) (string, error)

	// SetCookie sets a plain cookie.
	SetCookie(name, value string, maxAge int)

	// DeleteCookie removes a cookie.
	DeleteCookie(name string)

	// Principal returns the authenticated principal, if any.
	Principal() (auth.Principal, bool)

	// SetPrincipal marks the request as authenticated.
	SetPrincipal(p auth.Principal)

	// UserID returns the principal's ID, falling back to the session user.
	UserID() string

	// IsAuthenticated reports whether a principal or a session user is present.
	IsAuthenticated() bool

	// HasRoles reports whether the principal holds every role.
	HasRoles(roles ...string) bool

	// Session returns the current session. It returns nil, nil when the
	// client has none yet.
	// Returns session.ErrNotConfigured if WithSession was not called.
	Session() (*session.Session, error)

	// InitSession creates a new session and sets its cookie.
	InitSession() error

	// AuthenticateSession attaches userID to the session and rotates the token.
	// Creates a new session if one doesn't exist.
	AuthenticateSession(userID string) error

	// SessionValue returns a session value, or nil if the key is unset.
	// Returns session.ErrNotFound if no session exists.
	SessionValue(key string) (any, error)

	// SetSessionValue stores a value in the session.
	SetSessionValue(key string, val any) error

	// DeleteSessionValue removes a value from the session.
	DeleteSessionValue(key string) error

	// DestroySession removes the session and clears the cookie.
	DestroySession() error

	// Enqueue adds a job to the queue.
	// Returns job.ErrNotConfigured if no queue was configured.
	Enqueue(name string, payload any, opts ...job.EnqueueOption) error

	// EnqueueTx adds a job within tx. It becomes visible on commit.
	EnqueueTx(tx pgx.Tx, name string, payload any, opts ...job.EnqueueOption) error

	// Tracker returns the request's analytics tracker. Without the
	// Analytics middleware entries are discarded.
	Tracker() *analytics.Tracker

	// Output returns the response a dispatched controller action fills in.
	Output() *routing.Response
}

// jobQueue is satisfied by *job.Enqueuer and *job.Manager.
type jobQueue interface {
	job.Queue
	EnqueueTx(ctx context.Context, tx pgx.Tx, name string, payload any, opts ...job.EnqueueOption) error
}

type outputKey struct{}

// requestContext implements the Context interface.
type requestContext struct {
	response       http.ResponseWriter
	request        *http.Request
	responseWriter *ResponseWriter
	logger         *slog.Logger
	sessionManager *SessionManager
	jobs           jobQueue
	renderer       Renderer
	redirectHalt   bool
	secureCookies  bool
}

// newContext creates a context over the shared response wrapper.
func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	rw := NewResponseWriter(w)

	return &requestContext{
		request:        r,
		response:       rw,
		responseWriter: rw,
		logger:         app.logger,
		sessionManager: app.sessionManager,
		jobs:           app.jobs,
		renderer:       app.renderer,
		redirectHalt:   app.redirectHalt && app.local,
		secureCookies:  !app.local,
	}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.response
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.responseWriter
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	v := c.request.URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	return v
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) IsAjax() bool {
	return strings.EqualFold(c.request.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

func (c *requestContext) WantsJSON() bool {
	accept := c.request.Header.Get("Accept")
	return strings.Contains(accept, "/json") || strings.Contains(accept, "+json")
}

func (c *requestContext) WantsXML() bool {
	accept := c.request.Header.Get("Accept")
	return strings.Contains(accept, "/xml") || strings.Contains(accept, "+xml")
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	if c.redirectHalt && !c.IsAjax() {
		c.response.Header().Set("Content-Type", "text/html; charset=utf-8")
		c.response.WriteHeader(http.StatusOK)
		target := html.EscapeString(url)
		_, err := fmt.Fprintf(c.response,
			"<!DOCTYPE html><html><body><p>Redirect (%d) halted.</p><p><a href=\"%s\">%s</a></p></body></html>",
			code, target, target)
		return err
	}
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Render(code int, view string, data map[string]any) error {
	if c.renderer == nil {
		return ErrRendererNotConfigured
	}
	return c.renderer.Render(c, code, view, data)
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Written() bool {
	return c.responseWriter.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.setContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) setContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Cookie(name string) (string, error) {
	ck, err := c.request.Cookie(name)
	if err != nil {
		return "", err
	}
	return ck.Value, nil
}

func (c *requestContext) SetCookie(name, value string, maxAge int) {
	http.SetCookie(c.response, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   c.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *requestContext) DeleteCookie(name string) {
	c.SetCookie(name, "", -1)
}

func (c *requestContext) Principal() (auth.Principal, bool) {
	return auth.FromContext(c.request.Context())
}

func (c *requestContext) SetPrincipal(p auth.Principal) {
	c.setContext(auth.WithPrincipal(c.request.Context(), p))
	analytics.TrackerFrom(c.request.Context()).SetUser(p.ID)
}

func (c *requestContext) UserID() string {
	if p, ok := c.Principal(); ok {
		return p.ID
	}
	if sess := session.FromContext(c.request.Context()); sess != nil {
		return sess.UserID
	}
	return ""
}

func (c *requestContext) IsAuthenticated() bool {
	return c.UserID() != ""
}

func (c *requestContext) HasRoles(roles ...string) bool {
	p, ok := c.Principal()
	return ok && p.HasRoles(roles...)
}

// sessionState returns the per-request session holder installed by the
// session middleware.
func (c *requestContext) sessionState() (*sessionState, error) {
	if c.sessionManager == nil {
		return nil, session.ErrNotConfigured
	}
	state := sessionStateFrom(c.request.Context())
	if state == nil {
		return nil, session.ErrNotConfigured
	}
	return state, nil
}

func (c *requestContext) Session() (*session.Session, error) {
	state, err := c.sessionState()
	if err != nil {
		return nil, err
	}
	return state.sess, nil
}

func (c *requestContext) InitSession() error {
	state, err := c.sessionState()
	if err != nil {
		return err
	}

	sess, err := c.sessionManager.Create(c.Context(), c.request)
	if err != nil {
		return err
	}

	state.sess = sess
	c.setContext(session.WithContext(c.request.Context(), sess))
	c.sessionManager.WriteCookie(c.response, sess)
	return nil
}

func (c *requestContext) AuthenticateSession(userID string) error {
	state, err := c.sessionState()
	if err != nil {
		return err
	}
	if state.sess == nil {
		if err := c.InitSession(); err != nil {
			return err
		}
	}

	sess := state.sess
	sess.Login(userID)

	// Rotate the token to prevent session fixation.
	if err := c.sessionManager.Rotate(c.Context(), sess); err != nil {
		return err
	}

	c.sessionManager.WriteCookie(c.response, sess)
	analytics.TrackerFrom(c.request.Context()).SetUser(userID)
	return nil
}

func (c *requestContext) SessionValue(key string) (any, error) {
	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, session.ErrNotFound
	}

	val, ok := sess.Get(key)
	if !ok {
		return nil, nil
	}
	return val, nil
}

func (c *requestContext) SetSessionValue(key string, val any) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	if sess == nil {
		return session.ErrNotFound
	}

	sess.Set(key, val)
	return nil
}

func (c *requestContext) DeleteSessionValue(key string) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	if sess == nil {
		return session.ErrNotFound
	}

	sess.Delete(key)
	return nil
}

func (c *requestContext) DestroySession() error {
	state, err := c.sessionState()
	if err != nil {
		return err
	}

	if err := c.sessionManager.Destroy(c.Context(), state.sess); err != nil {
		return err
	}
	c.sessionManager.ClearCookie(c.response)

	state.sess = nil
	c.setContext(session.WithContext(c.request.Context(), nil))
	return nil
}

func (c *requestContext) Enqueue(name string, payload any, opts ...job.EnqueueOption) error {
	if c.jobs == nil {
		return job.ErrNotConfigured
	}
	return c.jobs.Enqueue(c.Context(), name, payload, opts...)
}

func (c *requestContext) EnqueueTx(tx pgx.Tx, name string, payload any, opts ...job.EnqueueOption) error {
	if c.jobs == nil {
		return job.ErrNotConfigured
	}
	return c.jobs.EnqueueTx(c.Context(), tx, name, payload, opts...)
}

func (c *requestContext) Tracker() *analytics.Tracker {
	return analytics.TrackerFrom(c.request.Context())
}

func (c *requestContext) Output() *routing.Response {
	if resp, ok := c.request.Context().Value(outputKey{}).(*routing.Response); ok {
		return resp
	}
	resp := routing.NewResponse()
	c.Set(outputKey{}, resp)
	return resp
}
