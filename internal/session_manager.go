package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/edmunds-dev/edmunds/pkg/id"
	"github.com/edmunds-dev/edmunds/pkg/session"
)

const (
	defaultSessionCookieName = "__sid"
	defaultSessionMaxAge     = 86400 * 30
)

// SessionManager moves sessions between the store and the session cookie.
type SessionManager struct {
	store      session.Store
	cookieName string
	domain     string
	path       string
	maxAge     int
	sameSite   http.SameSite
	secure     bool
	httpOnly   bool
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:      store,
		cookieName: defaultSessionCookieName,
		maxAge:     defaultSessionMaxAge,
		path:       "/",
		httpOnly:   true,
		sameSite:   http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSessionMaxAge sets the lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return func(sm *SessionManager) {
		if seconds > 0 {
			sm.maxAge = seconds
		}
	}
}

func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) { sm.domain = domain }
}

func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) { sm.secure = secure }
}

func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) { sm.sameSite = sameSite }
}

// Load returns the session named by the request cookie.
// It returns nil, nil when there is no usable session.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	sess, err := sm.store.Get(ctx, cookie.Value)
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		return nil, nil
	}
	return sess, err
}

// Create starts a new anonymous session and stores it.
func (sm *SessionManager) Create(ctx context.Context, r *http.Request) (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	sess := session.New(id.NewULID(), token, time.Now().Add(time.Duration(sm.maxAge)*time.Second))
	sess.IP = remoteIP(r)
	sess.UserAgent = r.UserAgent()

	if err := sm.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	sess.ClearNew()
	sess.ClearDirty()
	return sess, nil
}

// Save persists sess when it changed.
func (sm *SessionManager) Save(ctx context.Context, sess *session.Session) error {
	if sess == nil || !sess.IsDirty() {
		return nil
	}
	sess.LastActiveAt = time.Now()
	if err := sm.store.Save(ctx, sess); err != nil {
		return err
	}
	sess.ClearDirty()
	return nil
}

// Rotate replaces the token, dropping the old one from the store.
// Call it whenever the session's user changes.
func (sm *SessionManager) Rotate(ctx context.Context, sess *session.Session) error {
	old := sess.Token
	token, err := generateToken()
	if err != nil {
		return err
	}
	sess.Token = token
	sess.MarkDirty()
	if err := sm.Save(ctx, sess); err != nil {
		sess.Token = old
		return err
	}
	return sm.store.Delete(ctx, old)
}

// Destroy removes sess from the store.
func (sm *SessionManager) Destroy(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	return sm.store.Delete(ctx, sess.Token)
}

// WriteCookie sets the session cookie.
func (sm *SessionManager) WriteCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, sm.cookie(sess.Token, sm.maxAge))
}

// ClearCookie expires the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, sm.cookie("", -1))
}

func (sm *SessionManager) Store() session.Store { return sm.store }

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     sm.path,
		Domain:   sm.domain,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: sm.sameSite,
	}
}

// sessionState is shared by every Context of one request.
type sessionState struct {
	manager *SessionManager
	sess    *session.Session
}

type sessionStateKey struct{}

// attachSession loads the request session and arranges for it to be saved
// before the response header goes out.
func (sm *SessionManager) attach(r *http.Request, w *ResponseWriter, log *slog.Logger) *http.Request {
	state := &sessionState{manager: sm}

	sess, err := sm.Load(r.Context(), r)
	if err != nil {
		log.WarnContext(r.Context(), "failed to load session", slog.Any("error", err))
	}
	state.sess = sess

	ctx := context.WithValue(r.Context(), sessionStateKey{}, state)
	if sess != nil {
		ctx = session.WithContext(ctx, sess)
	}

	w.OnBeforeWrite(func() {
		if err := sm.Save(ctx, state.sess); err != nil {
			log.ErrorContext(ctx, "failed to save session", slog.Any("error", err))
		}
	})
	return r.WithContext(ctx)
}

func sessionStateFrom(ctx context.Context) *sessionState {
	s, _ := ctx.Value(sessionStateKey{}).(*sessionState)
	return s
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
