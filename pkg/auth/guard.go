package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/edmunds-dev/edmunds/pkg/session"
)

// Guard authenticates requests.
type Guard interface {
	// Authenticate returns ok=false for guests. Errors are infrastructure
	// failures, not bad credentials.
	Authenticate(r *http.Request) (p Principal, ok bool, err error)
	// Stateless guards answer guests with 401 and Challenge.
	Stateless() bool
	Challenge() string
}

// SessionGuard trusts the user ID stored in the request session.
type SessionGuard struct {
	Users UserProvider
}

func (g SessionGuard) Authenticate(r *http.Request) (Principal, bool, error) {
	sess := session.FromContext(r.Context())
	if sess == nil || !sess.IsAuthenticated() {
		return Principal{}, false, nil
	}

	p, err := g.Users.FindByID(r.Context(), sess.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return Principal{}, false, nil
	}
	if err != nil {
		return Principal{}, false, err
	}
	return p, true, nil
}

func (SessionGuard) Stateless() bool   { return false }
func (SessionGuard) Challenge() string { return "" }

// BasicGuard checks HTTP Basic credentials on every request.
type BasicGuard struct {
	Verifier CredentialVerifier
	Realm    string
}

func (g BasicGuard) Authenticate(r *http.Request) (Principal, bool, error) {
	user, pass, ok := r.BasicAuth()
	if !ok || user == "" || pass == "" {
		return Principal{}, false, nil
	}

	p, err := g.Verifier.Verify(r.Context(), user, pass)
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUserNotFound) {
		return Principal{}, false, nil
	}
	if err != nil {
		return Principal{}, false, err
	}
	return p, true, nil
}

func (BasicGuard) Stateless() bool { return true }

func (g BasicGuard) Challenge() string {
	if g.Realm == "" {
		return "Basic"
	}
	return fmt.Sprintf("Basic realm=%q", g.Realm)
}
