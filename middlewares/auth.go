package middlewares

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/edmunds-dev/edmunds/internal"
	"github.com/edmunds-dev/edmunds/pkg/auth"
	"github.com/edmunds-dev/edmunds/pkg/routing"
	"github.com/edmunds-dev/edmunds/pkg/session"
)

// IntendedURLKey is the session key holding the URL a guest requested
// before being sent to the login route.
const IntendedURLKey = "__intended"

// Auth requires an authenticated principal.
//
// A principal already on the request is kept. Otherwise guard decides:
// guests get 401 with the guard's challenge when the guard is stateless,
// 403 when the client asked for JSON, XML or sent an ajax request, and a
// redirect to loginRoute in every other case. Before that redirect, GET
// requests remember their URL in the session under IntendedURLKey.
func Auth(guard auth.Guard, loginRoute string) internal.Middleware {
	if loginRoute == "" {
		loginRoute = "/login"
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if _, ok := c.Principal(); ok {
				return next(c)
			}

			p, ok, err := guard.Authenticate(c.Request())
			if err != nil {
				return internal.ErrInternal("", internal.WithError(fmt.Errorf("middlewares: authenticate: %w", err)))
			}
			if ok {
				c.SetPrincipal(p)
				return next(c)
			}

			switch {
			case guard.Stateless():
				return internal.ErrUnauthorized("", internal.WithHeader("WWW-Authenticate", guard.Challenge()))
			case c.IsAjax() || c.WantsJSON() || c.WantsXML():
				return internal.ErrForbidden("")
			}

			rememberIntendedURL(c)
			return c.Redirect(http.StatusFound, loginRoute)
		}
	}
}

// Roles requires the principal to hold every role of the dispatched route.
// Routes without roles pass.
func Roles() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			required := routing.RequiredRoles(c)
			if len(required) > 0 && !c.HasRoles(required...) {
				return internal.ErrForbidden("")
			}
			return next(c)
		}
	}
}

// IntendedURL returns and forgets the URL remembered by Auth.
// It returns fallback when there is none.
func IntendedURL(c internal.Context, fallback string) string {
	v, err := c.SessionValue(IntendedURLKey)
	if err != nil {
		return fallback
	}
	url, ok := v.(string)
	if !ok || url == "" {
		return fallback
	}
	if err := c.DeleteSessionValue(IntendedURLKey); err != nil {
		c.LogWarn("failed to forget intended url", "error", err)
	}
	return url
}

func rememberIntendedURL(c internal.Context) {
	if c.Request().Method != http.MethodGet {
		return
	}

	sess, err := c.Session()
	if errors.Is(err, session.ErrNotConfigured) {
		return
	}
	if err == nil && sess == nil {
		err = c.InitSession()
	}
	if err == nil {
		err = c.SetSessionValue(IntendedURLKey, c.Request().URL.RequestURI())
	}
	if err != nil {
		c.LogWarn("failed to remember intended url", "error", err)
	}
}
