package routing

import "slices"

// Names of the middleware Gate attaches.
const (
	MiddlewareAuth  = "auth"
	MiddlewareRoles = "roles"
)

// Gate returns the auth middleware a route needs.
// Routes requiring roles get auth followed by roles. Otherwise a controller
// that requires login gets auth alone. Everything else gets nothing.
func Gate(roles []string, loginRequired bool) []string {
	switch {
	case len(roles) > 0:
		return []string{MiddlewareAuth, MiddlewareRoles}
	case loginRequired:
		return []string{MiddlewareAuth}
	default:
		return nil
	}
}

// middlewareFor lists route-declared middleware first, then the gate.
func middlewareFor[H any](route *Route[H], loginRequired bool) []string {
	out := route.Middleware()
	for _, name := range Gate(route.roles, loginRequired) {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
