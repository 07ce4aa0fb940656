package routing

import (
	"fmt"
	"slices"
)

// Entry is what a Dispatcher needs to know about a registered controller.
type Entry[H any] interface {
	Table() *Table[H]
	LoginRequired() bool
}

// Resolution is the outcome of dispatching one request.
// It is built fresh per request and never shared.
type Resolution[H any, V Entry[H]] struct {
	Controller   V
	Route        *Route[H]
	ControllerID string
	Path         string
	Verb         Verb
	Params       Params
	Middleware   []string
}

// Transaction names the request for logs and tracing, e.g. "Admin/Users@getEdit".
func (r *Resolution[H, V]) Transaction() string {
	return r.Path + "@" + r.Route.Name(r.Verb)
}

// Dispatcher resolves requests against a controller registry.
type Dispatcher[H any, V Entry[H]] struct {
	registry *Registry[V]
}

// NewDispatcher creates a dispatcher over reg.
func NewDispatcher[H any, V Entry[H]](reg *Registry[V]) *Dispatcher[H, V] {
	return &Dispatcher[H, V]{registry: reg}
}

// Dispatch resolves method and path into a Resolution.
// Every failure to match wraps ErrRouteNotFound.
func (d *Dispatcher[H, V]) Dispatch(method, path string) (*Resolution[H, V], error) {
	req, err := NewRequest(method, path)
	if err != nil {
		return nil, err
	}
	return d.Resolve(req)
}

// Resolve runs controller, route and parameter resolution for req.
func (d *Dispatcher[H, V]) Resolve(req Request) (*Resolution[H, V], error) {
	m, err := d.registry.Resolve(req.Segments)
	if err != nil {
		return nil, err
	}

	route, params, err := m.Controller.Table().Match(req.Verb, m.Remaining)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no %s route for %d segment(s)", ErrRouteNotFound, m.Path, req.Verb, len(m.Remaining))
	}
	if !route.Validate(params) {
		return nil, fmt.Errorf("%w: %s@%s: invalid parameters", ErrRouteNotFound, m.Path, route.Name(req.Verb))
	}

	return &Resolution[H, V]{
		Controller:   m.Controller,
		Route:        route,
		ControllerID: m.ID,
		Path:         m.Path,
		Verb:         req.Verb,
		Params:       Params(slices.Clone(params)),
		Middleware:   middlewareFor(route, m.Controller.LoginRequired()),
	}, nil
}

// Registry returns the underlying controller registry.
func (d *Dispatcher[H, V]) Registry() *Registry[V] {
	return d.registry
}
