package routing

import "errors"

var (
	// ErrRouteNotFound is returned when no controller, route, verb or
	// parameter set matches the request. It is ordinary control flow and
	// maps to HTTP 404.
	ErrRouteNotFound = errors.New("routing: route not found")

	// ErrInvalidRoute is returned by Compile for malformed declarations.
	ErrInvalidRoute = errors.New("routing: invalid route declaration")

	// ErrInvalidController is returned by Register for controller paths that
	// can never be resolved.
	ErrInvalidController = errors.New("routing: invalid controller path")

	// ErrDuplicateController is returned when two controllers share a path.
	ErrDuplicateController = errors.New("routing: duplicate controller")

	// ErrReservedController is returned when a routed controller is
	// registered under the default controller's path.
	ErrReservedController = errors.New("routing: reserved controller path")
)
