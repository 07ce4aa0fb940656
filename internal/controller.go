package internal

import (
	"fmt"

	"github.com/edmunds-dev/edmunds/pkg/routing"
)

// Controller is implemented by every routed controller. Embed BaseController
// or LoginRequiredController to get the no-op lifecycle.
type Controller interface {
	// Initialize runs before the action. An error skips the action.
	Initialize(c Context) error
	// Finalize runs after the action, even when it failed.
	Finalize(c Context) error
	// LoginRequired makes every route of the controller require auth.
	LoginRequired() bool
}

// Action handles one route. p holds the validated parameters in order.
// Returning a bool records it as "success" in the response values.
type Action[C any] func(ctrl C, c Context, p routing.Params) (any, error)

// Routable is a controller that declares its routes.
//
//	type Users struct{ edmunds.LoginRequiredController }
//
//	func (*Users) Routes() routing.Routes[edmunds.Action[*Users]] {
//	    return routing.Routes[edmunds.Action[*Users]]{
//	        0: {
//	            "index": {Handler: (*Users).list},
//	            "edit":  {Params: []string{`\d+`}, Roles: []string{"admin"}, Handler: (*Users).edit},
//	        },
//	    }
//	}
type Routable[C any] interface {
	Controller
	Routes() routing.Routes[Action[C]]
}

// BaseController provides a no-op lifecycle.
type BaseController struct{}

func (BaseController) Initialize(Context) error { return nil }
func (BaseController) Finalize(Context) error   { return nil }
func (BaseController) LoginRequired() bool      { return false }

// LoginRequiredController guards every route behind the auth middleware.
type LoginRequiredController struct {
	BaseController
}

func (LoginRequiredController) LoginRequired() bool { return true }

// actionFunc is an Action with the controller type erased.
type actionFunc func(ctrl Controller, c Context, p routing.Params) (any, error)

// controllerEntry is what the registry stores per controller path.
type controllerEntry struct {
	table *routing.Table[actionFunc]
	new   func() Controller
	path  string
	login bool
}

func (e *controllerEntry) Table() *routing.Table[actionFunc] { return e.table }
func (e *controllerEntry) LoginRequired() bool               { return e.login }

var _ routing.Entry[actionFunc] = (*controllerEntry)(nil)

// newControllerEntry compiles the routes of a prototype controller.
// Every request gets a fresh controller from newFn.
func newControllerEntry[C Routable[C]](path string, newFn func() C) (*controllerEntry, error) {
	if newFn == nil {
		return nil, fmt.Errorf("controller %q: nil constructor", path)
	}
	proto := newFn()

	var missing []string
	routes := routing.MapHandlers(proto.Routes(), func(a Action[C]) actionFunc {
		if a == nil {
			missing = append(missing, path)
			return nil
		}
		return func(ctrl Controller, c Context, p routing.Params) (any, error) {
			return a(ctrl.(C), c, p)
		}
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: controller %q declares a route without handler", routing.ErrInvalidRoute, path)
	}

	table, err := routing.Compile(routes)
	if err != nil {
		return nil, fmt.Errorf("controller %q: %w", path, err)
	}

	return &controllerEntry{
		table: table,
		new:   func() Controller { return newFn() },
		path:  path,
		login: proto.LoginRequired(),
	}, nil
}
