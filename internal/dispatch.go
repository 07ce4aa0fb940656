package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/edmunds-dev/edmunds/pkg/routing"
)

type resolution = routing.Resolution[actionFunc, *controllerEntry]

// Keys assigned to every dispatched response before the action runs.
const (
	KeyRoot     = "__root"
	KeySiteName = "__siteName"
	KeyLocal    = "__local"
	KeyLogin    = "__login"
)

// dispatchHTTP resolves the request onto a controller route, attaches the
// route's middleware and runs the action.
func (a *App) dispatchHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := a.dispatcher.Dispatch(r.Method, r.URL.Path)
	if err != nil {
		c := newContext(w, r, a)
		c.LogDebug("no controller route", slog.String("path", r.URL.Path), slog.Any("error", err))
		a.handleNotFound(c, err)
		return
	}

	ctx := routing.WithTransaction(r.Context(), res.Transaction())
	ctx = routing.WithRequiredRoles(ctx, res.Route.Roles())
	ctx = context.WithValue(ctx, outputKey{}, routing.NewResponse())
	r = r.WithContext(ctx)

	mw := make([]Middleware, len(res.Middleware))
	for i, name := range res.Middleware {
		mw[i] = a.namedMiddleware[name]
	}
	h := chain(a.invoke(res), mw...)

	c := newContext(w, r, a)
	if err := h(c); err != nil {
		a.handleError(c, err)
	}
}

func (a *App) handleNotFound(c Context, err error) {
	if a.notFoundHandler != nil {
		if herr := a.notFoundHandler(c); herr != nil {
			a.handleError(c, herr)
		}
		return
	}
	a.handleError(c, ErrNotFound("", WithError(err)))
}

// invoke runs the controller lifecycle around the route action and renders
// the response.
func (a *App) invoke(res *resolution) HandlerFunc {
	return func(c Context) error {
		ctrl := res.Controller.new()
		var def Controller
		if a.defaultController != nil {
			def = a.defaultController()
		}

		out := c.Output()
		a.assignDefaults(c, out)

		action := res.Route.Handler()
		result, err := routing.Invoke[Context](c, lifecycle(def), ctrl, func() (any, error) {
			return action(ctrl, c, res.Params)
		}, out)
		if err != nil {
			return err
		}
		if c.Written() {
			return nil
		}
		return a.respond(c, out, result)
	}
}

// lifecycle keeps a nil controller a nil interface.
func lifecycle(ctrl Controller) routing.Lifecycle[Context] {
	if ctrl == nil {
		return nil
	}
	return ctrl
}

func (a *App) assignDefaults(c Context, out *routing.Response) {
	root := a.rootURL
	if root == "" {
		root = requestRoot(c.Request())
	}
	out.Assign(KeyRoot, root)
	out.Assign(KeySiteName, a.siteName)
	out.Assign(KeyLocal, a.local)
	if p, ok := c.Principal(); ok {
		out.Assign(KeyLogin, p)
	} else {
		out.Assign(KeyLogin, nil)
	}
}

// respond writes what the action produced. A direct result wins, then a
// redirect, then a view, then the values as JSON.
func (a *App) respond(c Context, out *routing.Response, result any) error {
	status := out.Status()

	switch v := result.(type) {
	case nil:
	case string:
		return c.String(status, v)
	case http.Handler:
		v.ServeHTTP(c.Response(), c.Request())
		return nil
	default:
		return c.JSON(status, v)
	}

	if url := out.RedirectURL(); url != "" {
		code := http.StatusFound
		if status >= 300 && status < 400 {
			code = status
		}
		return c.Redirect(code, url)
	}

	if view := out.ViewName(); view != "" {
		err := c.Render(status, view, out.Values())
		if !errors.Is(err, ErrRendererNotConfigured) {
			return err
		}
	}

	return c.JSON(status, publicValues(out.Values()))
}

// publicValues drops the "__" defaults, which are meant for views.
func publicValues(values map[string]any) map[string]any {
	for k := range values {
		if strings.HasPrefix(k, "__") {
			delete(values, k)
		}
	}
	return values
}

func requestRoot(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
