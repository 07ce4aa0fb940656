package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edmunds-dev/edmunds/internal"
)

// handlers adapts a function to internal.Handler.
type handlers func(r internal.Router)

func (f handlers) Routes(r internal.Router) { f(r) }

// serve sends req to an App whose GET and POST "/" run h behind mw.
func serve(t *testing.T, req *http.Request, mw []internal.Middleware, h internal.HandlerFunc, opts ...internal.Option) *httptest.ResponseRecorder {
	t.Helper()

	opts = append(opts, internal.WithHandlers(handlers(func(r internal.Router) {
		r.GET("/", h, mw...)
		r.POST("/", h, mw...)
	})))
	app := internal.New(opts...)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func ok(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}
