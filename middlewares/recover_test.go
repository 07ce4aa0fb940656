package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edmunds-dev/edmunds/internal"
	"github.com/edmunds-dev/edmunds/middlewares"
	"github.com/edmunds-dev/edmunds/pkg/analytics"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("panic becomes PanicError", func(t *testing.T) {
		t.Parallel()

		var got error
		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.Recover()},
			func(internal.Context) error { panic("test panic") },
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.String(http.StatusInternalServerError, "recovered")
			}),
		)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		pe, ok := middlewares.AsPanicError(got)
		require.True(t, ok)
		require.Equal(t, "test panic", pe.Value)
		require.NotEmpty(t, pe.Stack)
	})

	t.Run("default error handler hides the panic", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.Recover()},
			func(internal.Context) error { panic("secret") },
		)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotContains(t, w.Body.String(), "secret")
	})

	t.Run("passes through without panic", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.Recover()}, ok)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("handler errors propagate unchanged", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.Recover()},
			func(internal.Context) error { return internal.ErrForbidden("no") },
		)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("stack capture can be disabled", func(t *testing.T) {
		t.Parallel()

		var got error
		serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.Recover(middlewares.WithRecoverDisablePrintStack())},
			func(internal.Context) error { panic(errors.New("boom")) },
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.NoContent(http.StatusInternalServerError)
			}),
		)

		pe, ok := middlewares.AsPanicError(got)
		require.True(t, ok)
		require.Nil(t, pe.Stack)
	})

	t.Run("stack size is capped", func(t *testing.T) {
		t.Parallel()

		var got error
		serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.Recover(middlewares.WithRecoverStackSize(64))},
			func(internal.Context) error { panic(42) },
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.NoContent(http.StatusInternalServerError)
			}),
		)

		pe, ok := middlewares.AsPanicError(got)
		require.True(t, ok)
		require.LessOrEqual(t, len(pe.Stack), 64)
	})
}

func TestRecover_RecordsOnTracker(t *testing.T) {
	t.Parallel()

	batches := make(chan analytics.Batch, 1)
	sink := analytics.SinkFunc(func(_ context.Context, b analytics.Batch) error {
		batches <- b
		return nil
	})

	serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
		[]internal.Middleware{middlewares.Analytics(sink), middlewares.Recover()},
		func(internal.Context) error { panic("kaboom") },
	)

	b := <-batches
	require.Len(t, b.Entries, 1)
	require.Equal(t, analytics.KindError, b.Entries[0].Kind)
	require.Equal(t, "panic: kaboom", b.Entries[0].Error.Message)
}
