package middlewares_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edmunds-dev/edmunds/internal"
	"github.com/edmunds-dev/edmunds/middlewares"
	"github.com/edmunds-dev/edmunds/pkg/logger"
	"github.com/edmunds-dev/edmunds/pkg/routing"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates a ULID when absent", func(t *testing.T) {
		t.Parallel()

		var captured string
		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.RequestID()},
			func(c internal.Context) error {
				captured = middlewares.GetRequestID(c)
				return ok(c)
			})

		require.Len(t, captured, 26)
		require.Equal(t, captured, w.Header().Get("X-Request-ID"))
	})

	t.Run("reuses upstream header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "upstream-1")

		w := serve(t, req, []internal.Middleware{middlewares.RequestID()}, ok)

		require.Equal(t, "upstream-1", w.Header().Get("X-Request-ID"))
	})

	t.Run("ignores oversized upstream IDs", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 500))

		w := serve(t, req, []internal.Middleware{middlewares.RequestID()}, ok)

		require.Len(t, w.Header().Get("X-Request-ID"), 26)
	})

	t.Run("custom generator and header", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
			[]internal.Middleware{middlewares.RequestID(
				middlewares.WithRequestIDGenerator(func() string { return "fixed" }),
				middlewares.WithRequestIDResponseHeader("X-Trace"),
			)}, ok)

		require.Equal(t, "fixed", w.Header().Get("X-Trace"))
		require.Empty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestLogExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(logger.NewContextHandler(
		slog.NewJSONHandler(&buf, nil),
		middlewares.RequestIDExtractor(),
		middlewares.TransactionExtractor(),
	))

	serve(t, httptest.NewRequest(http.MethodGet, "/", nil),
		[]internal.Middleware{middlewares.RequestID(
			middlewares.WithRequestIDGenerator(func() string { return "req-9" }),
		)},
		func(c internal.Context) error {
			c.Set(routing.TransactionKey(), "Users@getIndex")
			c.LogInfo("handled")
			return ok(c)
		},
		internal.WithCustomLogger(log),
	)

	require.Contains(t, buf.String(), `"request_id":"req-9"`)
	require.Contains(t, buf.String(), `"transaction":"Users@getIndex"`)
}
