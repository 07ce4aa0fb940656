// Package logger builds slog loggers enriched from the request context.
//
// Extractors pull request-scoped values such as the request ID or the
// dispatched controller transaction out of the context on every log call:
//
//	log := logger.New(logger.Config{Level: slog.LevelDebug},
//	    middlewares.RequestIDExtractor(),
//	    middlewares.TransactionExtractor(),
//	)
//
// NewWithSentry additionally forwards warnings and errors to Sentry. With an
// empty DSN it behaves like New, so local setups need no Sentry account.
//
// NewNope returns a logger that discards everything; the app uses it until
// a logger is configured.
package logger
