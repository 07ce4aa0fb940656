// Package middlewares provides HTTP middleware for edmunds applications.
//
// # Auth and Roles
//
// Auth and Roles back the "auth" and "roles" names the controller
// dispatcher attaches to guarded routes. edmunds.WithAuth registers both:
//
//	app := edmunds.New(
//	    edmunds.WithSession(store),
//	    edmunds.WithAuth(auth.SessionGuard{Users: users}, cfg.Routing.LoginRoute),
//	)
//
// Guests of a stateless guard (auth.BasicGuard) get 401 with a
// WWW-Authenticate challenge. Ajax, JSON and XML clients get 403. Everyone
// else is redirected to the login route, and GET requests remember their
// URL for IntendedURL.
//
// Roles answers 403 unless the principal holds every role the route
// declares.
//
// # Request ID
//
// RequestID assigns a ULID to each request unless an upstream proxy already
// sent one. Use RequestIDExtractor and TransactionExtractor with WithLogger
// to tag every log line:
//
//	app := edmunds.New(
//	    edmunds.WithLogger(cfg.Logger,
//	        middlewares.RequestIDExtractor(),
//	        middlewares.TransactionExtractor(),
//	    ),
//	    edmunds.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Analytics
//
// Analytics binds a per-request analytics.Tracker to the visitor cookie
// and flushes it once per request, typically as a queued job:
//
//	edmunds.WithMiddleware(
//	    middlewares.Analytics(analytics.Queued(queue, cfg.Analytics.MaxAttempts)),
//	)
//
// # Recover
//
// Recover converts panics into *PanicError and records them on the tracker.
//
// # Recommended Middleware Order
//
//	edmunds.WithMiddleware(
//	    middlewares.RequestID(),          // first: every later log line carries the ID
//	    middlewares.Analytics(sink),      // tracker for everything below
//	    middlewares.Recover(),            // panics are recorded before the flush
//	)
package middlewares
