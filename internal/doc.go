// Package internal provides the core types and implementation of edmunds.
//
// This package is internal and should not be used directly. Import
// "github.com/edmunds-dev/edmunds" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: owns the chi router, explicit handlers, controller dispatch and the server lifecycle
//   - Context: request/response access, principal, session, jobs and analytics helpers
//   - Controller: lifecycle hooks of a routed controller; embed BaseController or LoginRequiredController
//   - Action: a controller route handler receiving the validated parameters
//   - Router: interface handlers use to declare explicit routes
//   - Middleware: wraps handlers; named middleware is attached per route by the dispatcher
//
// # Dispatch
//
// Requests that no explicit route claims are resolved onto a controller by
// pkg/routing. The dispatcher then:
//
//  1. names the transaction and records the route's required roles in the request context
//  2. runs the route's named middleware, then "auth" and "roles" when the gate asks for them
//  3. initializes the default controller and the target controller
//  4. calls the action with the validated parameters
//  5. finalizes both controllers in reverse order
//  6. writes the result, a redirect, a rendered view or the response values as JSON
//
// Unroutable requests answer 404. Unknown named middleware is reported by
// New, not at request time.
//
// # Context as context.Context
//
// Context embeds context.Context, so it can be passed directly to any
// function that expects a standard library context:
//
//	func (u *Users) show(c edmunds.Context, p routing.Params) (any, error) {
//	    id, err := p.Int64(0)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return u.repo.Find(c, id)
//	}
package internal
