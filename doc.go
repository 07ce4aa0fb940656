// Package edmunds is a small web framework that dispatches requests onto
// controllers by URL segments.
//
// A request path like /admin/users/edit/42 is split into segments. The
// shortest registered controller path wins ("admin/users"), the next
// segment names the route ("edit") and the rest are parameters validated
// against the route's patterns. Requests whose first segment names no
// controller fall to the home controller.
//
// # Quick Start
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app := edmunds.New(
//	    edmunds.WithConfig(cfg),
//	    edmunds.WithLogger(cfg.Logger, middlewares.RequestIDExtractor()),
//	    edmunds.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    edmunds.WithController("users", NewUsers),
//	    edmunds.WithAuth(auth.SessionGuard{Users: users}, cfg.Routing.LoginRoute),
//	)
//
//	if err := app.Run(edmunds.Address(cfg.Server.Address)); err != nil {
//	    log.Fatal(err)
//	}
//
// # Controllers
//
// Controllers declare their routes by position and name:
//
//	type Users struct {
//	    edmunds.LoginRequiredController
//	    repo *repository.Queries
//	}
//
//	func (*Users) Routes() edmunds.Routes[*Users] {
//	    return edmunds.Routes[*Users]{
//	        0: {
//	            "index": {Handler: (*Users).list},
//	            "edit":  {Params: []string{`\d+`}, Handler: (*Users).edit},
//	            "save":  {Verbs: []routing.Verb{routing.VerbPost}, Roles: []string{"admin"}, Handler: (*Users).save},
//	        },
//	    }
//	}
//
//	func (u *Users) edit(c edmunds.Context, p edmunds.Params) (any, error) {
//	    id, err := edmunds.Param[int64](p, 0)
//	    if err != nil {
//	        return nil, err
//	    }
//	    c.Output().Assign("user", u.repo.Find(c, id))
//	    c.Output().View("users/edit")
//	    return nil, nil
//	}
//
// A route with Roles, or any route of a LoginRequiredController, runs
// behind the "auth" and "roles" middleware registered by [WithAuth].
// Returning a bool records it as "success" in the response values.
//
// # Explicit Routes
//
// Handlers registered with [WithHandlers] declare chi routes directly and
// take precedence over controller dispatch:
//
//	func (h *Pages) Routes(r edmunds.Router) {
//	    r.GET("/about", h.about)
//	}
//
// # Shutdown
//
// Run handles SIGINT and SIGTERM. Register cleanup with [ShutdownHook]:
//
//	app.Run(edmunds.ShutdownHook(db.Shutdown(pool)))
package edmunds
