// Package routing resolves request paths onto controllers and their routes.
//
// Resolution happens in fixed stages. A request method and path are parsed
// into a Verb and a segment sequence. The Registry walks candidate controller
// paths built from the leading segments. The controller's compiled Table picks
// a route from the remaining segments. The route's parameter patterns validate
// what is left. Gate decides which auth middleware must guard the route.
//
// # Declaring routes
//
// Routes are declared per URI position. Position 0 holds the special "index"
// route (the controller's base path) and the root route "/" (matched by verb
// alone when no named route matches):
//
//	routes := routing.Routes[Handler]{
//	    0: {
//	        "index": {Handler: list},
//	        "/":     {Params: []string{`\d+`}, Handler: show},
//	        "edit":  {Verbs: []routing.Verb{routing.VerbGet, routing.VerbPost}, Params: []string{`\d+`}, Handler: edit},
//	    },
//	}
//	table, err := routing.Compile(routes)
//
// Compile normalizes the declaration once. The resulting Table is immutable
// and safe for concurrent use.
//
// # Controllers
//
// Controllers live under a namespace and are addressed by up to three path
// segments. Shorter controller paths win over deeper ones:
//
//	reg := routing.NewRegistry[*Entry](routing.Config{
//	    Namespace: "app",
//	    Default:   "default",
//	    Home:      "home",
//	})
//	_ = reg.Register("admin/users", usersEntry)
//	m, err := reg.Resolve([]string{"admin", "users", "edit", "42"})
//	// m.ID == "app/Admin/Users", m.Remaining == ["edit", "42"]
//
// Dispatcher ties the stages together and returns a Resolution. The result
// says which middleware to attach and how to name the transaction for logs.
package routing
