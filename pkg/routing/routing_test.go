package routing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edmunds-dev/edmunds/pkg/routing"
)

type handler string

type entry struct {
	table *routing.Table[handler]
	login bool
}

func (e *entry) Table() *routing.Table[handler] { return e.table }
func (e *entry) LoginRequired() bool            { return e.login }

func newEntry(t *testing.T, routes routing.Routes[handler], login bool) *entry {
	t.Helper()
	table, err := routing.Compile(routes)
	require.NoError(t, err)
	return &entry{table: table, login: login}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	assert.Empty(t, routing.Split("/"))
	assert.Empty(t, routing.Split(""))
	assert.Equal(t, []string{"Admin", "users", "42"}, routing.Split("/Admin//users/42/"))
}

func TestNewRequest(t *testing.T) {
	t.Parallel()

	t.Run("patch folds into put", func(t *testing.T) {
		t.Parallel()

		req, err := routing.NewRequest("PATCH", "/users/1")
		require.NoError(t, err)
		assert.Equal(t, routing.VerbPut, req.Verb)
		assert.Equal(t, []string{"users", "1"}, req.Segments)
	})

	t.Run("head folds into get", func(t *testing.T) {
		t.Parallel()

		req, err := routing.NewRequest("HEAD", "/")
		require.NoError(t, err)
		assert.Equal(t, routing.VerbGet, req.Verb)
		assert.Empty(t, req.Segments)
	})

	t.Run("unsupported method", func(t *testing.T) {
		t.Parallel()

		_, err := routing.NewRequest("OPTIONS", "/")
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("path outside whitelist", func(t *testing.T) {
		t.Parallel()

		_, err := routing.NewRequest("GET", "/users/<script>")
		require.ErrorIs(t, err, routing.ErrRouteNotFound)

		_, err = routing.NewRequest("GET", "/files/report-2024.v2+final!/x_y*$")
		require.NoError(t, err)
	})
}

func TestCompile(t *testing.T) {
	t.Parallel()

	t.Run("fills defaults and lowercases names", func(t *testing.T) {
		t.Parallel()

		table, err := routing.Compile(routing.Routes[handler]{
			0: {"Edit": {Handler: "edit"}},
		})
		require.NoError(t, err)

		r, ok := table.Lookup(0, "edit")
		require.True(t, ok)
		assert.Equal(t, "edit", r.Key())
		assert.Equal(t, []routing.Verb{routing.VerbGet}, r.Verbs())
		assert.Empty(t, r.Params())
		assert.Empty(t, r.Roles())
		assert.Equal(t, handler("edit"), r.Handler())
	})

	t.Run("rejects names colliding after lowercasing", func(t *testing.T) {
		t.Parallel()

		_, err := routing.Compile(routing.Routes[handler]{
			0: {"edit": {}, "EDIT": {}},
		})
		require.ErrorIs(t, err, routing.ErrInvalidRoute)
	})

	t.Run("rejects invalid pattern", func(t *testing.T) {
		t.Parallel()

		_, err := routing.Compile(routing.Routes[handler]{
			0: {"edit": {Params: []string{`(`}}},
		})
		require.ErrorIs(t, err, routing.ErrInvalidRoute)
	})

	t.Run("rejects unknown verb", func(t *testing.T) {
		t.Parallel()

		_, err := routing.Compile(routing.Routes[handler]{
			0: {"edit": {Verbs: []routing.Verb{"options"}}},
		})
		require.ErrorIs(t, err, routing.ErrInvalidRoute)
	})

	t.Run("rejects reserved names outside position zero", func(t *testing.T) {
		t.Parallel()

		_, err := routing.Compile(routing.Routes[handler]{
			1: {"index": {}},
		})
		require.ErrorIs(t, err, routing.ErrInvalidRoute)
	})

	t.Run("does not keep references to the declaration", func(t *testing.T) {
		t.Parallel()

		params := []string{`\d+`}
		table, err := routing.Compile(routing.Routes[handler]{
			0: {"/": {Params: params}},
		})
		require.NoError(t, err)

		params[0] = `[a-z]+`
		r, _, err := table.Match(routing.VerbGet, []string{"42"})
		require.NoError(t, err)
		assert.True(t, r.Validate([]string{"42"}))
		assert.Equal(t, []string{`\d+`}, r.Params())
	})
}

func TestRouteName(t *testing.T) {
	t.Parallel()

	table := routing.MustCompile(routing.Routes[handler]{
		0: {"index": {}, "/": {}, "edit": {}},
	})

	idx, _ := table.Lookup(0, "index")
	root, _ := table.Lookup(0, "/")
	edit, _ := table.Lookup(0, "edit")

	assert.Equal(t, "getIndex", idx.Name(routing.VerbGet))
	assert.Equal(t, "post", root.Name(routing.VerbPost))
	assert.Equal(t, "getEdit", edit.Name(routing.VerbGet))
}

func TestTable_Match(t *testing.T) {
	t.Parallel()

	t.Run("index route on empty segments", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"index": {Verbs: []routing.Verb{routing.VerbGet}, Handler: "index"}},
		})

		r, params, err := table.Match(routing.VerbGet, nil)
		require.NoError(t, err)
		assert.Equal(t, "index", r.Key())
		assert.Empty(t, params)

		_, _, err = table.Match(routing.VerbPost, nil)
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("empty segments never fall back to root", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"/": {}},
		})

		_, _, err := table.Match(routing.VerbGet, []string{})
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("root route takes a parameter", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"/": {Verbs: []routing.Verb{routing.VerbGet}, Params: []string{`\d+`}}},
		})

		r, params, err := table.Match(routing.VerbGet, []string{"42"})
		require.NoError(t, err)
		assert.Equal(t, routing.RootRoute, r.Key())
		assert.Equal(t, []string{"42"}, params)
	})

	t.Run("root route requires its verb", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"/": {Params: []string{`\d+`}}},
		})

		_, _, err := table.Match(routing.VerbDelete, []string{"42"})
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("discriminator is removed from parameters", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"edit": {Verbs: []routing.Verb{routing.VerbGet, routing.VerbPost}, Params: []string{`\d+`}}},
		})

		for _, verb := range []routing.Verb{routing.VerbGet, routing.VerbPost} {
			r, params, err := table.Match(verb, []string{"edit", "42"})
			require.NoError(t, err)
			assert.Equal(t, "edit", r.Key())
			assert.Equal(t, []string{"42"}, params)
			assert.True(t, r.Validate(params))
		}

		_, _, err := table.Match(routing.VerbDelete, []string{"edit", "42"})
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("discriminator matches case-insensitively", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"edit": {Params: []string{`\w+`}}},
		})

		_, params, err := table.Match(routing.VerbGet, []string{"EdIt", "Abc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Abc"}, params)
	})

	t.Run("verb mismatch on named route does not fall back to root", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {
				"/":    {Verbs: []routing.Verb{routing.VerbPost}, Params: []string{`.+`, `.+`}},
				"edit": {Verbs: []routing.Verb{routing.VerbGet}, Params: []string{`\d+`}},
			},
		})

		_, _, err := table.Match(routing.VerbPost, []string{"edit", "42"})
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("discriminator at a later position", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			1: {"comments": {Params: []string{`\d+`}}},
		})

		r, params, err := table.Match(routing.VerbGet, []string{"42", "comments"})
		require.NoError(t, err)
		assert.Equal(t, 1, r.Position())
		assert.Equal(t, []string{"42"}, params)
	})

	t.Run("first position wins", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"show": {Params: []string{`.+`}}},
			1: {"edit": {Params: []string{`.+`}}},
		})

		r, params, err := table.Match(routing.VerbGet, []string{"show", "edit"})
		require.NoError(t, err)
		assert.Equal(t, "show", r.Key())
		assert.Equal(t, []string{"edit"}, params)
	})

	t.Run("index segment is not a discriminator", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {
				"index": {},
				"/":     {Params: []string{`\w+`}},
			},
		})

		r, params, err := table.Match(routing.VerbGet, []string{"index"})
		require.NoError(t, err)
		assert.Equal(t, routing.RootRoute, r.Key())
		assert.Equal(t, []string{"index"}, params)
	})

	t.Run("parameter count must match", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"edit": {Params: []string{`\d+`}}},
		})

		_, _, err := table.Match(routing.VerbGet, []string{"edit"})
		require.ErrorIs(t, err, routing.ErrRouteNotFound)

		_, _, err = table.Match(routing.VerbGet, []string{"edit", "1", "2"})
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("no match and no root", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"edit": {}},
		})

		_, _, err := table.Match(routing.VerbGet, []string{"other"})
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("match leaves input untouched", func(t *testing.T) {
		t.Parallel()

		table := routing.MustCompile(routing.Routes[handler]{
			0: {"edit": {Params: []string{`\d+`}}},
		})

		remaining := []string{"edit", "42"}
		_, params, err := table.Match(routing.VerbGet, remaining)
		require.NoError(t, err)
		params[0] = "changed"
		assert.Equal(t, []string{"edit", "42"}, remaining)
	})
}

func TestValidateParams(t *testing.T) {
	t.Parallel()

	specs := []string{`\d+`, `[a-z]+`}

	assert.True(t, routing.ValidateParams(specs, []string{"12", "ab"}))
	assert.False(t, routing.ValidateParams(specs, []string{"12x", "ab"}))
	assert.False(t, routing.ValidateParams(specs, []string{"12", "abC"}))
	assert.False(t, routing.ValidateParams(specs, []string{"12"}))
	assert.True(t, routing.ValidateParams(nil, nil))
	assert.True(t, routing.ValidateParams([]string{}, []string{}))
	assert.True(t, routing.ValidateParams([]string{`a|b`}, []string{"b"}))
	assert.False(t, routing.ValidateParams([]string{`a|b`}, []string{"ab"}))
	assert.False(t, routing.ValidateParams([]string{`(`}, []string{"("}))
}

func TestParams(t *testing.T) {
	t.Parallel()

	p := routing.Params{"42", "abc", "true"}

	n, err := p.Int(0)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = p.Int(1)
	require.Error(t, err)

	b, err := routing.Param[bool](p, 2)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = p.Int64(5)
	require.Error(t, err)
	assert.Equal(t, "", p.String(5))
	assert.Equal(t, 3, p.Len())
}

type (
	userID string
	pageNo int
	ratio  float64
	flag   bool
)

func TestParam_NamedTypes(t *testing.T) {
	t.Parallel()

	p := routing.Params{"abc", "7", "0.5", "1", "x"}

	u, err := routing.Param[userID](p, 0)
	require.NoError(t, err)
	assert.Equal(t, userID("abc"), u)

	n, err := routing.Param[pageNo](p, 1)
	require.NoError(t, err)
	assert.Equal(t, pageNo(7), n)

	r, err := routing.Param[ratio](p, 2)
	require.NoError(t, err)
	assert.Equal(t, ratio(0.5), r)

	f, err := routing.Param[flag](p, 3)
	require.NoError(t, err)
	assert.Equal(t, flag(true), f)

	_, err = routing.Param[pageNo](p, 4)
	require.Error(t, err)

	v, ok := routing.Convert[pageNo]("7")
	assert.True(t, ok)
	assert.Equal(t, pageNo(7), v)
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	newRegistry := func(t *testing.T, paths ...string) *routing.Registry[string] {
		t.Helper()
		reg := routing.NewRegistry[string](routing.Config{Namespace: "app", Default: "default", Home: "home"})
		for _, p := range paths {
			require.NoError(t, reg.Register(p, p))
		}
		return reg
	}

	t.Run("probes shorter paths first", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t, "home", "admin", "admin/users", "admin/users/roles")

		m, err := reg.Resolve([]string{"admin", "users", "roles", "1"})
		require.NoError(t, err)
		assert.Equal(t, "admin", m.Controller)
		assert.Equal(t, "app/Admin", m.ID)
		assert.Equal(t, "Admin", m.Path)
		assert.Equal(t, []string{"users", "roles", "1"}, m.Remaining)
	})

	t.Run("deeper path when shorter is missing", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t, "home", "admin/users", "admin/users/roles")

		m, err := reg.Resolve([]string{"Admin", "USERS", "edit", "7"})
		require.NoError(t, err)
		assert.Equal(t, "app/Admin/Users", m.ID)
		assert.Equal(t, "Admin/Users", m.Path)
		assert.Equal(t, []string{"edit", "7"}, m.Remaining)
	})

	t.Run("home receives everything", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t, "home", "admin")

		m, err := reg.Resolve([]string{"about", "team"})
		require.NoError(t, err)
		assert.Equal(t, "home", m.Controller)
		assert.Equal(t, []string{"about", "team"}, m.Remaining)

		m, err = reg.Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, "home", m.Controller)
		assert.Empty(t, m.Remaining)
	})

	t.Run("home beyond probe depth", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t, "home")

		m, err := reg.Resolve([]string{"a", "b", "c", "d", "e"})
		require.NoError(t, err)
		assert.Equal(t, "home", m.Controller)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, m.Remaining)
	})

	t.Run("not found without home", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t, "admin")

		_, err := reg.Resolve([]string{"other"})
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("reserved controllers are skipped", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t, "home", "home/default")

		m, err := reg.Resolve([]string{"home"})
		require.NoError(t, err)
		assert.Equal(t, "home", m.Controller)
		assert.Equal(t, []string{"home"}, m.Remaining, "home is reached only through the fallback")

		m, err = reg.Resolve([]string{"Default", "x"})
		require.NoError(t, err)
		assert.Equal(t, "home", m.Controller)
		assert.Equal(t, []string{"Default", "x"}, m.Remaining)
	})

	t.Run("probing continues past a reserved candidate", func(t *testing.T) {
		t.Parallel()

		reg := routing.NewRegistry[string](routing.Config{Namespace: "app", Default: "default", Home: "home"})
		require.NoError(t, reg.Register("home", "home"))
		require.NoError(t, reg.Register("home/pages", "pages"))

		m, err := reg.Resolve([]string{"home", "pages", "about"})
		require.NoError(t, err)
		assert.Equal(t, "pages", m.Controller)
		assert.Equal(t, []string{"about"}, m.Remaining)
	})

	t.Run("invalid segments are skipped", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t, "home", "admin")

		m, err := reg.Resolve([]string{"ad-min"})
		require.NoError(t, err)
		assert.Equal(t, "home", m.Controller)
	})

	t.Run("probe order for every length", func(t *testing.T) {
		t.Parallel()

		for n := 0; n <= 3; n++ {
			segments := []string{"a", "b", "c"}[:n]
			for depth := 1; depth <= n; depth++ {
				reg := routing.NewRegistry[int](routing.Config{Namespace: "ns", Home: "home", Default: "default"})
				for d := depth; d <= n; d++ {
					path := ""
					for _, s := range segments[:d] {
						path += "/" + s
					}
					require.NoError(t, reg.Register(path, d))
				}

				m, err := reg.Resolve(segments)
				require.NoError(t, err, "n=%d depth=%d", n, depth)
				assert.Equal(t, depth, m.Controller, "n=%d", n)
				assert.Equal(t, segments[depth:], m.Remaining)
			}
		}
	})
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	reg := routing.NewRegistry[int](routing.Config{Namespace: "app", Default: "default", Home: "home"})

	require.NoError(t, reg.Register("admin/users", 1))
	require.ErrorIs(t, reg.Register("Admin/Users", 2), routing.ErrDuplicateController)
	require.ErrorIs(t, reg.Register("default", 3), routing.ErrReservedController)
	require.ErrorIs(t, reg.Register("a/b/c/d", 4), routing.ErrInvalidController)
	require.ErrorIs(t, reg.Register("", 5), routing.ErrInvalidController)
	require.ErrorIs(t, reg.Register("bad-name", 6), routing.ErrInvalidController)

	v, ok := reg.Lookup("ADMIN/users")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"app/Admin/Users"}, reg.IDs())
	assert.Equal(t, "app/Home", reg.HomeID())
	assert.Equal(t, "app/Default", reg.DefaultID())
}

func TestGate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{routing.MiddlewareAuth, routing.MiddlewareRoles}, routing.Gate([]string{"admin"}, false))
	assert.Equal(t, []string{routing.MiddlewareAuth, routing.MiddlewareRoles}, routing.Gate([]string{"admin"}, true))
	assert.Equal(t, []string{routing.MiddlewareAuth}, routing.Gate(nil, true))
	assert.Empty(t, routing.Gate(nil, false))
}

func newDispatcher(t *testing.T) *routing.Dispatcher[handler, *entry] {
	t.Helper()

	reg := routing.NewRegistry[*entry](routing.Config{Namespace: "app", Default: "default", Home: "home"})
	require.NoError(t, reg.Register("home", newEntry(t, routing.Routes[handler]{
		0: {
			"index": {Handler: "home.index"},
			"/":     {Params: []string{`[\w-]+`}, Handler: "home.page"},
		},
	}, false)))
	require.NoError(t, reg.Register("admin/users", newEntry(t, routing.Routes[handler]{
		0: {
			"index": {Roles: []string{"admin"}, Handler: "users.index"},
			"edit": {
				Verbs:      []routing.Verb{routing.VerbGet, routing.VerbPost},
				Params:     []string{`\d+`},
				Roles:      []string{"admin"},
				Middleware: []string{"csrf"},
				Handler:    "users.edit",
			},
		},
	}, false)))
	require.NoError(t, reg.Register("account", newEntry(t, routing.Routes[handler]{
		0: {"index": {Handler: "account.index"}},
	}, true)))

	return routing.NewDispatcher[handler](reg)
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)

	t.Run("role protected route", func(t *testing.T) {
		t.Parallel()

		res, err := d.Dispatch("POST", "/admin/users/edit/42")
		require.NoError(t, err)
		assert.Equal(t, "app/Admin/Users", res.ControllerID)
		assert.Equal(t, handler("users.edit"), res.Route.Handler())
		assert.Equal(t, routing.Params{"42"}, res.Params)
		assert.Equal(t, []string{"csrf", routing.MiddlewareAuth, routing.MiddlewareRoles}, res.Middleware)
		assert.Equal(t, "Admin/Users@postEdit", res.Transaction())
	})

	t.Run("roles alone yield auth and roles", func(t *testing.T) {
		t.Parallel()

		res, err := d.Dispatch("GET", "/admin/users")
		require.NoError(t, err)
		assert.Equal(t, []string{routing.MiddlewareAuth, routing.MiddlewareRoles}, res.Middleware)
		assert.Equal(t, "Admin/Users@getIndex", res.Transaction())
	})

	t.Run("login required controller", func(t *testing.T) {
		t.Parallel()

		res, err := d.Dispatch("GET", "/account")
		require.NoError(t, err)
		assert.Equal(t, []string{routing.MiddlewareAuth}, res.Middleware)
	})

	t.Run("public home routes", func(t *testing.T) {
		t.Parallel()

		res, err := d.Dispatch("GET", "/")
		require.NoError(t, err)
		assert.Equal(t, handler("home.index"), res.Route.Handler())
		assert.Empty(t, res.Middleware)

		res, err = d.Dispatch("GET", "/about-us")
		require.NoError(t, err)
		assert.Equal(t, handler("home.page"), res.Route.Handler())
		assert.Equal(t, routing.Params{"about-us"}, res.Params)
		assert.Equal(t, "Home@get", res.Transaction())
	})

	t.Run("invalid parameter", func(t *testing.T) {
		t.Parallel()

		_, err := d.Dispatch("GET", "/admin/users/edit/abc")
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("verb not allowed", func(t *testing.T) {
		t.Parallel()

		_, err := d.Dispatch("DELETE", "/admin/users/edit/42")
		require.ErrorIs(t, err, routing.ErrRouteNotFound)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		first, err := d.Dispatch("GET", "/admin/users/edit/42")
		require.NoError(t, err)
		second, err := d.Dispatch("GET", "/admin/users/edit/42")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Same(t, first.Route, second.Route)
	})
}

func TestDispatcher_Concurrent(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	want, err := d.Dispatch("GET", "/admin/users/edit/7")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := range 64 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "/admin/users/edit/7"
			if i%2 == 0 {
				path = "/missing/route/x/y"
			}
			res, err := d.Dispatch("GET", path)
			if i%2 == 0 {
				if !errors.Is(err, routing.ErrRouteNotFound) {
					errs <- fmt.Errorf("expected not found for %s, got %v", path, err)
				}
				return
			}
			if err != nil {
				errs <- err
				return
			}
			if res.Route != want.Route || res.Params[0] != "7" {
				errs <- fmt.Errorf("resolution drifted: %v", res.Params)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

type recorder struct {
	name  string
	log   *[]string
	initE error
	finE  error
}

func (r *recorder) Initialize(ctx context.Context) error {
	*r.log = append(*r.log, r.name+".init")
	return r.initE
}

func (r *recorder) Finalize(ctx context.Context) error {
	*r.log = append(*r.log, r.name+".final")
	return r.finE
}

func TestInvoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("lifecycle order and success flag", func(t *testing.T) {
		t.Parallel()

		var log []string
		def := &recorder{name: "default", log: &log}
		ctrl := &recorder{name: "ctrl", log: &log}
		resp := routing.NewResponse()

		result, err := routing.Invoke[context.Context](ctx, def, ctrl, func() (any, error) {
			log = append(log, "action")
			return true, nil
		}, resp)
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, []string{"default.init", "ctrl.init", "action", "ctrl.final", "default.final"}, log)

		v, ok := resp.Get(routing.SuccessKey)
		require.True(t, ok)
		assert.Equal(t, true, v)
	})

	t.Run("false is recorded", func(t *testing.T) {
		t.Parallel()

		var log []string
		resp := routing.NewResponse()
		_, err := routing.Invoke[context.Context](ctx, nil, &recorder{name: "ctrl", log: &log}, func() (any, error) {
			return false, nil
		}, resp)
		require.NoError(t, err)
		v, _ := resp.Get(routing.SuccessKey)
		assert.Equal(t, false, v)
	})

	t.Run("other results are returned untouched", func(t *testing.T) {
		t.Parallel()

		var log []string
		resp := routing.NewResponse()
		result, err := routing.Invoke[context.Context](ctx, nil, &recorder{name: "ctrl", log: &log}, func() (any, error) {
			return map[string]int{"n": 1}, nil
		}, resp)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"n": 1}, result)
		_, ok := resp.Get(routing.SuccessKey)
		assert.False(t, ok)
	})

	t.Run("initialize error skips action", func(t *testing.T) {
		t.Parallel()

		var log []string
		boom := errors.New("boom")
		def := &recorder{name: "default", log: &log}
		ctrl := &recorder{name: "ctrl", log: &log, initE: boom}

		_, err := routing.Invoke[context.Context](ctx, def, ctrl, func() (any, error) {
			log = append(log, "action")
			return nil, nil
		}, routing.NewResponse())
		require.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"default.init", "ctrl.init", "default.final"}, log)
	})

	t.Run("action error still finalizes", func(t *testing.T) {
		t.Parallel()

		var log []string
		boom := errors.New("boom")
		finErr := errors.New("finalize")
		def := &recorder{name: "default", log: &log, finE: finErr}
		ctrl := &recorder{name: "ctrl", log: &log}

		_, err := routing.Invoke[context.Context](ctx, def, ctrl, func() (any, error) {
			return nil, boom
		}, routing.NewResponse())
		require.ErrorIs(t, err, boom)
		require.ErrorIs(t, err, finErr)
		assert.Equal(t, []string{"default.init", "ctrl.init", "ctrl.final", "default.final"}, log)
	})
}

func TestResponse(t *testing.T) {
	t.Parallel()

	resp := routing.NewResponse()
	assert.Equal(t, 200, resp.Status())

	resp.Assign("title", "Users")
	resp.SetStatus(201)
	resp.View("users/index")
	resp.Redirect("/login")

	values := resp.Values()
	values["title"] = "changed"

	v, _ := resp.Get("title")
	assert.Equal(t, "Users", v)
	assert.Equal(t, 201, resp.Status())
	assert.Equal(t, "users/index", resp.ViewName())
	assert.Equal(t, "/login", resp.RedirectURL())
}

func TestMapHandlers(t *testing.T) {
	t.Parallel()

	routes := routing.Routes[string]{
		0: {"edit": {Handler: "e", Params: []string{`\d+`}, Roles: []string{"admin"}}},
	}
	mapped := routing.MapHandlers(routes, func(s string) int { return len(s) })

	assert.Equal(t, 1, mapped[0]["edit"].Handler)
	assert.Equal(t, []string{`\d+`}, mapped[0]["edit"].Params)
	assert.Equal(t, []string{"admin"}, mapped[0]["edit"].Roles)
}

func TestContextValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, routing.RequiredRoles(ctx))
	assert.Empty(t, routing.Transaction(ctx))

	roles := []string{"admin", "editor"}
	ctx = routing.WithRequiredRoles(ctx, roles)
	roles[0] = "mutated"
	assert.Equal(t, []string{"admin", "editor"}, routing.RequiredRoles(ctx))

	ctx = routing.WithTransaction(ctx, "Admin/Users@getEdit")
	assert.Equal(t, "Admin/Users@getEdit", routing.Transaction(ctx))
	assert.Equal(t, "Admin/Users@getEdit", ctx.Value(routing.TransactionKey()))
}
