package routing

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reserved route names in position 0.
const (
	// IndexRoute matches the controller's base path (no remaining segments).
	IndexRoute = "index"
	// RootRoute matches by verb alone when no named route does.
	RootRoute = "/"
)

// Spec declares a single route. Zero values are filled in by Compile:
// no verbs means get only, no params means the route consumes nothing.
type Spec[H any] struct {
	Handler    H
	Verbs      []Verb
	Params     []string // one regular expression per trailing segment
	Roles      []string
	Middleware []string // named middleware attached before auth checks
}

// Routes is a controller's declarative route table:
// URI position -> route name -> spec.
type Routes[H any] map[int]map[string]Spec[H]

// MapHandlers returns a copy of routes with every handler converted by fn.
func MapHandlers[H, G any](routes Routes[H], fn func(H) G) Routes[G] {
	out := make(Routes[G], len(routes))
	for pos, entries := range routes {
		bucket := make(map[string]Spec[G], len(entries))
		for name, spec := range entries {
			bucket[name] = Spec[G]{
				Handler:    fn(spec.Handler),
				Verbs:      slices.Clone(spec.Verbs),
				Params:     slices.Clone(spec.Params),
				Roles:      slices.Clone(spec.Roles),
				Middleware: slices.Clone(spec.Middleware),
			}
		}
		out[pos] = bucket
	}
	return out
}

// Route is a compiled, immutable route.
type Route[H any] struct {
	handler    H
	key        string
	verbs      []Verb
	params     []string
	patterns   []*regexp.Regexp
	roles      []string
	middleware []string
	position   int
}

// Key returns the lowercased discriminator ("index" and "/" for the special routes).
func (r *Route[H]) Key() string { return r.key }

// Position returns the URI position the discriminator is expected at.
func (r *Route[H]) Position() int { return r.position }

// Handler returns the declared handler.
func (r *Route[H]) Handler() H { return r.handler }

// Verbs returns the allowed verbs.
func (r *Route[H]) Verbs() []Verb { return slices.Clone(r.verbs) }

// Params returns the parameter patterns as declared.
func (r *Route[H]) Params() []string { return slices.Clone(r.params) }

// Roles returns the roles a principal must hold.
func (r *Route[H]) Roles() []string { return slices.Clone(r.roles) }

// Middleware returns the route-declared middleware names.
func (r *Route[H]) Middleware() []string { return slices.Clone(r.middleware) }

// Allows reports whether the route accepts verb.
func (r *Route[H]) Allows(verb Verb) bool {
	return slices.Contains(r.verbs, verb)
}

// Name returns the verb-prefixed route name, e.g. "getEdit" or "postIndex".
// The root route is named by its verb alone.
func (r *Route[H]) Name(verb Verb) string {
	if r.key == RootRoute {
		return string(verb)
	}
	return string(verb) + capitalize(r.key)
}

// Validate reports whether params fully match the route's patterns.
func (r *Route[H]) Validate(params []string) bool {
	if len(params) != len(r.patterns) {
		return false
	}
	for i, re := range r.patterns {
		if !re.MatchString(params[i]) {
			return false
		}
	}
	return true
}

// Table is a compiled controller route table. It is never mutated after
// Compile returns and is safe for concurrent use.
type Table[H any] struct {
	buckets map[int]map[string]*Route[H]
}

// Compile normalizes a declarative route table.
// Route names are lowercased; names colliding after lowercasing, negative
// positions, unknown verbs, reserved names outside position 0 and invalid
// parameter patterns are rejected with ErrInvalidRoute.
func Compile[H any](routes Routes[H]) (*Table[H], error) {
	t := &Table[H]{buckets: make(map[int]map[string]*Route[H], len(routes))}

	for pos, entries := range routes {
		if pos < 0 {
			return nil, fmt.Errorf("%w: negative position %d", ErrInvalidRoute, pos)
		}
		bucket := make(map[string]*Route[H], len(entries))
		for name, spec := range entries {
			key := strings.ToLower(name)
			if key == "" {
				return nil, fmt.Errorf("%w: empty route name at position %d", ErrInvalidRoute, pos)
			}
			if pos != 0 && (key == IndexRoute || key == RootRoute) {
				return nil, fmt.Errorf("%w: %q is only allowed at position 0", ErrInvalidRoute, key)
			}
			if _, dup := bucket[key]; dup {
				return nil, fmt.Errorf("%w: duplicate route %q at position %d", ErrInvalidRoute, key, pos)
			}
			route, err := compileRoute(key, pos, spec)
			if err != nil {
				return nil, err
			}
			bucket[key] = route
		}
		t.buckets[pos] = bucket
	}

	return t, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile[H any](routes Routes[H]) *Table[H] {
	t, err := Compile(routes)
	if err != nil {
		panic(err)
	}
	return t
}

func compileRoute[H any](key string, pos int, spec Spec[H]) (*Route[H], error) {
	verbs := spec.Verbs
	if len(verbs) == 0 {
		verbs = []Verb{VerbGet}
	}
	normalized := make([]Verb, 0, len(verbs))
	for _, v := range verbs {
		v = Verb(strings.ToLower(string(v)))
		if !v.Valid() {
			return nil, fmt.Errorf("%w: route %q: unknown verb %q", ErrInvalidRoute, key, v)
		}
		if !slices.Contains(normalized, v) {
			normalized = append(normalized, v)
		}
	}

	patterns := make([]*regexp.Regexp, len(spec.Params))
	for i, p := range spec.Params {
		re, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("%w: route %q: parameter %d: %w", ErrInvalidRoute, key, i, err)
		}
		patterns[i] = re
	}

	return &Route[H]{
		handler:    spec.Handler,
		key:        key,
		verbs:      normalized,
		params:     slices.Clone(spec.Params),
		patterns:   patterns,
		roles:      dedupe(spec.Roles),
		middleware: dedupe(spec.Middleware),
		position:   pos,
	}, nil
}

// Lookup returns the route stored under key at pos.
func (t *Table[H]) Lookup(pos int, key string) (*Route[H], bool) {
	r, ok := t.buckets[pos][strings.ToLower(key)]
	return r, ok
}

// Routes returns every compiled route ordered by position and key.
func (t *Table[H]) Routes() []*Route[H] {
	out := make([]*Route[H], 0)
	for _, bucket := range t.buckets {
		for _, r := range bucket {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b *Route[H]) int {
		if a.position != b.position {
			return a.position - b.position
		}
		return strings.Compare(a.key, b.key)
	})
	return out
}

// compilePattern anchors a parameter pattern so it must match the whole value.
func compilePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + p + `)$`)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
