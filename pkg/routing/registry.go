package routing

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// maxDepth is how many leading segments may name a controller.
const maxDepth = 3

var segmentPattern = regexp.MustCompile(`^\w+$`)

// Config names the controller namespace and the two reserved controllers.
// Default and Home are controller paths relative to the namespace.
type Config struct {
	Namespace string
	Default   string
	Home      string
}

// Match is the outcome of controller resolution.
type Match[V any] struct {
	Controller V
	ID         string   // namespace-qualified identifier, e.g. "app/Admin/Users"
	Path       string   // identifier without the namespace, e.g. "Admin/Users"
	Remaining  []string // segments not consumed by the controller path
}

// Registry maps controller paths onto controllers.
// Register is meant for application setup; Resolve is safe for concurrent
// use once registration is over.
type Registry[V any] struct {
	entries   map[string]V
	paths     map[string]string
	namespace string
	defaultID string
	homeID    string
}

// NewRegistry creates an empty registry.
func NewRegistry[V any](cfg Config) *Registry[V] {
	r := &Registry[V]{
		entries:   make(map[string]V),
		paths:     make(map[string]string),
		namespace: strings.Trim(cfg.Namespace, "/\\"),
	}
	if cfg.Default != "" {
		r.defaultID, _ = r.identify(Split(cfg.Default))
	}
	if cfg.Home != "" {
		r.homeID, _ = r.identify(Split(cfg.Home))
	}
	return r
}

// Register adds a controller under path, e.g. "admin/users".
// Paths are case-insensitive, made of one to three word segments.
// The home controller is registered under the configured home path.
func (r *Registry[V]) Register(path string, v V) error {
	segments := Split(path)
	if len(segments) == 0 || len(segments) > maxDepth {
		return fmt.Errorf("%w: %q must have 1 to %d segments", ErrInvalidController, path, maxDepth)
	}
	id, ok := r.identify(segments)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidController, path)
	}
	if id == r.defaultID {
		return fmt.Errorf("%w: %q", ErrReservedController, path)
	}
	if _, dup := r.entries[id]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateController, path)
	}
	r.entries[id] = v
	r.paths[id] = r.relative(id)
	return nil
}

// Resolve finds the controller for segments.
//
// Candidates are built from the first 1, 2 and 3 segments in that order,
// so shorter controller paths take precedence. Candidates naming the home
// or default controller are skipped. When no candidate exists the home
// controller receives all segments.
func (r *Registry[V]) Resolve(segments []string) (Match[V], error) {
	n := min(maxDepth, len(segments))

	for i := 0; i <= n; i++ {
		var (
			id        string
			remaining []string
		)
		if i == n {
			id, remaining = r.homeID, segments
		} else {
			var ok bool
			id, ok = r.identify(segments[:i+1])
			if !ok || id == r.homeID || id == r.defaultID {
				continue
			}
			remaining = segments[i+1:]
		}
		if id == "" {
			continue
		}
		if v, ok := r.entries[id]; ok {
			return Match[V]{
				Controller: v,
				ID:         id,
				Path:       r.paths[id],
				Remaining:  slices.Clone(remaining),
			}, nil
		}
	}

	return Match[V]{}, fmt.Errorf("%w: no controller for %d segment(s)", ErrRouteNotFound, len(segments))
}

// Lookup returns the controller registered under path.
func (r *Registry[V]) Lookup(path string) (V, bool) {
	id, ok := r.identify(Split(path))
	if !ok {
		var zero V
		return zero, false
	}
	v, ok := r.entries[id]
	return v, ok
}

// IDs returns all registered identifiers in sorted order.
func (r *Registry[V]) IDs() []string {
	return slices.Sorted(maps.Keys(r.entries))
}

// HomeID returns the home controller identifier.
func (r *Registry[V]) HomeID() string { return r.homeID }

// DefaultID returns the default controller identifier.
func (r *Registry[V]) DefaultID() string { return r.defaultID }

// identify builds the identifier for a controller path. It reports false
// when a segment is not a plain word.
func (r *Registry[V]) identify(segments []string) (string, bool) {
	if len(segments) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(segments)+1)
	if r.namespace != "" {
		parts = append(parts, r.namespace)
	}
	for _, s := range segments {
		if !segmentPattern.MatchString(s) {
			return "", false
		}
		parts = append(parts, capitalize(s))
	}
	return strings.Join(parts, "/"), true
}

func (r *Registry[V]) relative(id string) string {
	if r.namespace == "" {
		return id
	}
	return strings.TrimPrefix(id, r.namespace+"/")
}
