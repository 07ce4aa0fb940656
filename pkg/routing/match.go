package routing

import (
	"slices"
	"strings"
)

// Match selects the route for verb and the segments left over after
// controller resolution. It returns the route and the positional parameters.
//
// Precedence:
//   - no segments: only the index route applies;
//   - otherwise the first position holding a route named like the segment
//     at that position wins, and that segment is not a parameter;
//   - a named match that does not allow verb fails without falling back;
//   - with no named match the root route applies if it allows verb;
//   - the route must declare exactly as many parameters as remain.
//
// Match never modifies the table.
func (t *Table[H]) Match(verb Verb, remaining []string) (*Route[H], []string, error) {
	first := t.buckets[0]

	if len(remaining) == 0 {
		if r, ok := first[IndexRoute]; ok && r.Allows(verb) {
			return r, []string{}, nil
		}
		return nil, nil, ErrRouteNotFound
	}

	var fallback *Route[H]
	if r, ok := first[RootRoute]; ok && r.Allows(verb) {
		fallback = r
	}

	var (
		matched *Route[H]
		params  []string
	)
	for pos, segment := range remaining {
		bucket, ok := t.buckets[pos]
		if !ok {
			continue
		}
		key := strings.ToLower(segment)
		if pos == 0 && (key == IndexRoute || key == RootRoute) {
			continue
		}
		r, ok := bucket[key]
		if !ok {
			continue
		}
		if !r.Allows(verb) {
			return nil, nil, ErrRouteNotFound
		}
		matched = r
		params = make([]string, 0, len(remaining)-1)
		params = append(params, remaining[:pos]...)
		params = append(params, remaining[pos+1:]...)
		break
	}

	if matched == nil {
		if fallback == nil {
			return nil, nil, ErrRouteNotFound
		}
		matched = fallback
		params = slices.Clone(remaining)
	}

	if len(matched.params) != len(params) {
		return nil, nil, ErrRouteNotFound
	}

	return matched, params, nil
}
