package routing

import (
	"fmt"
	"regexp"
	"strings"
)

// pathPattern whitelists the characters a routable path may contain.
var pathPattern = regexp.MustCompile(`^[\w/$\-.+!*]*$`)

// Request is a parsed inbound request: its verb and path segments.
type Request struct {
	Verb     Verb
	Segments []string
}

// NewRequest parses a method and a URL path.
// Unsupported methods and paths with characters outside the whitelist
// are reported as ErrRouteNotFound.
func NewRequest(method, path string) (Request, error) {
	verb, ok := ParseVerb(method)
	if !ok {
		return Request{}, fmt.Errorf("%w: unsupported method %s", ErrRouteNotFound, method)
	}
	if !ValidPath(path) {
		return Request{}, fmt.Errorf("%w: invalid path", ErrRouteNotFound)
	}
	return Request{Verb: verb, Segments: Split(path)}, nil
}

// Split breaks a path on "/" and drops empty elements.
// Segment values are kept verbatim. The root path yields an empty slice.
func Split(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// ValidPath reports whether path only contains routable characters.
func ValidPath(path string) bool {
	return pathPattern.MatchString(path)
}
