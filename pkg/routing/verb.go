package routing

import (
	"net/http"
	"strings"
)

// Verb is a normalized request method.
type Verb string

const (
	VerbGet    Verb = "get"
	VerbPost   Verb = "post"
	VerbPut    Verb = "put"
	VerbDelete Verb = "delete"
)

// ParseVerb maps an HTTP method onto a Verb.
// PATCH is folded into put and HEAD into get. Any other method is unsupported.
func ParseVerb(method string) (Verb, bool) {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead:
		return VerbGet, true
	case http.MethodPost:
		return VerbPost, true
	case http.MethodPut, http.MethodPatch:
		return VerbPut, true
	case http.MethodDelete:
		return VerbDelete, true
	default:
		return "", false
	}
}

// Valid reports whether v is one of the four known verbs.
func (v Verb) Valid() bool {
	switch v {
	case VerbGet, VerbPost, VerbPut, VerbDelete:
		return true
	}
	return false
}

func (v Verb) String() string {
	return string(v)
}
