// Package id generates identifiers: ULIDs for requests and log records,
// UUIDs for visitors.
package id

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewULID returns a 26-character, time-ordered identifier.
// IDs made within the same millisecond are strictly increasing.
func NewULID() string {
	return ulid.Make().String()
}

// ULIDTime returns the creation time encoded in s.
func ULIDTime(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}

// NewVisitorID returns a random UUIDv4 string.
func NewVisitorID() string {
	return uuid.NewString()
}

// ValidVisitorID reports whether s is a canonical UUID, the form stored in
// the visitor cookie.
func ValidVisitorID(s string) bool {
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	return err == nil && strings.EqualFold(u.String(), s)
}
