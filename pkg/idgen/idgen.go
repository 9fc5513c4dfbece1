// Package idgen generates snapshot identifiers.
//
// The store derives file names from identifiers, so every generator here
// produces file-name-safe strings and Valid rejects anything else.
package idgen

import (
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers
type Generator func() string

// UUIDv7 returns a Generator of RFC 9562 version 7 UUIDs. They sort by
// creation time, which keeps snapshot files in a stable order on disk.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Sequence returns a Generator of "<prefix>-0001", "<prefix>-0002", ...
// Handy for deterministic tests.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%04d", prefix, n.Add(1))
	}
}

// Default is the generator used when none is configured
var Default Generator = UUIDv7()

// New produces an ID using the Default generator
func New() string {
	return Default()
}

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// Valid reports whether id is safe to embed in a file name
func Valid(id string) bool {
	return validID.MatchString(id) && id != "." && id != ".."
}
