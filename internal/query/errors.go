package query

import (
	"errors"
	"fmt"

	"github.com/imbrian/parcel/internal/graph"
)

// Error kinds. A failed query never ends the session; callers report the
// error and move on.
var (
	// ErrNotFound indicates a locator, key or symbol resolved to nothing.
	ErrNotFound = errors.New("not found")

	// ErrPrecondition indicates resolved entities fail a required
	// relationship check.
	ErrPrecondition = errors.New("precondition failed")

	// ErrMalformedInput indicates an argument that cannot be parsed.
	ErrMalformedInput = errors.New("malformed input")
)

// VariantError reports a node found with the wrong variant. It matches
// ErrPrecondition.
type VariantError struct {
	Key      string
	Expected graph.NodeType
	Actual   graph.NodeType
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("node %s is a %s, expected a %s", e.Key, e.Actual, e.Expected)
}

// Is reports whether target is ErrPrecondition.
func (e *VariantError) Is(target error) bool {
	return target == ErrPrecondition
}
