package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier as string. It is a
// variable so tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// Sequence returns a generator yielding prefix-1, prefix-2, ... for tests that
// need stable identifiers. It is safe for concurrent use.
func Sequence(prefix string) func() string {
	var i atomic.Int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(i.Add(1), 10)
	}
}
