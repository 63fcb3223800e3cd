package instance

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEdge      = errors.New("edge was not specified in rule table")
	ErrUnknownSet       = errors.New("set was not specified in rule table")
	ErrDuplicateElement = errors.New("duplicate entry")
	ErrNegativeVertex   = errors.New("negative vertex id")
)

// Error reports an edge list or set that does not fit the rule table.
type Error struct {
	Kind string // "edge" or "set"
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
