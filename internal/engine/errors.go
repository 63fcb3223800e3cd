package engine

import "errors"

var (
	ErrUnknownTable = errors.New("unknown table")
	ErrQueueFull    = errors.New("query queue full")
	ErrTimeout      = errors.New("query timeout")
	ErrTooLarge     = errors.New("query too large")
	ErrClosed       = errors.New("engine shut down")
)

// Stages a QueryError can originate from.
const (
	StageInput    = "input"    // malformed request
	StageCompile  = "compile"  // inline rule table
	StageInstance = "instance" // graph or set construction
)

// QueryError reports a query that was well-formed as a request but could
// not be turned into a table or an instance.
type QueryError struct {
	Stage string
	Err   error
}

func (e *QueryError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }

// statusOf maps an outcome to the metrics status label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrQueueFull):
		return "dropped"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	}
	return "error"
}
