package ruletable

import (
	"errors"
	"fmt"
)

var (
	// ErrUndeclared is returned when a pattern, START or rule references a
	// name missing from the EDGES, COLORS or SETS declarations.
	ErrUndeclared = errors.New("undeclared name")
	// ErrDuplicate is returned when a declaration lists the same name twice.
	ErrDuplicate = errors.New("duplicate name")
	// ErrMalformed covers bracket, delimiter and segment-count errors.
	ErrMalformed = errors.New("malformed line")
)

// CompileError locates a failure in rule-table source.
type CompileError struct {
	Line int      // 1-based
	Kind LineKind // classification of the failing line
	Text string   // the line, truncated to 80 characters
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: trying to parse a %s line: %v\n  %s", e.Line, e.Kind, e.Err, e.Text)
}

func (e *CompileError) Unwrap() error { return e.Err }

// ReadError is returned by ReadFile when the source cannot be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read rule table %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

const maxErrorText = 80

func truncate(line string) string {
	r := []rune(line)
	if len(r) <= maxErrorText {
		return line
	}
	return string(r[:maxErrorText]) + "..."
}
