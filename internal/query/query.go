// Package query defines the request and response models of the reach
// service.
package query

import (
	"errors"
	"time"
)

// Query is one reachability request. Exactly one of Table (a catalog name)
// or Source (inline rule-table text) is set.
type Query struct {
	ID         string             `json:"id,omitempty"`
	Table      string             `json:"table,omitempty"`
	Source     string             `json:"source,omitempty"`
	Edges      map[string][][]int `json:"edges"`
	Sets       map[string][]int   `json:"sets"`
	Verbose    bool               `json:"verbose,omitempty"`     // capture the step trace
	OneIndexed bool               `json:"one_indexed,omitempty"` // vertex ids start at 1
	ReceivedAt time.Time          `json:"-"`
}

// Validate checks the table selection.
func (q *Query) Validate() error {
	switch {
	case q.Table != "" && q.Source != "":
		return errors.New("only one of table/source may be set")
	case q.Table == "" && q.Source == "":
		return errors.New("one of table/source must be set")
	}
	return nil
}

// Result is the outcome of a Query.
type Result struct {
	QueryID       string `json:"query_id"`
	Table         string `json:"table,omitempty"`
	Reachable     []int  `json:"reachable"`
	StatesVisited int    `json:"states_visited"`
	DurationMs    int64  `json:"duration_ms"`
	Trace         string `json:"trace,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BatchResult collects the results of a batch in request order. Failed
// queries carry Error instead of failing the whole batch.
type BatchResult struct {
	BatchID string    `json:"batch_id"`
	Results []*Result `json:"results"`
}

// ProcedureRequest runs a named built-in procedure.
type ProcedureRequest struct {
	ID         string             `json:"id,omitempty"`
	Edges      map[string][][]int `json:"edges"`
	Sets       map[string][]int   `json:"sets"`
	OneIndexed bool               `json:"one_indexed,omitempty"`
}

// ProcedureResult is the outcome of a ProcedureRequest.
type ProcedureResult struct {
	QueryID    string `json:"query_id"`
	Procedure  string `json:"procedure"`
	Vertices   []int  `json:"vertices"`
	Holds      *bool  `json:"holds,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}
