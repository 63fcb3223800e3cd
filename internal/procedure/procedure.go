// Package procedure provides named causal-inference algorithms built from
// one or more reach calls over embedded rule tables.
package procedure

import (
	"context"
	"embed"
	"fmt"
	"slices"

	"github.com/mwien/CIfly/internal/instance"
	"github.com/mwien/CIfly/internal/reach"
	"github.com/mwien/CIfly/internal/ruletable"
)

//go:embed tables/*.txt
var tableFS embed.FS

// Outcome is the result of running a procedure.
type Outcome struct {
	Procedure string `json:"procedure"`
	// Vertices is the computed vertex set, sorted ascending.
	Vertices []int `json:"vertices"`
	// Holds is set by procedures that answer a yes/no question.
	Holds *bool `json:"holds,omitempty"`
}

// Procedure is the interface all built-in algorithms satisfy.
type Procedure interface {
	// Name returns the key the procedure is registered under.
	Name() string
	Description() string
	// Sets lists the set names the procedure reads.
	Sets() []string
	// Validate rejects set arguments the procedure cannot use.
	Validate(sets map[string][]int) error
	Run(ctx context.Context, edges map[string][][2]int, sets map[string][]int) (*Outcome, error)
}

func mustTable(name string) *ruletable.Ruletable {
	src, err := tableFS.ReadFile("tables/" + name + ".txt")
	if err != nil {
		panic(fmt.Sprintf("procedure: embedded table %s: %v", name, err))
	}
	return ruletable.MustCompile(string(src))
}

// run performs one search of rt. Missing sets are empty.
func run(rt *ruletable.Ruletable, edges map[string][][2]int, sets map[string][]int) ([]int, error) {
	g, err := instance.NewGraph(edges, rt)
	if err != nil {
		return nil, err
	}
	s, err := instance.NewSets(sets, rt)
	if err != nil {
		return nil, err
	}
	vs := reach.Reach(g, s, rt, reach.Settings{})
	slices.Sort(vs)
	return vs, nil
}

func validateSets(name string, allowed []string, sets map[string][]int) error {
	for k := range sets {
		if !slices.Contains(allowed, k) {
			return fmt.Errorf("%s: unexpected set %q, expected one of %v", name, k, allowed)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Single-table procedures
// ---------------------------------------------------------------------------

// tableProcedure returns the reach result of one table for the given sets.
type tableProcedure struct {
	name, description string
	table             *ruletable.Ruletable
}

func (p *tableProcedure) Name() string        { return p.name }
func (p *tableProcedure) Description() string { return p.description }
func (p *tableProcedure) Sets() []string      { return p.table.SetNames() }

func (p *tableProcedure) Validate(sets map[string][]int) error {
	return validateSets(p.name, p.Sets(), sets)
}

func (p *tableProcedure) Run(ctx context.Context, edges map[string][][2]int, sets map[string][]int) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vs, err := run(p.table, edges, sets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return &Outcome{Procedure: p.name, Vertices: vs}, nil
}

// NewAncestors returns the procedure computing the ancestors of X.
func NewAncestors() Procedure {
	return &tableProcedure{
		name:        "ancestors",
		description: "ancestors of X in a directed graph, X included",
		table:       ancestorsTable,
	}
}

// NewDescendants returns the procedure computing the descendants of X.
func NewDescendants() Procedure {
	return &tableProcedure{
		name:        "descendants",
		description: "descendants of X in a directed graph, X included",
		table:       mustTable("descendants"),
	}
}

var ancestorsTable = mustTable("ancestors")

// ---------------------------------------------------------------------------
// d-separation
// ---------------------------------------------------------------------------

// DSep tests whether X and Y are d-separated given Z in a DAG. Outcome
// vertices are the vertices d-connected to X given Z.
type DSep struct {
	conn *ruletable.Ruletable
}

func NewDSep() *DSep { return &DSep{conn: mustTable("dconnected")} }

func (d *DSep) Name() string { return "dsep" }

func (d *DSep) Description() string {
	return "d-separation of X and Y given Z in a DAG; vertices are those d-connected to X"
}

func (d *DSep) Sets() []string { return []string{"X", "Y", "Z"} }

func (d *DSep) Validate(sets map[string][]int) error {
	if err := validateSets(d.Name(), d.Sets(), sets); err != nil {
		return err
	}
	if len(sets["X"]) == 0 || len(sets["Y"]) == 0 {
		return fmt.Errorf("dsep: sets X and Y must not be empty")
	}
	return nil
}

func (d *DSep) Run(ctx context.Context, edges map[string][][2]int, sets map[string][]int) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	anc, err := run(ancestorsTable, edges, map[string][]int{"X": sets["Z"]})
	if err != nil {
		return nil, fmt.Errorf("dsep: ancestors of Z: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := run(d.conn, edges, map[string][]int{"X": sets["X"], "Z": sets["Z"], "A": anc})
	if err != nil {
		return nil, fmt.Errorf("dsep: %w", err)
	}
	holds := true
	for _, y := range sets["Y"] {
		if _, found := slices.BinarySearch(conn, y); found {
			holds = false
			break
		}
	}
	return &Outcome{Procedure: d.Name(), Vertices: conn, Holds: &holds}, nil
}

var _ Procedure = (*DSep)(nil)
