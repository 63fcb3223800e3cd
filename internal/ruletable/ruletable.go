// Package ruletable compiles the rule-table text format into an immutable
// Ruletable with dense dispatch tables for the reachability search.
package ruletable

import (
	"os"

	"github.com/mwien/CIfly/internal/expression"
)

// NoRule marks transitions no rule governs.
const NoRule = -1

// EdgeIDs is the id pair of an edge name. Forward == Reverse for symmetric
// edge types.
type EdgeIDs struct {
	Forward int
	Reverse int
}

// Symmetric reports whether both directions carry the same id.
func (e EdgeIDs) Symmetric() bool { return e.Forward == e.Reverse }

// Start seeds the search with every member of Set in state (Edge, Color).
type Start struct {
	Set   int
	Edge  int
	Color int
}

// Output marks (Edge, Color) states whose vertex belongs in the result.
type Output struct {
	Edge  int
	Color int
}

// Rule admits the transitions covered by Case when Expr evaluates to true.
type Rule struct {
	Case Case
	Expr expression.Expr
	Line int    // 1-based source line
	Text string // expression as written
}

// Ruletable is the compiled form of a rule table. It is read-only after
// Compile and safe for concurrent use.
type Ruletable struct {
	edges  map[string]EdgeIDs
	colors map[string]int
	sets   map[string]int

	starts  []Start
	outputs []Output
	rules   []Rule

	// toRule[((e1*C+c1)*E+e2)*C+c2] is the first matching rule or NoRule.
	toRule []int
	// colors c2 with a rule for (e1,c1,e2) are
	// toColor[toColorStart[k]:toColorStart[k+1]] with k = (e1*C+c1)*E+e2.
	toColorStart []int
	toColor      []int

	edgeNames  []string
	colorNames []string
	setNames   []string
}

// ReadFile compiles the rule table stored at path.
func ReadFile(path string) (*Ruletable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return Compile(string(b))
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Ruletable {
	rt, err := Compile(src)
	if err != nil {
		panic("ruletable: " + err.Error())
	}
	return rt
}

func (rt *Ruletable) NumEdges() int { return len(rt.edges) }

// NumColors is at least 1: a table without COLORS runs with a single
// implicit color.
func (rt *Ruletable) NumColors() int { return max(1, len(rt.colors)) }

func (rt *Ruletable) NumSets() int { return len(rt.sets) }

// Starts returns the start triples in declaration order. The slice must not
// be modified.
func (rt *Ruletable) Starts() []Start { return rt.starts }

// Outputs returns the output pairs in declaration order. The slice must not
// be modified.
func (rt *Ruletable) Outputs() []Output { return rt.outputs }

// Rules returns the rules in declaration order. The slice must not be
// modified.
func (rt *Ruletable) Rules() []Rule { return rt.rules }

// PossibleColors lists, in ascending order, the colors c2 for which some rule
// governs (e1,c1) → (e2,c2).
func (rt *Ruletable) PossibleColors(e1, c1, e2 int) []int {
	k := rt.colorIndex(e1, c1, e2)
	return rt.toColor[rt.toColorStart[k]:rt.toColorStart[k+1]]
}

// RuleFor returns the index of the first rule covering (e1,c1) → (e2,c2), or
// NoRule.
func (rt *Ruletable) RuleFor(e1, c1, e2, c2 int) int {
	return rt.toRule[rt.ruleIndex(e1, c1, e2, c2)]
}

// Pass evaluates the rule governing (e1,c1) → (e2,c2) for the vertices
// current and next. It panics if no rule governs the transition; callers
// only ask for colors returned by PossibleColors.
func (rt *Ruletable) Pass(m expression.Membership, e1, c1, e2, c2, current, next int) bool {
	r := rt.RuleFor(e1, c1, e2, c2)
	if r == NoRule {
		panic("ruletable: internal invariant violated: no rule for a possible color")
	}
	return expression.Evaluate(rt.rules[r].Expr, m, current, next)
}

// EdgeIDs resolves an edge name.
func (rt *Ruletable) EdgeIDs(name string) (EdgeIDs, bool) {
	ids, ok := rt.edges[name]
	return ids, ok
}

// ColorID resolves a color name.
func (rt *Ruletable) ColorID(name string) (int, bool) {
	id, ok := rt.colors[name]
	return id, ok
}

// SetID resolves a set name.
func (rt *Ruletable) SetID(name string) (int, bool) {
	id, ok := rt.sets[name]
	return id, ok
}

// EdgeNames returns edge names indexed by id.
func (rt *Ruletable) EdgeNames() []string { return rt.edgeNames }

// ColorNames returns color names indexed by id; empty without COLORS.
func (rt *Ruletable) ColorNames() []string { return rt.colorNames }

// SetNames returns set names indexed by id.
func (rt *Ruletable) SetNames() []string { return rt.setNames }

func (rt *Ruletable) ruleIndex(e1, c1, e2, c2 int) int {
	return rt.colorIndex(e1, c1, e2)*rt.NumColors() + c2
}

func (rt *Ruletable) colorIndex(e1, c1, e2 int) int {
	return (e1*rt.NumColors()+c1)*rt.NumEdges() + e2
}

// precompute fills the dispatch tables by scanning every quadruple against
// the rules in declaration order.
func (rt *Ruletable) precompute() {
	ne, nc := rt.NumEdges(), rt.NumColors()
	rt.toRule = make([]int, ne*nc*ne*nc)
	rt.toColorStart = make([]int, 0, ne*nc*ne+1)
	rt.toColor = rt.toColor[:0]
	for e1 := range ne {
		for c1 := range nc {
			for e2 := range ne {
				rt.toColorStart = append(rt.toColorStart, len(rt.toColor))
				for c2 := range nc {
					idx := rt.ruleIndex(e1, c1, e2, c2)
					rt.toRule[idx] = NoRule
					for i, r := range rt.rules {
						if r.Case.Matches(e1, c1, e2, c2) {
							rt.toRule[idx] = i
							rt.toColor = append(rt.toColor, c2)
							break
						}
					}
				}
			}
		}
	}
	rt.toColorStart = append(rt.toColorStart, len(rt.toColor))
}

func namesByID(m map[string]int) []string {
	out := make([]string, len(m))
	for name, id := range m {
		out[id] = name
	}
	return out
}
