// Package reach runs the rule-table driven breadth-first search over
// (vertex, edge type, color) states.
package reach

import (
	"io"

	"github.com/bits-and-blooms/bitset"

	"github.com/mwien/CIfly/internal/instance"
	"github.com/mwien/CIfly/internal/ruletable"
)

// State is a location in the product of graph vertices, edge types and
// colors. Edge is the type of the arc the search arrived through.
type State struct {
	Node  int
	Edge  int
	Color int
}

// Settings controls the optional step trace.
type Settings struct {
	Verbose    bool      // write the step trace
	OneIndexed bool      // print vertices 1-based in the trace
	Trace      io.Writer // trace sink, os.Stdout when nil
}

// Result is the outcome of one search.
type Result struct {
	// Vertices with at least one visited output state, in discovery order.
	Vertices []int
	// StatesVisited counts distinct states marked during the search.
	StatesVisited int
}

// Reach returns the vertices reachable from the table's start states that
// reach an output state. The result holds no duplicates; its order follows
// discovery but callers should treat it as a set.
func Reach(g *instance.Graph, sets *instance.Sets, rt *ruletable.Ruletable, settings Settings) []int {
	return Run(g, sets, rt, settings).Vertices
}

// Run is Reach with search statistics. Every call owns its visited store and
// queue, so concurrent calls may share g, sets and rt.
func Run(g *instance.Graph, sets *instance.Sets, rt *ruletable.Ruletable, settings Settings) Result {
	return run(g, sets, rt, settings, nil)
}

// run is Run with an optional callback invoked once per newly marked state.
func run(g *instance.Graph, sets *instance.Sets, rt *ruletable.Ruletable, settings Settings, visit func(State)) Result {
	n := max(g.NumVertices(), sets.MaxSize())
	ne, nc := max(1, rt.NumEdges()), rt.NumColors()
	visited := bitset.New(uint(n * ne * nc))
	index := func(s State) uint { return uint((s.Node*ne+s.Edge)*nc + s.Color) }
	seen := func(s State) bool { return visited.Test(index(s)) }
	mark := func(s State) bool {
		if seen(s) {
			return false
		}
		visited.Set(index(s))
		if visit != nil {
			visit(s)
		}
		return true
	}

	var tr *tracer
	if settings.Verbose {
		tr = newTracer(rt, settings)
		tr.initial(rt, sets)
	}

	isOutput := make([]bool, ne*nc)
	for _, o := range rt.Outputs() {
		isOutput[o.Edge*nc+o.Color] = true
	}
	added := bitset.New(uint(n))
	res := Result{Vertices: []int{}}
	collect := func(s State) {
		if isOutput[s.Edge*nc+s.Color] && !added.Test(uint(s.Node)) {
			added.Set(uint(s.Node))
			res.Vertices = append(res.Vertices, s.Node)
		}
	}

	var queue []State
	for _, start := range rt.Starts() {
		for v := range sets.Members(start.Set) {
			s := State{Node: v, Edge: start.Edge, Color: start.Color}
			if !mark(s) {
				continue
			}
			res.StatesVisited++
			// only present in a set: no arcs to follow
			if v >= g.NumVertices() {
				collect(s)
				continue
			}

			queue = append(queue[:0], s)
			for head := 0; head < len(queue); head++ {
				s1 := queue[head]
				collect(s1)
				tr.processing(s1)
				for _, arc := range g.Neighbors(s1.Node) {
					for _, c2 := range rt.PossibleColors(s1.Edge, s1.Color, arc.Edge) {
						s2 := State{Node: arc.To, Edge: arc.Edge, Color: c2}
						if seen(s2) || !rt.Pass(sets, s1.Edge, s1.Color, s2.Edge, s2.Color, s1.Node, s2.Node) {
							continue
						}
						mark(s2)
						res.StatesVisited++
						queue = append(queue, s2)
						tr.transition(s1, s2)
					}
				}
			}
		}
	}
	return res
}
