// Package instance builds the per-query inputs of a search, a Graph and its
// Sets, in the id space of a compiled rule table.
package instance

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/mwien/CIfly/internal/ruletable"
)

// Arc is one direction of an input edge.
type Arc struct {
	To   int
	Edge int // edge-type id: forward for u→v, reverse for v→u
}

// Graph is a compressed adjacency structure over vertices 0..NumVertices()-1.
// It is immutable and safe for concurrent use.
type Graph struct {
	offsets []int // len n+1; arcs of u are arcs[offsets[u]:offsets[u+1]]
	arcs    []Arc
}

// NewGraph builds the adjacency of edges, a map from edge name to (u,v)
// pairs. Every pair yields the arc u→v labelled with the forward id and v→u
// labelled with the reverse id.
//
// Neighbors are ordered by edge-type id and, within one type, by input
// order, so the result does not depend on map iteration.
func NewGraph(edges map[string][][2]int, rt *ruletable.Ruletable) (*Graph, error) {
	type typed struct {
		ids   ruletable.EdgeIDs
		pairs [][2]int
	}
	lists := make([]typed, 0, len(edges))
	n := 0
	for _, name := range slices.Sorted(maps.Keys(edges)) {
		ids, ok := rt.EdgeIDs(name)
		if !ok {
			return nil, &Error{Kind: "edge", Name: name, Err: ErrUnknownEdge}
		}
		for _, p := range edges[name] {
			if p[0] < 0 || p[1] < 0 {
				return nil, &Error{Kind: "edge", Name: name, Err: fmt.Errorf("%w: (%d, %d)", ErrNegativeVertex, p[0], p[1])}
			}
			n = max(n, p[0]+1, p[1]+1)
		}
		lists = append(lists, typed{ids: ids, pairs: edges[name]})
	}
	slices.SortFunc(lists, func(a, b typed) int { return cmp.Compare(a.ids.Forward, b.ids.Forward) })

	offsets := make([]int, n+1)
	for _, l := range lists {
		for _, p := range l.pairs {
			offsets[p[0]+1]++
			offsets[p[1]+1]++
		}
	}
	for u := range n {
		offsets[u+1] += offsets[u]
	}

	arcs := make([]Arc, offsets[n])
	fill := slices.Clone(offsets[:n])
	for _, l := range lists {
		for _, p := range l.pairs {
			u, v := p[0], p[1]
			arcs[fill[u]] = Arc{To: v, Edge: l.ids.Forward}
			fill[u]++
			arcs[fill[v]] = Arc{To: u, Edge: l.ids.Reverse}
			fill[v]++
		}
	}
	return &Graph{offsets: offsets, arcs: arcs}, nil
}

// NumVertices is one more than the largest vertex id of any edge, or 0 for
// a graph without edges.
func (g *Graph) NumVertices() int { return len(g.offsets) - 1 }

// NumArcs is twice the number of input edges.
func (g *Graph) NumArcs() int { return len(g.arcs) }

// Neighbors returns the arcs leaving u. The slice must not be modified.
func (g *Graph) Neighbors(u int) []Arc {
	return g.arcs[g.offsets[u]:g.offsets[u+1]]
}
