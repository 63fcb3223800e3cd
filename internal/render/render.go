// Package render draws an instance graph and its reach result as Graphviz
// DOT or SVG.
package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/mwien/CIfly/internal/ruletable"
)

// Options configures rendering.
type Options struct {
	// Table decides which edge types are symmetric. Without it every edge
	// is drawn directed.
	Table *ruletable.Ruletable
	// Sets annotates their member vertices with the set name.
	Sets map[string][]int
	// OneIndexed labels vertices starting from 1.
	OneIndexed bool
	Title      string
}

const reachedColor = "lightblue"

// ToDOT converts an instance to DOT. Vertices in reached are filled.
// Vertices and edges are emitted in a deterministic order.
func ToDOT(edges map[string][][2]int, reached []int, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", opts.Title)
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	hit := make(map[int]bool, len(reached))
	for _, v := range reached {
		hit[v] = true
	}
	members := memberships(opts.Sets)
	for v := range numVertices(edges, reached, opts.Sets) {
		attrs := []string{fmt.Sprintf("label=%q", label(v, opts.OneIndexed))}
		if hit[v] {
			attrs = append(attrs, "fillcolor="+reachedColor)
		}
		if names := members[v]; len(names) > 0 {
			attrs = append(attrs, fmt.Sprintf("xlabel=%q", strings.Join(names, ",")))
		}
		fmt.Fprintf(&buf, "  %d [%s];\n", v, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, name := range slices.Sorted(maps.Keys(edges)) {
		attrs := []string{fmt.Sprintf("label=%q", name)}
		if symmetric(opts.Table, name) {
			attrs = append(attrs, "dir=none")
		}
		for _, e := range edges[name] {
			fmt.Fprintf(&buf, "  %d -> %d [%s];\n", e[0], e[1], strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(v int, oneIndexed bool) string {
	if oneIndexed {
		v++
	}
	return strconv.Itoa(v)
}

func symmetric(rt *ruletable.Ruletable, name string) bool {
	if rt == nil {
		return false
	}
	ids, ok := rt.EdgeIDs(name)
	return ok && ids.Symmetric()
}

// memberships maps each vertex to the sorted names of the sets holding it.
func memberships(sets map[string][]int) map[int][]string {
	out := make(map[int][]string)
	for _, name := range slices.Sorted(maps.Keys(sets)) {
		for _, v := range sets[name] {
			if !slices.Contains(out[v], name) {
				out[v] = append(out[v], name)
			}
		}
	}
	return out
}

func numVertices(edges map[string][][2]int, reached []int, sets map[string][]int) int {
	n := 0
	for _, pairs := range edges {
		for _, e := range pairs {
			n = max(n, e[0]+1, e[1]+1)
		}
	}
	for _, v := range reached {
		n = max(n, v+1)
	}
	for _, vs := range sets {
		for _, v := range vs {
			n = max(n, v+1)
		}
	}
	return n
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
