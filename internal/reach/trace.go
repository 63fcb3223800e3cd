package reach

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mwien/CIfly/internal/instance"
	"github.com/mwien/CIfly/internal/ruletable"
)

// tracer renders search steps with the table's display names. A nil tracer
// discards everything.
type tracer struct {
	w          io.Writer
	edges      []string
	colors     []string
	oneIndexed bool
}

func newTracer(rt *ruletable.Ruletable, s Settings) *tracer {
	w := s.Trace
	if w == nil {
		w = os.Stdout
	}
	return &tracer{w: w, edges: rt.EdgeNames(), colors: rt.ColorNames(), oneIndexed: s.OneIndexed}
}

func (t *tracer) initial(rt *ruletable.Ruletable, sets *instance.Sets) {
	var states []string
	for _, start := range rt.Starts() {
		for v := range sets.Members(start.Set) {
			states = append(states, t.state(State{Node: v, Edge: start.Edge, Color: start.Color}))
		}
	}
	fmt.Fprintf(t.w, "Initial States: %s\n", strings.Join(states, ", "))
}

func (t *tracer) processing(s State) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.w, "Processing state %s\n", t.state(s))
}

func (t *tracer) transition(s1, s2 State) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.w, "  Found transition '%s %s', add state '%s' to queue\n", t.step(s1), t.step(s2), t.state(s2))
}

func (t *tracer) state(s State) string {
	if len(t.colors) == 0 {
		return fmt.Sprintf("(%s, %s)", t.node(s.Node), name(t.edges, s.Edge))
	}
	return fmt.Sprintf("%s, %s, %s", t.node(s.Node), name(t.edges, s.Edge), name(t.colors, s.Color))
}

// step renders the arc-and-vertex half of a transition: "--> [init] 1".
func (t *tracer) step(s State) string {
	if len(t.colors) == 0 {
		return name(t.edges, s.Edge) + " " + t.node(s.Node)
	}
	return fmt.Sprintf("%s [%s] %s", name(t.edges, s.Edge), name(t.colors, s.Color), t.node(s.Node))
}

func (t *tracer) node(v int) string {
	if t.oneIndexed {
		v++
	}
	return strconv.Itoa(v)
}

func name(names []string, id int) string {
	if id < len(names) {
		return names[id]
	}
	return strconv.Itoa(id)
}
