package cli

import (
	"errors"
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/mwien/CIfly/internal/input"
)

// instanceFlags select the graph and sets of a run.
type instanceFlags struct {
	graph      string   // instance file with edges, optionally sets
	setsFile   string   // instance file whose sets are merged in
	sets       []string // NAME=ID,... overrides
	oneIndexed bool
}

// errMissingGraph reports a run without --graph where the flag is optional.
var errMissingGraph = errors.New(`required flag(s) "graph" not set`)

func (f *instanceFlags) register(cmd *cobra.Command, required bool) {
	cmd.Flags().StringVarP(&f.graph, "graph", "g", "", "graph file (.yaml, .json, or .edges edge list)")
	cmd.Flags().StringVar(&f.setsFile, "sets", "", "file with set memberships (.yaml or .json)")
	cmd.Flags().StringArrayVarP(&f.sets, "set", "s", nil, "set membership NAME=ID,ID,... (repeatable)")
	cmd.Flags().BoolVar(&f.oneIndexed, "one-indexed", false, "vertex ids start at 1")
	if required {
		_ = cmd.MarkFlagRequired("graph")
	}
}

// load reads the instance and returns 0-based edges and sets. Later sources
// override earlier ones per set name: graph file, sets file, --set flags.
func (f *instanceFlags) load() (map[string][][2]int, map[string][]int, error) {
	inst, err := input.ReadInstance(f.graph)
	if err != nil {
		return nil, nil, err
	}
	sets := make(map[string][]int, len(inst.Sets))
	maps.Copy(sets, inst.Sets)
	if f.setsFile != "" {
		extra, err := input.ReadInstance(f.setsFile)
		if err != nil {
			return nil, nil, err
		}
		maps.Copy(sets, extra.Sets)
	}
	for _, s := range f.sets {
		name, ids, err := input.ParseSetFlag(s)
		if err != nil {
			return nil, nil, err
		}
		sets[name] = ids
	}

	edges, err := input.EdgePairs(inst.Edges)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", f.graph, err)
	}
	if f.oneIndexed {
		return input.Shift(edges, sets, -1)
	}
	return edges, sets, nil
}

// display converts 0-based ids for output.
func (f *instanceFlags) display(vs []int) []int {
	if f.oneIndexed {
		return input.ShiftVertices(vs, 1)
	}
	return vs
}
