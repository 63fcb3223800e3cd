// Package input decodes query instances: edge lists and set memberships
// supplied as YAML, JSON or edge-list text.
package input

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Instance is the document form of a graph and its sets. JSON documents
// decode through the same path since yaml.v3 accepts JSON.
type Instance struct {
	Edges map[string][][]int `yaml:"edges" json:"edges"`
	Sets  map[string][]int   `yaml:"sets" json:"sets"`
}

// DecodeInstance parses a YAML or JSON instance document.
func DecodeInstance(data []byte) (*Instance, error) {
	var inst Instance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("parse instance: %w", err)
	}
	return &inst, nil
}

// ReadInstance loads an instance from path. Files ending in .edges or .txt
// are read as edge-list text without sets; anything else as YAML or JSON.
func ReadInstance(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".edges", ".txt":
		edges, err := ParseEdgeText(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		inst := &Instance{Edges: make(map[string][][]int, len(edges))}
		for name, pairs := range edges {
			for _, p := range pairs {
				inst.Edges[name] = append(inst.Edges[name], []int{p[0], p[1]})
			}
		}
		return inst, nil
	}
	inst, err := DecodeInstance(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

// EdgePairs checks that every edge has exactly two endpoints.
func EdgePairs(edges map[string][][]int) (map[string][][2]int, error) {
	out := make(map[string][][2]int, len(edges))
	for _, name := range slices.Sorted(maps.Keys(edges)) {
		pairs := make([][2]int, 0, len(edges[name]))
		for i, e := range edges[name] {
			if len(e) != 2 {
				return nil, fmt.Errorf("edges %q[%d]: expected 2 endpoints, got %d", name, i, len(e))
			}
			pairs = append(pairs, [2]int{e[0], e[1]})
		}
		out[name] = pairs
	}
	return out, nil
}

// Shift adds delta to every vertex id, typically -1 to turn 1-based input
// into 0-based ids. Ids that end up negative are rejected.
func Shift(edges map[string][][2]int, sets map[string][]int, delta int) (map[string][][2]int, map[string][]int, error) {
	outEdges := make(map[string][][2]int, len(edges))
	for name, pairs := range edges {
		shifted := make([][2]int, len(pairs))
		for i, p := range pairs {
			u, v := p[0]+delta, p[1]+delta
			if u < 0 || v < 0 {
				return nil, nil, fmt.Errorf("edges %q: vertex id out of range in (%d, %d)", name, p[0], p[1])
			}
			shifted[i] = [2]int{u, v}
		}
		outEdges[name] = shifted
	}
	outSets := make(map[string][]int, len(sets))
	for name, elems := range sets {
		shifted := make([]int, len(elems))
		for i, x := range elems {
			if x+delta < 0 {
				return nil, nil, fmt.Errorf("set %q: vertex id %d out of range", name, x)
			}
			shifted[i] = x + delta
		}
		outSets[name] = shifted
	}
	return outEdges, outSets, nil
}

// ShiftVertices returns a copy of vs with delta added to every id.
func ShiftVertices(vs []int, delta int) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = v + delta
	}
	return out
}

// ParseSetFlag parses "NAME=1,2,3". An empty list ("NAME=") is an empty set.
func ParseSetFlag(s string) (string, []int, error) {
	name, list, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("set %q: expected NAME=ID[,ID...]", s)
	}
	ids := []int{}
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.Atoi(f)
		if err != nil {
			return "", nil, fmt.Errorf("set %s: %w", name, err)
		}
		ids = append(ids, id)
	}
	return name, ids, nil
}
