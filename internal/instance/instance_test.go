package instance

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwien/CIfly/internal/ruletable"
)

var table = ruletable.MustCompile(`
EDGES --> <--, ---
SETS X, Z
COLORS init, yield
START ... [init] AT X
OUTPUT ... [yield]
... [init]  | ---      [yield] | next not in X
... [yield] | ---, --> [yield] | next not in X`)

func TestNewGraph(t *testing.T) {
	g, err := NewGraph(map[string][][2]int{
		"-->": {{2, 1}, {2, 3}, {3, 4}, {5, 4}},
		"---": {{0, 1}, {0, 2}},
	}, table)
	require.NoError(t, err)

	assert.Equal(t, 6, g.NumVertices())
	assert.Equal(t, 12, g.NumArcs())

	want := [][]Arc{
		{{1, 2}, {2, 2}},
		{{2, 1}, {0, 2}},
		{{1, 0}, {3, 0}, {0, 2}},
		{{2, 1}, {4, 0}},
		{{3, 1}, {5, 1}},
		{{4, 0}},
	}
	for u, arcs := range want {
		assert.Equal(t, arcs, g.Neighbors(u), "neighbors of %d", u)
	}
}

func TestNewGraph_Empty(t *testing.T) {
	g, err := NewGraph(nil, table)
	require.NoError(t, err)
	assert.Equal(t, 0, g.NumVertices())

	g, err = NewGraph(map[string][][2]int{"-->": {}}, table)
	require.NoError(t, err)
	assert.Equal(t, 0, g.NumVertices())
}

func TestNewGraph_SymmetricEdge(t *testing.T) {
	g, err := NewGraph(map[string][][2]int{"---": {{0, 3}}}, table)
	require.NoError(t, err)

	assert.Equal(t, 4, g.NumVertices())
	assert.Equal(t, []Arc{{To: 3, Edge: 2}}, g.Neighbors(0))
	assert.Equal(t, []Arc{{To: 0, Edge: 2}}, g.Neighbors(3))
	assert.Empty(t, g.Neighbors(1))
}

func TestNewGraph_Errors(t *testing.T) {
	cases := []struct {
		name  string
		edges map[string][][2]int
		is    error
		msg   string
	}{
		{"unknown edge", map[string][][2]int{"-->": {{0, 1}}, "<->": {{1, 2}}}, ErrUnknownEdge, "edge <->"},
		{"negative vertex", map[string][][2]int{"---": {{0, -1}}}, ErrNegativeVertex, "(0, -1)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGraph(tc.edges, table)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.is)
			var ie *Error
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, "edge", ie.Kind)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestNewSets(t *testing.T) {
	s, err := NewSets(map[string][]int{"X": {4, 1}}, table)
	require.NoError(t, err)

	assert.True(t, s.Contains(0, 1))
	assert.True(t, s.Contains(0, 4))
	assert.False(t, s.Contains(0, 2))
	assert.False(t, s.Contains(0, 100))
	assert.False(t, s.Contains(0, -1))
	assert.False(t, s.Contains(1, 0), "Z was not supplied and is empty")
	assert.Equal(t, []int{1, 4}, slices.Collect(s.Members(0)))
	assert.Empty(t, slices.Collect(s.Members(1)))
	assert.Equal(t, 2, s.Size(0))
	assert.Equal(t, 5, s.MaxSize())
}

func TestNewSets_Errors(t *testing.T) {
	cases := []struct {
		name string
		sets map[string][]int
		is   error
		msg  string
	}{
		{"unknown set", map[string][]int{"Y": {1}}, ErrUnknownSet, "set Y"},
		{"duplicate element", map[string][]int{"X": {1, 3, 1}}, ErrDuplicateElement, "set X: duplicate entry: 1"},
		{"negative element", map[string][]int{"Z": {-2}}, ErrNegativeVertex, "-2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSets(tc.sets, table)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.is)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
