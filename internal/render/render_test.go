package render

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwien/CIfly/internal/ruletable"
)

var testTable = ruletable.MustCompile("EDGES --> <--, ---\nSETS X, Z\nSTART --> AT X\nOUTPUT ...")

var testEdges = map[string][][2]int{
	"-->": {{0, 1}},
	"---": {{1, 2}},
}

func TestToDOT_Golden(t *testing.T) {
	dot := ToDOT(testEdges, []int{2, 1}, Options{
		Table:      testTable,
		Sets:       map[string][]int{"Z": {0, 2}, "X": {0}},
		OneIndexed: true,
		Title:      "backdoor",
	})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "backdoor", []byte(dot))
}

func TestToDOT_WithoutTable(t *testing.T) {
	dot := ToDOT(testEdges, nil, Options{})
	assert.NotContains(t, dot, "dir=none")
	assert.NotContains(t, dot, reachedColor)
	assert.Contains(t, dot, `  0 [label="0"];`)
	assert.Contains(t, dot, `  1 -> 2 [label="---"];`)
}

func TestToDOT_ReachedOutsideEdges(t *testing.T) {
	dot := ToDOT(map[string][][2]int{}, []int{3}, Options{})
	assert.Equal(t, 4, strings.Count(dot, "[label="))
	assert.Contains(t, dot, `  3 [label="3", fillcolor=lightblue];`)
}

func TestRenderSVG(t *testing.T) {
	dot := ToDOT(testEdges, []int{1}, Options{Table: testTable})
	svg, err := RenderSVG(context.Background(), dot)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	_, err := RenderSVG(context.Background(), "not valid DOT {{{")
	assert.Error(t, err)
}
