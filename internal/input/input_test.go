package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInstance(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"yaml", `
edges:
  "-->": [[2, 1], [2, 3]]
  "---":
    - [0, 1]
sets:
  X: [1]
`},
		{"json", `{"edges": {"-->": [[2, 1], [2, 3]], "---": [[0, 1]]}, "sets": {"X": [1]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inst, err := DecodeInstance([]byte(tc.doc))
			require.NoError(t, err)
			assert.Equal(t, [][]int{{2, 1}, {2, 3}}, inst.Edges["-->"])
			assert.Equal(t, [][]int{{0, 1}}, inst.Edges["---"])
			assert.Equal(t, []int{1}, inst.Sets["X"])
		})
	}
}

func TestDecodeInstance_Invalid(t *testing.T) {
	_, err := DecodeInstance([]byte("edges: [1, 2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse instance")
}

func TestParseEdgeText(t *testing.T) {
	src := `# backdoor example
2 --> 1; 2 --> 3
3 --> 4, 5 --> 4
0 --- 1   # trailing comment
0 --- 2
`
	edges, err := ParseEdgeText(src)
	require.NoError(t, err)
	assert.Equal(t, map[string][][2]int{
		"-->": {{2, 1}, {2, 3}, {3, 4}, {5, 4}},
		"---": {{0, 1}, {0, 2}},
	}, edges)

	empty, err := ParseEdgeText("# nothing here\n")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseEdgeText_DigitsInEdgeNames(t *testing.T) {
	edges, err := ParseEdgeText("0 e1 1\n1 e1 2; 2 a2b 0")
	require.NoError(t, err)
	assert.Equal(t, map[string][][2]int{
		"e1":  {{0, 1}, {1, 2}},
		"a2b": {{2, 0}},
	}, edges)
}

func TestParseEdgeText_Errors(t *testing.T) {
	for _, src := range []string{"1 -->", "--> 2", "1 2 3", "1 --> x"} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseEdgeText(src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "edge list")
			assert.Contains(t, err.Error(), "1:")
		})
	}
}

func TestReadInstance(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "g.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("edges:\n  \"---\": [[0, 1]]\nsets:\n  X: [0]\n"), 0o644))
	txt := filepath.Join(dir, "g.edges")
	require.NoError(t, os.WriteFile(txt, []byte("0 --- 1\n1 --> 2\n"), 0o644))

	inst, err := ReadInstance(yml)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, inst.Sets["X"])

	inst, err = ReadInstance(txt)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}}, inst.Edges["---"])
	assert.Equal(t, [][]int{{1, 2}}, inst.Edges["-->"])
	assert.Empty(t, inst.Sets)

	_, err = ReadInstance(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEdgePairs(t *testing.T) {
	pairs, err := EdgePairs(map[string][][]int{"-->": {{0, 1}, {1, 2}}})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, pairs["-->"])

	_, err = EdgePairs(map[string][][]int{"-->": {{0, 1}, {1, 2, 3}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"-->"[1]`)
}

func TestShift(t *testing.T) {
	edges, sets, err := Shift(
		map[string][][2]int{"-->": {{1, 2}, {3, 2}}},
		map[string][]int{"X": {1, 3}},
		-1,
	)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 1}, {2, 1}}, edges["-->"])
	assert.Equal(t, []int{0, 2}, sets["X"])

	_, _, err = Shift(map[string][][2]int{"-->": {{0, 1}}}, nil, -1)
	assert.Error(t, err)
	_, _, err = Shift(nil, map[string][]int{"X": {0}}, -1)
	assert.Error(t, err)

	assert.Equal(t, []int{1, 3}, ShiftVertices([]int{0, 2}, 1))
}

func TestParseSetFlag(t *testing.T) {
	cases := []struct {
		in      string
		name    string
		ids     []int
		wantErr bool
	}{
		{"X=1,2", "X", []int{1, 2}, false},
		{" Z = 3 , 4 ", "Z", []int{3, 4}, false},
		{"Y=", "Y", []int{}, false},
		{"X", "", nil, true},
		{"=1", "", nil, true},
		{"X=a", "", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			name, ids, err := ParseSetFlag(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.ids, ids)
		})
	}
}
