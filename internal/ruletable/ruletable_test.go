package ruletable

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwien/CIfly/internal/expression"
)

const backdoorTable = `
EDGES --> <--, ---
SETS X
COLORS init, yield
START ... [init] AT X
OUTPUT ... [yield]

... [init]  | ---      [yield] | next not in X
... [yield] | ---, --> [yield] | next not in X`

func TestCompile_Declarations(t *testing.T) {
	rt, err := Compile(backdoorTable)
	require.NoError(t, err)

	assert.Equal(t, 3, rt.NumEdges())
	assert.Equal(t, 2, rt.NumColors())
	assert.Equal(t, 1, rt.NumSets())

	fwd, ok := rt.EdgeIDs("-->")
	require.True(t, ok)
	assert.Equal(t, EdgeIDs{Forward: 0, Reverse: 1}, fwd)
	bwd, _ := rt.EdgeIDs("<--")
	assert.Equal(t, EdgeIDs{Forward: 1, Reverse: 0}, bwd)
	undirected, _ := rt.EdgeIDs("---")
	assert.Equal(t, EdgeIDs{Forward: 2, Reverse: 2}, undirected)
	assert.True(t, undirected.Symmetric())
	assert.False(t, fwd.Symmetric())

	assert.Equal(t, []string{"-->", "<--", "---"}, rt.EdgeNames())
	assert.Equal(t, []string{"init", "yield"}, rt.ColorNames())
	assert.Equal(t, []string{"X"}, rt.SetNames())

	assert.Equal(t, []Start{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}}, rt.Starts())
	assert.Equal(t, []Output{{0, 1}, {1, 1}, {2, 1}}, rt.Outputs())

	require.Len(t, rt.Rules(), 2)
	assert.Equal(t, 8, rt.Rules()[0].Line)
	assert.Equal(t, "next not in X", rt.Rules()[1].Text)
	assert.Equal(t, Many(2, 0), rt.Rules()[1].Case.NextEdge)
}

func TestCompile_DispatchTables(t *testing.T) {
	rt := MustCompile(backdoorTable)

	cases := []struct {
		e1, c1, e2 int
		colors     []int
	}{
		{0, 0, 2, []int{1}},
		{0, 0, 0, []int{}},
		{1, 1, 0, []int{1}},
		{1, 1, 2, []int{1}},
		{2, 1, 1, []int{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.colors, rt.PossibleColors(tc.e1, tc.c1, tc.e2), "PossibleColors(%d,%d,%d)", tc.e1, tc.c1, tc.e2)
	}

	assert.Equal(t, 0, rt.RuleFor(0, 0, 2, 1))
	assert.Equal(t, 1, rt.RuleFor(1, 1, 0, 1))
	assert.Equal(t, NoRule, rt.RuleFor(1, 1, 0, 0))
	assert.Equal(t, NoRule, rt.RuleFor(2, 0, 1, 1))
}

// The first declared matching rule must win for every quadruple.
func TestCompile_FirstMatch(t *testing.T) {
	rt := MustCompile(`
EDGES a b, c
COLORS p, q, r
SETS S
c [q]      | ...     | current in S
... [p, q] | a, c    | true
...        | ... [r] | false
a          | b [p]   | next in S`)

	ne, nc := rt.NumEdges(), rt.NumColors()
	for e1 := range ne {
		for c1 := range nc {
			for e2 := range ne {
				var possible []int
				for c2 := range nc {
					got := rt.RuleFor(e1, c1, e2, c2)
					want := NoRule
					for i, r := range rt.Rules() {
						if r.Case.Matches(e1, c1, e2, c2) {
							want = i
							break
						}
					}
					assert.Equal(t, want, got, "quadruple (%d,%d,%d,%d)", e1, c1, e2, c2)
					if got != NoRule {
						possible = append(possible, c2)
					}
				}
				assert.ElementsMatch(t, possible, rt.PossibleColors(e1, c1, e2))
			}
		}
	}
	// a [r] → b [p] falls through the first three rules
	assert.Equal(t, 3, rt.RuleFor(0, 2, 1, 0))
}

func TestCompile_NoColors(t *testing.T) {
	rt := MustCompile(`
EDGES --> <--
SETS X
START <-- AT X
OUTPUT ...
... | <-- | true`)
	assert.Equal(t, 1, rt.NumColors())
	assert.Empty(t, rt.ColorNames())
	assert.Equal(t, []Start{{Set: 0, Edge: 1, Color: 0}}, rt.Starts())
	assert.Equal(t, []Output{{0, 0}, {1, 0}}, rt.Outputs())
	assert.Equal(t, []int{0}, rt.PossibleColors(0, 0, 1))
	assert.Empty(t, rt.PossibleColors(0, 0, 0))
}

func TestCompile_SymmetricEdge(t *testing.T) {
	rt := MustCompile("EDGES ---, --> <--, <->")
	for name, want := range map[string]EdgeIDs{
		"---": {0, 0},
		"-->": {1, 2},
		"<--": {2, 1},
		"<->": {3, 3},
	} {
		got, ok := rt.EdgeIDs(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestCompile_ReplaceAndAppend(t *testing.T) {
	rt := MustCompile(`
SETS A
SETS B, C
EDGES ---
START --- AT B
START --- AT C, B
OUTPUT ---
OUTPUT ---
# trailing comment`)
	_, ok := rt.SetID("A")
	assert.False(t, ok, "a later SETS line replaces the earlier one")
	assert.Equal(t, []Start{{0, 0, 0}, {1, 0, 0}, {0, 0, 0}}, rt.Starts())
	assert.Len(t, rt.Outputs(), 2)
	assert.Empty(t, rt.Rules())
}

func TestCompile_PatternSpacing(t *testing.T) {
	rt := MustCompile(`
EDGES -->  <--
COLORS a ,b
SETS X
START --> [ b ] AT  X ,X
OUTPUT --> , <-- [ a , b ]
-->,<--[a] | ... [ ... ] | true`)
	assert.Equal(t, []Start{{0, 0, 1}, {0, 0, 1}}, rt.Starts())
	assert.Equal(t, []Output{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, rt.Outputs())
	require.Len(t, rt.Rules(), 1)
	c := rt.Rules()[0].Case
	assert.Equal(t, Many(0, 1), c.PrevEdge)
	assert.Equal(t, Single(0), c.PrevColor)
	assert.Equal(t, All(), c.NextEdge)
	assert.Equal(t, All(), c.NextColor)
}

// Ids stay valid when a later declaration grows rather than shrinks.
func TestCompile_RedeclareKeepsIDs(t *testing.T) {
	rt := MustCompile(`
EDGES ---
COLORS a
SETS X
START --- [a] AT X
COLORS a, b
EDGES ---, -->
SETS X, Y
OUTPUT ... [b]`)
	assert.Equal(t, []Start{{0, 0, 0}}, rt.Starts())
	assert.Equal(t, 2, rt.NumColors())
	assert.Equal(t, 2, rt.NumEdges())
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
		kind LineKind
		is   error
		msg  string
	}{
		{"duplicate edge", "EDGES --> <--, -->", 1, LineEdges, ErrDuplicate, "found '-->' twice"},
		{"three names", "EDGES a b c", 1, LineEdges, ErrMalformed, "more than two"},
		{"empty edge group", "EDGES a,,b", 1, LineEdges, ErrMalformed, "expected an edge"},
		{"duplicate color", "COLORS a, b, a", 1, LineColors, ErrDuplicate, "found 'a' twice"},
		{"empty set", "SETS X,", 1, LineSets, ErrMalformed, "expected a set"},
		{"missing AT", "EDGES ---\nSETS X\nSTART --- X", 3, LineStart, ErrMalformed, "did not find"},
		{"two AT", "EDGES ---\nSETS X\nSTART --- AT X AT X", 3, LineStart, ErrMalformed, "more than once"},
		{"unknown start set", "EDGES ---\nSETS X\nSTART --- AT Y", 3, LineStart, ErrUndeclared, "could not find set 'Y'"},
		{"unknown output edge", "EDGES ---\nOUTPUT -->", 2, LineOutput, ErrUndeclared, "could not find edge '-->'"},
		{"unknown color", "EDGES ---\nCOLORS a\nOUTPUT ---[b]", 3, LineOutput, ErrUndeclared, "could not find color 'b'"},
		{"unbalanced brackets", "EDGES ---\nOUTPUT ---[", 2, LineOutput, ErrMalformed, "not matching"},
		{"two bracket pairs", "EDGES ---\nOUTPUT ---[][]", 2, LineOutput, ErrMalformed, "more than one pair"},
		{"bracket not last", "EDGES ---\nCOLORS a\nOUTPUT [a]---", 3, LineOutput, ErrMalformed, "not a closing brace"},
		{"wildcard in list", "EDGES ---, -->\nOUTPUT ---, ...", 2, LineOutput, ErrMalformed, "wildcard"},
		{"too few segments", "EDGES ---\n--- | true", 2, LineRule, ErrMalformed, "found 1 occurrences"},
		{"too many segments", "EDGES ---\n--- | --- | true | false", 2, LineRule, ErrMalformed, "found 3 occurrences"},
		{"unknown rule edge", "EDGES ---\n\n--> | --- | true", 3, LineRule, ErrUndeclared, "could not find edge '-->'"},
		{"names in one set entry", "EDGES ---\nSETS X Y", 2, LineSets, ErrMalformed, "expected one set per comma-separated entry"},
		{"names in one pattern entry", "EDGES --> <--\nOUTPUT --> <--", 2, LineOutput, ErrMalformed, "expected one edge per comma-separated entry"},
		{"empty start set", "EDGES ---\nSETS X\nSTART --- AT X,", 3, LineStart, ErrMalformed, "expected a set"},
		{"empty rule edge", "EDGES ---\n | --- | true", 2, LineRule, ErrMalformed, "expected an edge"},
		{"color dropped after start", "EDGES ---\nSETS X\nCOLORS a, b\nSTART ---[b] AT X\nCOLORS a", 4, LineStart, ErrUndeclared, "color id 1 is no longer declared after a later COLORS line"},
		{"edge dropped after output", "EDGES ---, -->\nOUTPUT -->\nEDGES ---", 2, LineOutput, ErrUndeclared, "edge id 1 is no longer declared after a later EDGES line"},
		{"set dropped after rule", "EDGES ---\nSETS X, Y\n--- | --- | next in Y\nSETS X", 3, LineRule, ErrUndeclared, "set id 1 is no longer declared after a later SETS line"},
		{"set dropped after start", "EDGES ---\nSETS X, Y\nSTART --- AT Y\nSETS X", 3, LineStart, ErrUndeclared, "set id 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.src)
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.line, ce.Line)
			assert.Equal(t, tc.kind, ce.Kind)
			assert.ErrorIs(t, err, tc.is)
			assert.Contains(t, err.Error(), tc.msg)
			assert.Contains(t, err.Error(), "trying to parse a "+tc.kind.String()+" line")
		})
	}
}

func TestCompile_ExpressionError(t *testing.T) {
	_, err := Compile("EDGES ---\nSETS X\n--- | --- | current in Y")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.Line)
	assert.Equal(t, LineRule, ce.Kind)

	var ee *expression.Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, expression.KindSyntax, ee.Kind)

	_, err = Compile("EDGES ---\nSETS X\n--- | --- | X")
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, expression.KindValidation, ee.Kind)
}

func TestCompileError_Truncates(t *testing.T) {
	long := "EDGES ---, " + strings.Repeat("x", 100) + ", ---"
	_, err := Compile(long)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Len(t, []rune(ce.Text), 83)
	assert.True(t, strings.HasSuffix(ce.Text, "..."))
	assert.True(t, strings.HasPrefix(ce.Text, "EDGES ---, xxx"))

	_, err = Compile("  EDGES a a  ")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "EDGES a a", ce.Text)
	assert.Equal(t, "line 1: trying to parse a edge declaration line: duplicate name: found 'a' twice\n  EDGES a a", err.Error())
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backdoor.txt")
	require.NoError(t, os.WriteFile(path, []byte(backdoorTable), 0o644))

	rt, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, rt.NumEdges())

	_, err = ReadFile(filepath.Join(dir, "missing.txt"))
	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPattern(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, All().Expand(3))
	assert.Equal(t, []int{0}, All().Expand(0))
	assert.Equal(t, []int{4}, Single(4).Expand(9))
	assert.Equal(t, []int{3, 1}, Many(3, 1).Expand(9))
	assert.True(t, All().Matches(7))
	assert.True(t, Many(3, 1).Matches(1))
	assert.False(t, Single(2).Matches(1))
	assert.Equal(t, "...", All().String())
	assert.Equal(t, "3,1", Many(3, 1).String())
}
