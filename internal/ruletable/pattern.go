package ruletable

import (
	"slices"
	"strconv"
	"strings"
)

// PatternKind discriminates Pattern values.
type PatternKind int

const (
	PatternSingle PatternKind = iota
	PatternMany
	PatternAll
)

// Pattern matches edge-type or color ids: one id, a list of ids or the
// wildcard "...".
type Pattern struct {
	Kind PatternKind
	IDs  []int // one element for PatternSingle, unused for PatternAll
}

func Single(id int) Pattern   { return Pattern{Kind: PatternSingle, IDs: []int{id}} }
func Many(ids ...int) Pattern { return Pattern{Kind: PatternMany, IDs: ids} }
func All() Pattern            { return Pattern{Kind: PatternAll} }

// Expand returns the ids the pattern denotes. For the wildcard these are
// 0..max(1,count)-1, so an undeclared color space still yields color 0.
func (p Pattern) Expand(count int) []int {
	switch p.Kind {
	case PatternSingle, PatternMany:
		return slices.Clone(p.IDs)
	}
	out := make([]int, max(1, count))
	for i := range out {
		out[i] = i
	}
	return out
}

// Matches reports whether id is covered by the pattern.
func (p Pattern) Matches(id int) bool {
	if p.Kind == PatternAll {
		return true
	}
	return slices.Contains(p.IDs, id)
}

func (p Pattern) String() string {
	if p.Kind == PatternAll {
		return "..."
	}
	parts := make([]string, len(p.IDs))
	for i, id := range p.IDs {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// Case is the transition shape a rule governs: (PrevEdge, PrevColor) on the
// arc into the current vertex, (NextEdge, NextColor) on the arc leaving it.
type Case struct {
	PrevEdge  Pattern
	PrevColor Pattern
	NextEdge  Pattern
	NextColor Pattern
}

// Matches reports whether the case covers the transition (e1,c1) → (e2,c2).
func (c Case) Matches(e1, c1, e2, c2 int) bool {
	return c.PrevEdge.Matches(e1) && c.PrevColor.Matches(c1) &&
		c.NextEdge.Matches(e2) && c.NextColor.Matches(c2)
}
