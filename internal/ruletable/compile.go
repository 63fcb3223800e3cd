package ruletable

import (
	"fmt"
	"strings"

	"github.com/mwien/CIfly/internal/expression"
)

// LineKind classifies a line of rule-table source.
type LineKind int

const (
	LineEmpty LineKind = iota
	LineComment
	LineEdges
	LineColors
	LineSets
	LineStart
	LineOutput
	LineRule
)

// prefixed lists the kinds recognised by a leading keyword, in match order.
var prefixed = []struct {
	kind   LineKind
	prefix string
}{
	{LineComment, "#"},
	{LineEdges, "EDGES"},
	{LineColors, "COLORS"},
	{LineSets, "SETS"},
	{LineStart, "START"},
	{LineOutput, "OUTPUT"},
}

func (k LineKind) String() string {
	switch k {
	case LineEmpty:
		return "empty"
	case LineComment:
		return "comment"
	case LineEdges:
		return "edge declaration"
	case LineColors:
		return "color declaration"
	case LineSets:
		return "set declaration"
	case LineStart:
		return "start declaration"
	case LineOutput:
		return "output declaration"
	}
	return "rule declaration"
}

func classify(line string) (LineKind, string) {
	if line == "" {
		return LineEmpty, ""
	}
	for _, p := range prefixed {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.kind, strings.TrimSpace(rest)
		}
	}
	return LineRule, line
}

const (
	startDelimiter = " AT "
	ruleDelimiter  = "|"
	wildcard       = "..."
)

// Compile parses rule-table source. EDGES, COLORS and SETS lines replace any
// earlier declaration of the same kind; START and OUTPUT lines append.
// Names are resolved against the declarations seen so far, and every id
// must still be declared once the whole source is read.
func Compile(src string) (*Ruletable, error) {
	rt := &Ruletable{
		edges:  map[string]EdgeIDs{},
		colors: map[string]int{},
		sets:   map[string]int{},
	}
	lines := strings.Split(src, "\n")
	var startLines, outputLines []int
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		kind, rest := classify(line)
		if err := rt.parseLine(kind, rest, i+1); err != nil {
			return nil, &CompileError{Line: i + 1, Kind: kind, Text: truncate(line), Err: err}
		}
		for len(startLines) < len(rt.starts) {
			startLines = append(startLines, i+1)
		}
		for len(outputLines) < len(rt.outputs) {
			outputLines = append(outputLines, i+1)
		}
	}
	if lineNo, err := rt.checkIDs(startLines, outputLines); err != nil {
		line := strings.TrimSpace(lines[lineNo-1])
		kind, _ := classify(line)
		return nil, &CompileError{Line: lineNo, Kind: kind, Text: truncate(line), Err: err}
	}

	rt.edgeNames = make([]string, len(rt.edges))
	for name, ids := range rt.edges {
		rt.edgeNames[ids.Forward] = name
	}
	rt.colorNames = namesByID(rt.colors)
	rt.setNames = namesByID(rt.sets)
	rt.precompute()
	return rt, nil
}

func (rt *Ruletable) parseLine(kind LineKind, rest string, lineNo int) error {
	switch kind {
	case LineEdges:
		edges, err := parseEdges(rest)
		if err != nil {
			return err
		}
		rt.edges = edges
	case LineColors:
		colors, err := parseLabels(rest, "color")
		if err != nil {
			return err
		}
		rt.colors = colors
	case LineSets:
		sets, err := parseLabels(rest, "set")
		if err != nil {
			return err
		}
		rt.sets = sets
	case LineStart:
		starts, err := rt.parseStart(rest)
		if err != nil {
			return err
		}
		rt.starts = append(rt.starts, starts...)
	case LineOutput:
		outputs, err := rt.parseOutput(rest)
		if err != nil {
			return err
		}
		rt.outputs = append(rt.outputs, outputs...)
	case LineRule:
		rule, err := rt.parseRule(rest)
		if err != nil {
			return err
		}
		rule.Line = lineNo
		rt.rules = append(rt.rules, rule)
	}
	return nil
}

// checkIDs reports the first start, output or rule whose ids fall outside
// the final declarations, which happens when a later EDGES, COLORS or SETS
// line shrinks a declaration already referenced.
func (rt *Ruletable) checkIDs(startLines, outputLines []int) (int, error) {
	ne, nc, ns := rt.NumEdges(), rt.NumColors(), rt.NumSets()
	for i, st := range rt.starts {
		if err := checkRange(st.Set, ns, "set", "SETS"); err != nil {
			return startLines[i], err
		}
		if err := checkRange(st.Edge, ne, "edge", "EDGES"); err != nil {
			return startLines[i], err
		}
		if err := checkRange(st.Color, nc, "color", "COLORS"); err != nil {
			return startLines[i], err
		}
	}
	for i, o := range rt.outputs {
		if err := checkRange(o.Edge, ne, "edge", "EDGES"); err != nil {
			return outputLines[i], err
		}
		if err := checkRange(o.Color, nc, "color", "COLORS"); err != nil {
			return outputLines[i], err
		}
	}
	for _, r := range rt.rules {
		c := r.Case
		for _, p := range [...]struct {
			pat   Pattern
			count int
			what  string
			decl  string
		}{
			{c.PrevEdge, ne, "edge", "EDGES"},
			{c.PrevColor, nc, "color", "COLORS"},
			{c.NextEdge, ne, "edge", "EDGES"},
			{c.NextColor, nc, "color", "COLORS"},
		} {
			for _, id := range p.pat.IDs {
				if err := checkRange(id, p.count, p.what, p.decl); err != nil {
					return r.Line, err
				}
			}
		}
		if err := checkRange(maxSetID(r.Expr), ns, "set", "SETS"); err != nil {
			return r.Line, err
		}
	}
	return 0, nil
}

func checkRange(id, count int, what, decl string) error {
	if id < count {
		return nil
	}
	return fmt.Errorf("%w: %s id %d is no longer declared after a later %s line", ErrUndeclared, what, id, decl)
}

// maxSetID is the largest set id referenced by e, -1 if there is none.
func maxSetID(e expression.Expr) int {
	switch e := e.(type) {
	case *expression.Atom:
		if e.Kind == expression.AtomSet {
			return e.Set
		}
	case *expression.Junction:
		m := -1
		for _, a := range e.Args {
			m = max(m, maxSetID(a))
		}
		return m
	}
	return -1
}

// splitTrim pads s with a space on both sides before splitting so that
// space-delimited keywords also match at the ends, then trims every part.
func splitTrim(s, delimiter string) []string {
	parts := strings.Split(" "+s+" ", delimiter)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// parseEdges reads comma-separated groups of one (symmetric) or two
// (forward, reverse) names. Ids are assigned in declaration order.
func parseEdges(s string) (map[string]EdgeIDs, error) {
	groups, err := parseList(s)
	if err != nil {
		return nil, err
	}
	out := map[string]EdgeIDs{}
	next := 0
	for _, names := range groups {
		switch len(names) {
		case 0:
			return nil, fmt.Errorf("%w: found empty string, expected an edge", ErrMalformed)
		case 1, 2:
		default:
			return nil, fmt.Errorf("%w: found more than two whitespace separated edge strings, expected one string for a symmetric edge or two strings for an asymmetric edge: %s", ErrMalformed, strings.Join(names, " "))
		}
		for i, name := range names {
			if _, dup := out[name]; dup {
				return nil, fmt.Errorf("%w: found '%s' twice", ErrDuplicate, name)
			}
			out[name] = EdgeIDs{Forward: next + i, Reverse: next + len(names) - i - 1}
		}
		next += len(names)
	}
	return out, nil
}

func parseLabels(s, what string) (map[string]int, error) {
	entries, err := parseList(s)
	if err != nil {
		return nil, err
	}
	out := map[string]int{}
	for i, names := range entries {
		name, err := single(names, what)
		if err != nil {
			return nil, err
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: found '%s' twice", ErrDuplicate, name)
		}
		out[name] = i
	}
	return out, nil
}

// single unwraps a list entry that must hold exactly one name.
func single(names []string, what string) (string, error) {
	switch len(names) {
	case 0:
		article := "a"
		if strings.ContainsRune("aeiou", rune(what[0])) {
			article = "an"
		}
		return "", fmt.Errorf("%w: found empty string, expected %s %s", ErrMalformed, article, what)
	case 1:
		return names[0], nil
	}
	return "", fmt.Errorf("%w: found whitespace separated strings '%s', expected one %s per comma-separated entry", ErrMalformed, strings.Join(names, " "), what)
}

func (rt *Ruletable) parseStart(s string) ([]Start, error) {
	parts := splitTrim(s, startDelimiter)
	kw := strings.TrimSpace(startDelimiter)
	switch {
	case len(parts) < 2:
		return nil, fmt.Errorf("%w: did not find space-separated keyword '%s', expected one occurrence of '%s' followed by comma-separated sets", ErrMalformed, kw, kw)
	case len(parts) > 2:
		return nil, fmt.Errorf("%w: found space-separated keyword '%s' more than once, expected one occurrence of '%s' followed by comma-separated sets", ErrMalformed, kw, kw)
	}

	edgePat, colorPat, err := rt.parseEdgeColor(parts[0])
	if err != nil {
		return nil, err
	}
	sets, err := rt.findSets(parts[1])
	if err != nil {
		return nil, err
	}

	edges := edgePat.Expand(rt.NumEdges())
	colors := colorPat.Expand(len(rt.colors))
	var out []Start
	for _, set := range sets {
		for _, e := range edges {
			for _, c := range colors {
				out = append(out, Start{Set: set, Edge: e, Color: c})
			}
		}
	}
	return out, nil
}

func (rt *Ruletable) parseOutput(s string) ([]Output, error) {
	edgePat, colorPat, err := rt.parseEdgeColor(s)
	if err != nil {
		return nil, err
	}
	var out []Output
	for _, e := range edgePat.Expand(rt.NumEdges()) {
		for _, c := range colorPat.Expand(len(rt.colors)) {
			out = append(out, Output{Edge: e, Color: c})
		}
	}
	return out, nil
}

func (rt *Ruletable) parseRule(s string) (Rule, error) {
	parts := splitTrim(s, ruleDelimiter)
	if len(parts) != 3 {
		return Rule{}, fmt.Errorf("%w: expected two occurrences of '%s' delimiting previous state, next state and expression, found %d occurrences", ErrMalformed, ruleDelimiter, len(parts)-1)
	}
	prevEdge, prevColor, err := rt.parseEdgeColor(parts[0])
	if err != nil {
		return Rule{}, err
	}
	nextEdge, nextColor, err := rt.parseEdgeColor(parts[1])
	if err != nil {
		return Rule{}, err
	}
	expr, err := expression.Parse(parts[2], rt.sets)
	if err != nil {
		return Rule{}, fmt.Errorf("parsing expression: %w", err)
	}
	return Rule{
		Case: Case{PrevEdge: prevEdge, PrevColor: prevColor, NextEdge: nextEdge, NextColor: nextColor},
		Expr: expr,
		Text: parts[2],
	}, nil
}

// parseEdgeColor reads "<edges>[<colors>]" into its two patterns. Missing,
// empty or "[...]" brackets select every color.
func (rt *Ruletable) parseEdgeColor(s string) (Pattern, Pattern, error) {
	s = strings.TrimSpace(s)
	open, closed := strings.Count(s, "["), strings.Count(s, "]")
	switch {
	case open != closed:
		return Pattern{}, Pattern{}, fmt.Errorf("%w: opening '[' and closing ']' braces are not matching", ErrMalformed)
	case open > 1:
		return Pattern{}, Pattern{}, fmt.Errorf("%w: more than one pair of braces '[' ']' found, expected none when colors are not specified or one with comma separated colors", ErrMalformed)
	case open == 1 && !strings.HasSuffix(s, "]"):
		return Pattern{}, Pattern{}, fmt.Errorf("%w: last non-whitespace character is not a closing brace ']', expected brace to close color list", ErrMalformed)
	}

	edgeEntries, colorEntries, err := parsePattern(s)
	if err != nil {
		return Pattern{}, Pattern{}, err
	}
	edges, err := rt.edgePattern(edgeEntries)
	if err != nil {
		return Pattern{}, Pattern{}, err
	}
	colors, err := rt.colorPattern(colorEntries)
	if err != nil {
		return Pattern{}, Pattern{}, err
	}
	return edges, colors, nil
}

func isWildcard(entries [][]string) bool {
	return len(entries) == 1 && len(entries[0]) == 1 && entries[0][0] == wildcard
}

func (rt *Ruletable) edgePattern(entries [][]string) (Pattern, error) {
	if isWildcard(entries) {
		return All(), nil
	}
	ids := make([]int, 0, len(entries))
	for _, names := range entries {
		name, err := single(names, "edge")
		if err != nil {
			return Pattern{}, err
		}
		if name == wildcard {
			return Pattern{}, fmt.Errorf("%w: found edge wildcard '%s' and other edge strings, if you want to match all edges keep only the wildcard", ErrMalformed, wildcard)
		}
		e, ok := rt.edges[name]
		if !ok {
			return Pattern{}, fmt.Errorf("%w: could not find edge '%s', are you sure you declared it?", ErrUndeclared, name)
		}
		ids = append(ids, e.Forward)
	}
	if len(ids) == 1 {
		return Single(ids[0]), nil
	}
	return Many(ids...), nil
}

// colorPattern resolves bracket entries; nil entries (no brackets), "[]"
// and "[...]" select every color.
func (rt *Ruletable) colorPattern(entries [][]string) (Pattern, error) {
	if entries == nil || (len(entries) == 1 && entries[0] == nil) || isWildcard(entries) {
		return All(), nil
	}
	ids := make([]int, 0, len(entries))
	for _, names := range entries {
		name, err := single(names, "color")
		if err != nil {
			return Pattern{}, err
		}
		id, ok := rt.colors[name]
		if !ok {
			return Pattern{}, fmt.Errorf("%w: could not find color '%s', are you sure you declared it?", ErrUndeclared, name)
		}
		ids = append(ids, id)
	}
	if len(ids) == 1 {
		return Single(ids[0]), nil
	}
	return Many(ids...), nil
}

func (rt *Ruletable) findSets(s string) ([]int, error) {
	entries, err := parseList(s)
	if err != nil {
		return nil, err
	}
	var out []int
	for _, names := range entries {
		name, err := single(names, "set")
		if err != nil {
			return nil, err
		}
		id, ok := rt.sets[name]
		if !ok {
			return nil, fmt.Errorf("%w: could not find set '%s', are you sure you declared it?", ErrUndeclared, name)
		}
		out = append(out, id)
	}
	return out, nil
}
