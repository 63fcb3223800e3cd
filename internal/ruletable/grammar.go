package ruletable

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// nameList is a comma-separated list whose entries are runs of
// whitespace-separated names, as in "--> <--, ---". Empty entries are kept
// so they can be reported.
type nameList struct {
	Head *nameRun    `parser:"@@?"`
	Rest []*listTail `parser:"@@*"`
}

type listTail struct {
	Comma string   `parser:"@\",\""`
	Run   *nameRun `parser:"@@?"`
}

type nameRun struct {
	Names []string `parser:"@Name+"`
}

// statePattern is "<edges>" or "<edges>[<colors>]".
type statePattern struct {
	Edges  *nameList  `parser:"@@"`
	Colors *colorList `parser:"@@?"`
}

type colorList struct {
	Open  string    `parser:"@\"[\""`
	Names *nameList `parser:"@@"`
	Close string    `parser:"@\"]\""`
}

var ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Punct", Pattern: `[\[\],]`},
	{Name: "Name", Pattern: `[^\s\[\],]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var (
	listParser = participle.MustBuild[nameList](
		participle.Lexer(ruleLexer),
		participle.Elide("Whitespace"),
	)
	patternParser = participle.MustBuild[statePattern](
		participle.Lexer(ruleLexer),
		participle.Elide("Whitespace"),
	)
)

// entries returns the names of each comma-separated entry. An empty entry
// is nil; an empty list has a single empty entry.
func (l *nameList) entries() [][]string {
	if l == nil {
		return [][]string{nil}
	}
	out := [][]string{l.Head.names()}
	for _, t := range l.Rest {
		out = append(out, t.Run.names())
	}
	return out
}

func (r *nameRun) names() []string {
	if r == nil {
		return nil
	}
	return r.Names
}

func parseList(s string) ([][]string, error) {
	if strings.TrimSpace(s) == "" {
		return [][]string{nil}, nil
	}
	l, err := listParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	return l.entries(), nil
}

// parsePattern returns the edge entries and, when brackets are present,
// the color entries of a state pattern.
func parsePattern(s string) (edges, colors [][]string, err error) {
	if strings.TrimSpace(s) == "" {
		return [][]string{nil}, nil, nil
	}
	p, err := patternParser.ParseString("", s)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	edges = p.Edges.entries()
	if p.Colors != nil {
		colors = p.Colors.Names.entries()
	}
	return edges, colors, nil
}
