package input

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Edge-list text holds one edge per entry, "<u> <edge> <v>", entries
// separated by newlines, ";" or ",". "#" starts a comment. Edge names
// start with a non-digit and must be separated from vertex ids by
// whitespace when they end in a digit.
//
//	# backdoor example
//	2 --> 1; 2 --> 3
//	0 --- 1
type edgeText struct {
	Entries []*edgeEntry `parser:"( @@ ( \";\" | \",\" )? )*"`
}

type edgeEntry struct {
	From int    `parser:"@Int"`
	Kind string `parser:"@Edge"`
	To   int    `parser:"@Int"`
}

var edgeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Punct", Pattern: `[;,]`},
	{Name: "Edge", Pattern: `[^\s\d#;,][^\s#;,]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var parseEdgeText = participle.MustBuild[edgeText](
	participle.Lexer(edgeLexer),
	participle.Elide("Comment", "Whitespace"),
)

// ParseEdgeText parses edge-list text into per-type edge lists, keeping the
// order of appearance.
func ParseEdgeText(src string) (map[string][][2]int, error) {
	doc, err := parseEdgeText.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("edge list: %w", err)
	}
	out := map[string][][2]int{}
	for _, e := range doc.Entries {
		out[e.Kind] = append(out[e.Kind], [2]int{e.From, e.To})
	}
	return out, nil
}
