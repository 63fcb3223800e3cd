package catalog

import "github.com/mwien/CIfly/internal/ruletable"

// Summary is the display form of a rule table.
type Summary struct {
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Origin      string          `json:"origin,omitempty"`
	Edges       []EdgeSummary   `json:"edges"`
	Colors      []string        `json:"colors"`
	Sets        []string        `json:"sets"`
	Starts      []StartSummary  `json:"starts"`
	Outputs     []OutputSummary `json:"outputs"`
	Rules       int             `json:"rules"`
}

type EdgeSummary struct {
	Name    string `json:"name"`
	Forward int    `json:"forward"`
	Reverse int    `json:"reverse"`
}

type StartSummary struct {
	Set   string `json:"set"`
	Edge  string `json:"edge"`
	Color string `json:"color,omitempty"`
}

type OutputSummary struct {
	Edge  string `json:"edge"`
	Color string `json:"color,omitempty"`
}

// Summary describes the entry's table.
func (e *Entry) Summary() Summary {
	s := Describe(e.Table)
	s.Name, s.Description, s.Origin = e.Name, e.Description, e.Origin
	return s
}

// Describe renders the declarations of rt by name. Color fields stay empty
// for tables without COLORS.
func Describe(rt *ruletable.Ruletable) Summary {
	edges, colors, sets := rt.EdgeNames(), rt.ColorNames(), rt.SetNames()

	s := Summary{
		Edges:   make([]EdgeSummary, 0, len(edges)),
		Colors:  append([]string{}, colors...),
		Sets:    append([]string{}, sets...),
		Starts:  make([]StartSummary, 0, len(rt.Starts())),
		Outputs: make([]OutputSummary, 0, len(rt.Outputs())),
		Rules:   len(rt.Rules()),
	}
	for _, name := range edges {
		ids, _ := rt.EdgeIDs(name)
		s.Edges = append(s.Edges, EdgeSummary{Name: name, Forward: ids.Forward, Reverse: ids.Reverse})
	}
	for _, st := range rt.Starts() {
		s.Starts = append(s.Starts, StartSummary{Set: at(sets, st.Set), Edge: at(edges, st.Edge), Color: at(colors, st.Color)})
	}
	for _, o := range rt.Outputs() {
		s.Outputs = append(s.Outputs, OutputSummary{Edge: at(edges, o.Edge), Color: at(colors, o.Color)})
	}
	return s
}

// at tolerates the implicit edge and color 0 of tables that declare none.
func at(names []string, id int) string {
	if id < len(names) {
		return names[id]
	}
	return ""
}
