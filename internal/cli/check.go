package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mwien/CIfly/internal/catalog"
	"github.com/mwien/CIfly/internal/ruletable"
)

func newCheckCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check <table>",
		Short: "Compile a rule table and print its declarations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			rt, err := ruletable.ReadFile(args[0])
			if err != nil {
				printFailure(cmd.ErrOrStderr(), "compile failed")
				return err
			}
			prog.done("Compiled " + args[0])

			s := catalog.Describe(rt)
			s.Name, s.Origin = filepath.Base(args[0]), args[0]
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			printSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSummary(w io.Writer, s catalog.Summary) {
	printTitle(w, s.Name)

	edges := make([]string, len(s.Edges))
	for i, e := range s.Edges {
		if e.Forward == e.Reverse {
			edges[i] = fmt.Sprintf("%s (%d)", e.Name, e.Forward)
		} else {
			edges[i] = fmt.Sprintf("%s (%d/%d)", e.Name, e.Forward, e.Reverse)
		}
	}
	starts := make([]string, len(s.Starts))
	for i, st := range s.Starts {
		starts[i] = withColor(st.Edge, st.Color) + " AT " + st.Set
	}
	outputs := make([]string, len(s.Outputs))
	for i, o := range s.Outputs {
		outputs[i] = withColor(o.Edge, o.Color)
	}

	printField(w, "edges", orNone(edges))
	printField(w, "colors", orNone(s.Colors))
	printField(w, "sets", orNone(s.Sets))
	printField(w, "starts", orNone(starts))
	printField(w, "outputs", orNone(outputs))
	printField(w, "rules", strconv.Itoa(s.Rules))
	printSuccess(w, "table compiles")
}

func withColor(edge, color string) string {
	if color == "" {
		return edge
	}
	return edge + " [" + color + "]"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
