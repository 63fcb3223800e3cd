package cli

import (
	"github.com/spf13/cobra"

	"github.com/mwien/CIfly/internal/procedure"
)

func newProcCmd() *cobra.Command {
	var (
		flags  instanceFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "proc [name]",
		Short: "Run a built-in procedure, or list them when no name is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := procedure.Builtins()
			if len(args) == 0 {
				return listProcedures(cmd, reg)
			}
			if flags.graph == "" {
				return errMissingGraph
			}

			p, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			edges, sets, err := flags.load()
			if err != nil {
				return err
			}
			if err := p.Validate(sets); err != nil {
				return err
			}
			prog := newProgress(loggerFromContext(cmd.Context()))
			out, err := p.Run(cmd.Context(), edges, sets)
			if err != nil {
				return err
			}
			prog.done("Ran " + p.Name())

			out.Vertices = flags.display(out.Vertices)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			printField(w, "vertices", formatVertices(out.Vertices))
			if out.Holds != nil {
				if *out.Holds {
					printSuccess(w, "holds")
				} else {
					printFailure(w, "does not hold")
				}
			}
			return nil
		},
	}
	// Listing needs no graph.
	flags.register(cmd, false)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func listProcedures(cmd *cobra.Command, reg *procedure.Registry) error {
	w := cmd.OutOrStdout()
	for _, name := range reg.Names() {
		p, err := reg.Get(name)
		if err != nil {
			return err
		}
		printTitle(w, p.Name())
		printField(w, "sets", orNone(p.Sets()))
		printField(w, "about", p.Description())
	}
	return nil
}
