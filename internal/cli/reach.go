package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mwien/CIfly/internal/instance"
	"github.com/mwien/CIfly/internal/query"
	"github.com/mwien/CIfly/internal/reach"
	"github.com/mwien/CIfly/internal/render"
	"github.com/mwien/CIfly/internal/ruletable"
)

type reachOpts struct {
	instanceFlags
	trace  bool   // print every processed state and transition
	asJSON bool   // print the result as JSON
	dotOut string // write the instance with reached vertices as DOT
	svgOut string // same, rendered to SVG
}

func newReachCmd() *cobra.Command {
	var opts reachOpts

	cmd := &cobra.Command{
		Use:   "reach <table>",
		Short: "Run a rule table on a graph instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReach(cmd, args[0], opts)
		},
	}
	opts.register(cmd, true)
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print the search trace")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&opts.dotOut, "dot", "", "write the instance and result as Graphviz DOT")
	cmd.Flags().StringVar(&opts.svgOut, "svg", "", "write the instance and result as SVG")
	return cmd
}

func runReach(cmd *cobra.Command, tablePath string, opts reachOpts) error {
	logger := loggerFromContext(cmd.Context())

	rt, err := ruletable.ReadFile(tablePath)
	if err != nil {
		return err
	}
	edges, sets, err := opts.load()
	if err != nil {
		return err
	}
	g, err := instance.NewGraph(edges, rt)
	if err != nil {
		return err
	}
	s, err := instance.NewSets(sets, rt)
	if err != nil {
		return err
	}
	logger.Debug("instance built", "vertices", g.NumVertices(), "arcs", g.NumArcs())

	prog := newProgress(logger)
	out := reach.Run(g, s, rt, reach.Settings{
		Verbose:    opts.trace,
		OneIndexed: opts.oneIndexed,
		Trace:      cmd.OutOrStdout(),
	})
	prog.done(fmt.Sprintf("Visited %d states", out.StatesVisited))

	vs := slices.Clone(out.Vertices)
	slices.Sort(vs)

	if opts.dotOut != "" || opts.svgOut != "" {
		dot := render.ToDOT(edges, vs, render.Options{
			Table:      rt,
			Sets:       sets,
			OneIndexed: opts.oneIndexed,
			Title:      filepath.Base(tablePath),
		})
		if err := writeRendered(cmd, dot, opts.dotOut, opts.svgOut); err != nil {
			return err
		}
	}

	res := &query.Result{
		Table:         tablePath,
		Reachable:     opts.display(vs),
		StatesVisited: out.StatesVisited,
	}
	if opts.asJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	printField(cmd.OutOrStdout(), "reachable", formatVertices(res.Reachable))
	printField(cmd.OutOrStdout(), "states", styleNumber.Render(strconv.Itoa(res.StatesVisited)))
	return nil
}

func writeRendered(cmd *cobra.Command, dot, dotPath, svgPath string) error {
	logger := loggerFromContext(cmd.Context())
	if dotPath != "" {
		if err := os.WriteFile(dotPath, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dotPath, err)
		}
		logger.Info("Wrote DOT", "path", dotPath)
	}
	if svgPath != "" {
		svg, err := render.RenderSVG(cmd.Context(), dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(svgPath, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", svgPath, err)
		}
		logger.Info("Wrote SVG", "path", svgPath)
	}
	return nil
}
