// Package cli implements the cifly command-line interface.
//
// Commands:
//   - check: compile a rule table and print its declarations
//   - reach: run a rule table on a graph instance
//   - proc: run a built-in procedure such as ancestors or dsep
//   - serve: start the HTTP service
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// passed to commands through their context.
package cli

import (
	"context"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version displayed by --version.
func SetVersion(v string) {
	version = v
}

// Execute runs the cifly CLI.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Logs go to the command's error
// stream, results to its output stream.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "cifly",
		Short:        "CIfly runs rule-table driven reachability algorithms",
		Long:         `CIfly compiles declarative rule tables into reachability algorithms over graphs with typed edges and runs them on graph instances, from the command line or as an HTTP service.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, newLogger(cmd.ErrOrStderr(), level)))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newReachCmd())
	root.AddCommand(newProcCmd())
	root.AddCommand(newServeCmd())

	return root
}
