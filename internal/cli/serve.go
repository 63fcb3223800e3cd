package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mwien/CIfly/internal/server"
)

func newServeCmd() *cobra.Command {
	opts := server.Options{
		Addr:            ":8080",
		ConfigPath:      "configs/cifly.yaml",
		Watch:           true,
		ShutdownTimeout: 15 * time.Second,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reach queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(cmd.Context(), opts, slogger(loggerFromContext(cmd.Context())))
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", opts.Addr, "HTTP listen address")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "service config (.yaml or .toml)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", opts.Watch, "hot-reload config and table files on change")
	cmd.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", opts.ShutdownTimeout, "graceful shutdown timeout")
	return cmd
}
