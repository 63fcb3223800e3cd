package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mwien/CIfly/internal/server"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/cifly.yaml", "Path to service config (.yaml or .toml)")
	watch := flag.Bool("watch", true, "Hot-reload config and rule-table files")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := server.Options{Addr: *addr, ConfigPath: *cfgPath, Watch: *watch}
	if err := server.Run(ctx, opts, logger); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
