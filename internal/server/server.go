// Package server wires configuration, catalog, engine and HTTP API into a
// running service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mwien/CIfly/internal/api"
	"github.com/mwien/CIfly/internal/catalog"
	"github.com/mwien/CIfly/internal/config"
	"github.com/mwien/CIfly/internal/engine"
	"github.com/mwien/CIfly/internal/metrics"
	"github.com/mwien/CIfly/internal/procedure"
)

const defaultShutdownTimeout = 15 * time.Second

// Options configures Run.
type Options struct {
	Addr       string
	ConfigPath string
	// Watch enables hot reload of the config and table files.
	Watch           bool
	ShutdownTimeout time.Duration
	// OnListen, if set, is called with the bound address once the listener
	// is open.
	OnListen func(net.Addr)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, opts Options, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	loader, err := config.NewLoader(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := loader.Config()

	cat, err := catalog.Build(cfg, loader.Dir())
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	logger.Info("catalog built", "tables", cat.Len(), "names", cat.Names())

	engCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	eng := engine.New(engCtx, cat, procedure.Builtins(), cfg.Engine)

	rel := &catalogReloader{loader: loader, eng: eng, logger: logger}
	loader.OnChange(rel.onChange)
	loader.OnError(func(err error) {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		logger.Warn("hot-reload skipped: config invalid", "err", err)
	})
	if opts.Watch {
		stopWatch, err := loader.Watch()
		if err != nil {
			logger.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Addr, err)
	}
	srv := &http.Server{
		Handler:      api.New(eng, rel, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", ln.Addr().String())
		errC <- srv.Serve(ln)
	}()
	if opts.OnListen != nil {
		opts.OnListen(ln.Addr())
	}

	select {
	case <-ctx.Done():
	case err := <-errC:
		if !errors.Is(err, http.ErrServerClosed) {
			eng.Shutdown()
			return fmt.Errorf("serve: %w", err)
		}
	}

	logger.Info("shutting down")
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutCtx, shutCancel := context.WithTimeout(context.Background(), timeout)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	eng.Shutdown()
	logger.Info("goodbye")
	return nil
}

// catalogReloader rebuilds the catalog whenever the loader reloads, both
// from the file watcher and from the reload endpoint.
type catalogReloader struct {
	loader *config.Loader
	eng    *engine.Engine
	logger *slog.Logger

	reloadMu sync.Mutex // serializes Reload

	mu sync.Mutex
	// builds collects rebuild outcomes by config while a Reload call waits,
	// so that a concurrent watcher rebuild is not mistaken for its own.
	awaiting bool
	builds   map[*config.Config]build
}

type build struct {
	cat *catalog.Catalog
	err error
}

func (r *catalogReloader) onChange(cfg *config.Config) {
	cat, err := catalog.Build(cfg, r.loader.Dir())
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		r.logger.Warn("hot-reload skipped: catalog build failed", "err", err)
	} else {
		r.eng.SwapCatalog(cat)
		metrics.CatalogReloads.WithLabelValues("ok").Inc()
		r.logger.Info("catalog hot-reloaded", "tables", cat.Len())
	}
	r.mu.Lock()
	if r.awaiting {
		r.builds[cfg] = build{cat: cat, err: err}
	}
	r.mu.Unlock()
}

// Reload re-reads the config and reports the outcome of the rebuild it
// triggers.
func (r *catalogReloader) Reload() (*catalog.Catalog, error) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	r.mu.Lock()
	r.awaiting = true
	r.builds = map[*config.Config]build{}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.awaiting, r.builds = false, nil
		r.mu.Unlock()
	}()

	cfg, err := r.loader.Reload()
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		return nil, err
	}
	r.mu.Lock()
	b, ok := r.builds[cfg]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("reload: no catalog was built for the new config")
	}
	return b.cat, b.err
}
