package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwien/CIfly/internal/catalog"
	"github.com/mwien/CIfly/internal/config"
	"github.com/mwien/CIfly/internal/engine"
	"github.com/mwien/CIfly/internal/procedure"
)

const ancestors = "EDGES --> <--\nSETS X\nSTART <-- AT X\nOUTPUT ...\n... | <-- | true\n"

const descendants = "EDGES --> <--\nSETS X\nSTART --> AT X\nOUTPUT ...\n... | --> | true\n"

const configYAML = `version: "1"
engine:
  workers: 2
  queue_depth: 8
tables:
  - name: ancestors
    description: ancestors of X
    path: tables/ancestors.txt
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func start(t *testing.T, opts Options) (string, func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	addrC := make(chan net.Addr, 1)
	opts.Addr = "127.0.0.1:0"
	opts.OnListen = func(a net.Addr) { addrC <- a }

	errC := make(chan error, 1)
	go func() {
		errC <- Run(ctx, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	select {
	case a := <-addrC:
		return "http://" + a.String(), func() error {
			cancel()
			return <-errC
		}
	case err := <-errC:
		cancel()
		t.Fatalf("Run: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}
	return "", nil
}

func post(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRun_ServesAndReloads(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cifly.yaml")
	tablePath := filepath.Join(dir, "tables", "ancestors.txt")
	writeFile(t, tablePath, ancestors)
	writeFile(t, cfgPath, configYAML)

	base, stop := start(t, Options{ConfigPath: cfgPath})

	q := `{"table": "ancestors", "edges": {"-->": [[0, 1], [1, 2]]}, "sets": {"X": [1]}}`
	status, body := post(t, base+"/v1/reach", q)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []any{0.0, 1.0}, body["reachable"])

	// The file now computes descendants under the same name.
	writeFile(t, tablePath, descendants)
	status, body = post(t, base+"/v1/tables/reload", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 1.0, body["tables_count"])

	status, body = post(t, base+"/v1/reach", q)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []any{1.0, 2.0}, body["reachable"])

	// A broken table is reported and the previous catalog stays active.
	writeFile(t, tablePath, "EDGES -->\nSTART --> AT Q\n")
	status, body = post(t, base+"/v1/tables/reload", "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "table ancestors")

	status, body = post(t, base+"/v1/reach", q)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []any{1.0, 2.0}, body["reachable"])

	require.NoError(t, stop())
}

func TestRun_WatchesTableFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cifly.yaml")
	tablePath := filepath.Join(dir, "tables", "ancestors.txt")
	writeFile(t, tablePath, ancestors)
	writeFile(t, cfgPath, configYAML)

	base, stop := start(t, Options{ConfigPath: cfgPath, Watch: true})
	defer func() { require.NoError(t, stop()) }()

	q := `{"table": "ancestors", "edges": {"-->": [[0, 1], [1, 2]]}, "sets": {"X": [1]}}`
	writeFile(t, tablePath, descendants)
	require.Eventually(t, func() bool {
		resp, err := http.Post(base+"/v1/reach", "application/json", strings.NewReader(q))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var body struct {
			Reachable []int `json:"reachable"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) != nil {
			return false
		}
		return slices.Equal(body.Reachable, []int{1, 2})
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRun_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cifly.yaml")
	writeFile(t, cfgPath, "version: \"1\"\ntables:\n  - name: broken\n    source: \"EDGES -->\\nSTART --> AT Q\"\n")

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Addr: "127.0.0.1:0"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build catalog")
	assert.Contains(t, err.Error(), "table broken")

	err = Run(context.Background(), Options{ConfigPath: filepath.Join(dir, "missing.yaml")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

// A rebuild for another config that lands while Reload waits, as a watcher
// reload would, does not replace the outcome Reload reports.
func TestCatalogReloader_ReportsOwnRebuild(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cifly.yaml")
	writeFile(t, path, configYAML)
	writeFile(t, filepath.Join(dir, "tables", "ancestors.txt"), ancestors)

	loader, err := config.NewLoader(path)
	require.NoError(t, err)
	cat, err := catalog.Build(loader.Config(), loader.Dir())
	require.NoError(t, err)
	eng := engine.New(context.Background(), cat, procedure.Builtins(), loader.Config().Engine)
	defer eng.Shutdown()

	rel := &catalogReloader{loader: loader, eng: eng, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	broken := &config.Config{Version: "1", Tables: []config.TableDef{{Name: "missing", Path: "tables/missing.txt"}}}
	loader.OnChange(rel.onChange)
	loader.OnChange(func(*config.Config) { rel.onChange(broken) })

	got, err := rel.Reload()
	require.NoError(t, err)
	assert.Equal(t, []string{"ancestors"}, got.Names())
	assert.Equal(t, []string{"ancestors"}, eng.Catalog().Names())

	// a failed rebuild of its own config is reported
	writeFile(t, filepath.Join(dir, "tables", "ancestors.txt"), "EDGES -->\nSTART --> AT Y\n")
	_, err = rel.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ancestors")
}
