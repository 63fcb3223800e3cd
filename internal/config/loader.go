package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML or TOML config file and watches it, together with the
// rule-table files it references, for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	onError  []func(error)
	watcher  *fsnotify.Watcher
	watched  map[string]bool
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path, watched: make(map[string]bool)}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Dir is the directory relative table paths are resolved against.
func (l *Loader) Dir() string { return filepath.Dir(l.path) }

// TablePaths returns the resolved paths of all file-backed tables in the
// current config.
func (l *Loader) TablePaths() []string {
	return TablePaths(l.Config(), l.Dir())
}

// TablePaths resolves the path of every file-backed table of cfg.
func TablePaths(cfg *Config, dir string) []string {
	var out []string
	for _, t := range cfg.Tables {
		if t.Path != "" {
			out = append(out, ResolvePath(dir, t.Path))
		}
	}
	return out
}

// ResolvePath joins relative paths onto dir.
func ResolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// OnError registers a callback invoked when a watched reload fails. The
// previous config stays active.
func (l *Loader) OnError(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onError = append(l.onError, fn)
}

// Watch starts a background goroutine that hot-reloads the config when the
// config file or any referenced table file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.mu.Lock()
	l.watcher = w
	l.watched[l.path] = true
	l.mu.Unlock()
	l.watchFiles()

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				switch {
				case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
					// Editors save by replacing the file; watch the new one
					// if it already exists under the old name.
					l.forget(ev.Name)
					l.watchFiles()
					if l.isWatched(ev.Name) {
						l.reloadWatched()
					}
				case ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create):
					l.reloadWatched()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.notifyError(fmt.Errorf("config watcher: %w", err))
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

func (l *Loader) reloadWatched() {
	if _, err := l.Reload(); err != nil {
		l.notifyError(err)
		return
	}
	l.watchFiles()
}

// watchFiles adds the config file and the table files referenced by the
// current config that are not watched yet. Files that do not exist are
// retried on the next call.
func (l *Loader) watchFiles() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher == nil {
		return
	}
	for _, p := range append([]string{l.path}, TablePaths(l.current, l.Dir())...) {
		if l.watched[p] {
			continue
		}
		if err := l.watcher.Add(p); err == nil {
			l.watched[p] = true
		}
	}
}

// forget drops a removed or renamed file from the watch list.
func (l *Loader) forget(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil {
		_ = l.watcher.Remove(name)
	}
	delete(l.watched, name)
}

func (l *Loader) isWatched(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.watched[name]
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) notifyError(err error) {
	l.mu.RLock()
	callbacks := make([]func(error), len(l.onError))
	copy(callbacks, l.onError)
	l.mu.RUnlock()
	for _, fn := range callbacks {
		fn(err)
	}
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	cfg, err := Decode(data, strings.EqualFold(filepath.Ext(l.path), ".toml"))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses a config document, TOML when isTOML is set and YAML
// otherwise, and applies defaults.
func Decode(data []byte, isTOML bool) (*Config, error) {
	var cfg Config
	if isTOML {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}
