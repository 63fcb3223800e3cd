// Package catalog holds the compiled rule tables named in the service
// configuration.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mwien/CIfly/internal/config"
	"github.com/mwien/CIfly/internal/ruletable"
)

// OriginInline marks tables compiled from source embedded in the config.
const OriginInline = "inline"

// Entry is one named, compiled rule table.
type Entry struct {
	Name        string
	Description string
	Origin      string // resolved file path or OriginInline
	Table       *ruletable.Ruletable
}

// Catalog is immutable once built; hot-reload builds a new Catalog and
// swaps it atomically.
type Catalog struct {
	entries map[string]*Entry
	names   []string
}

// Build compiles every table of cfg. Relative paths are resolved against
// baseDir. All failing tables are reported, each error naming its table.
func Build(cfg *config.Config, baseDir string) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]*Entry, len(cfg.Tables))}
	var errs []error
	for _, def := range cfg.Tables {
		e, err := compile(def, baseDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("table %s: %w", def.Name, err))
			continue
		}
		c.entries[def.Name] = e
		c.names = append(c.names, def.Name)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	slices.Sort(c.names)
	return c, nil
}

func compile(def config.TableDef, baseDir string) (*Entry, error) {
	e := &Entry{Name: def.Name, Description: def.Description}
	var err error
	if def.Path != "" {
		e.Origin = config.ResolvePath(baseDir, def.Path)
		e.Table, err = ruletable.ReadFile(e.Origin)
	} else {
		e.Origin = OriginInline
		e.Table, err = ruletable.Compile(def.Source)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns the entry for name (nil if not found).
func (c *Catalog) Get(name string) *Entry {
	return c.entries[name]
}

// Names returns all table names, sorted.
func (c *Catalog) Names() []string {
	return c.names
}

// Len returns the number of tables.
func (c *Catalog) Len() int {
	return len(c.names)
}
