package config

import (
	"fmt"
	"regexp"
	"strings"
)

var tableName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Validate checks the config for:
//   - Required fields
//   - Duplicate or malformed table names
//   - Tables with both or neither of path and source
//   - Negative engine limits
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	e := cfg.Engine
	for _, f := range []struct {
		name string
		val  int
	}{
		{"workers", e.Workers},
		{"queue_depth", e.QueueDepth},
		{"query_timeout_ms", e.QueryTimeoutMs},
		{"max_vertices", e.MaxVertices},
		{"max_batch", e.MaxBatch},
	} {
		if f.val < 0 {
			errs = append(errs, fmt.Sprintf("engine.%s must not be negative, got %d", f.name, f.val))
		}
	}

	seen := make(map[string]int) // name → index
	for i, t := range cfg.Tables {
		if t.Name == "" {
			errs = append(errs, fmt.Sprintf("tables[%d]: name is required", i))
			continue
		}
		if !tableName.MatchString(t.Name) {
			errs = append(errs, fmt.Sprintf("table %s: name must match %s", t.Name, tableName))
		}
		if prev, ok := seen[t.Name]; ok {
			errs = append(errs, fmt.Sprintf("duplicate table name %q (tables[%d] and tables[%d])", t.Name, prev, i))
		} else {
			seen[t.Name] = i
		}
		switch {
		case t.Path != "" && t.Source != "":
			errs = append(errs, fmt.Sprintf("table %s: only one of path/source may be set", t.Name))
		case t.Path == "" && t.Source == "":
			errs = append(errs, fmt.Sprintf("table %s: one of path/source must be set", t.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
