package config

// Config is the top-level service configuration. Field tags cover both the
// YAML and the TOML encoding.
type Config struct {
	Version string     `yaml:"version" toml:"version"`
	Engine  EngineConf `yaml:"engine" toml:"engine"`
	Tables  []TableDef `yaml:"tables" toml:"tables"`
}

// EngineConf holds tunable concurrency and size limits.
type EngineConf struct {
	Workers        int `yaml:"workers" toml:"workers"`
	QueueDepth     int `yaml:"queue_depth" toml:"queue_depth"`
	QueryTimeoutMs int `yaml:"query_timeout_ms" toml:"query_timeout_ms"`
	MaxVertices    int `yaml:"max_vertices" toml:"max_vertices"` // per query, after id shifting
	MaxBatch       int `yaml:"max_batch" toml:"max_batch"`
}

// TableDef names a rule table. Exactly one of Path or Source is set; a
// relative Path is resolved against the config file's directory.
type TableDef struct {
	Name        string `yaml:"name" toml:"name"`
	Description string `yaml:"description" toml:"description"`
	Path        string `yaml:"path,omitempty" toml:"path,omitempty"`
	Source      string `yaml:"source,omitempty" toml:"source,omitempty"`
}

const (
	DefaultWorkers        = 8
	DefaultQueueDepth     = 1024
	DefaultQueryTimeoutMs = 5000
	DefaultMaxVertices    = 1_000_000
	DefaultMaxBatch       = 100
)

// ApplyDefaults fills zero engine values.
func (c *Config) ApplyDefaults() {
	if c.Engine.Workers == 0 {
		c.Engine.Workers = DefaultWorkers
	}
	if c.Engine.QueueDepth == 0 {
		c.Engine.QueueDepth = DefaultQueueDepth
	}
	if c.Engine.QueryTimeoutMs == 0 {
		c.Engine.QueryTimeoutMs = DefaultQueryTimeoutMs
	}
	if c.Engine.MaxVertices == 0 {
		c.Engine.MaxVertices = DefaultMaxVertices
	}
	if c.Engine.MaxBatch == 0 {
		c.Engine.MaxBatch = DefaultMaxBatch
	}
}
