// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for famulus.
package config

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Log controls the process logger.
	Log LogConfig `yaml:"log,omitempty"`

	// Memory tunes the memory store's read surface.
	Memory MemoryConfig `yaml:"memory,omitempty"`

	// Compaction tunes the memory compaction worker.
	Compaction CompactionConfig `yaml:"compaction,omitempty"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	// Defaults to info.
	Level string `yaml:"level,omitempty"`

	// Format selects the handler: text or json. Defaults to text.
	Format string `yaml:"format,omitempty"`
}

// MemoryConfig tunes the memory store.
type MemoryConfig struct {
	// ListLimit is the default result cap callers use when listing memory
	// items without an explicit limit. Defaults to the store's built-in
	// limit of 100.
	ListLimit int `yaml:"list_limit,omitempty"`
}

// CompactionConfig tunes the memory compaction worker.
type CompactionConfig struct {
	// MinSourceItems is the smallest batch the worker will compact.
	// Defaults to 1.
	MinSourceItems int `yaml:"min_source_items,omitempty"`
}

// Default returns a Config with every field at its default.
func Default() *Config {
	cfg := &Config{Version: "1"}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields in place. Validation still runs against
// the result so explicit bad values are never silently replaced.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Compaction.MinSourceItems == 0 {
		c.Compaction.MinSourceItems = 1
	}
}
