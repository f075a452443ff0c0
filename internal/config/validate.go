package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks the structural validity of a Config. All problems are
// reported at once via errors.Join.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Log.Level != "" && !slices.Contains(logLevels, cfg.Log.Level) {
		errs = append(errs, fmt.Errorf("config: unknown log level %q (supported: %v)", cfg.Log.Level, logLevels))
	}
	if cfg.Log.Format != "" && !slices.Contains(logFormats, cfg.Log.Format) {
		errs = append(errs, fmt.Errorf("config: unknown log format %q (supported: %v)", cfg.Log.Format, logFormats))
	}

	if cfg.Memory.ListLimit < 0 {
		errs = append(errs, fmt.Errorf("config: memory.list_limit must not be negative (got %d)", cfg.Memory.ListLimit))
	}
	if cfg.Compaction.MinSourceItems < 0 {
		errs = append(errs, fmt.Errorf("config: compaction.min_source_items must not be negative (got %d)", cfg.Compaction.MinSourceItems))
	}

	return errors.Join(errs...)
}
