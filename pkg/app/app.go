// Package app wires the famulus components together: the memory store, the
// tool registry, the worker runtime, and the tools registered on it.
// Callers (the CLI, an embedding service) construct one App per process.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbellec/famulus/internal/config"
	"github.com/tbellec/famulus/internal/memory"
	"github.com/tbellec/famulus/internal/tool"
	"github.com/tbellec/famulus/internal/worker"
)

// App holds the assembled components. The store and registry live for the
// process lifetime; construct a fresh App per test for isolation.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     memory.Store
	Tools     *tool.Registry
	Runtime   *worker.Runtime
	Scheduler *worker.Scheduler
	Metrics   *prometheus.Registry
}

// Options customizes App construction.
type Options struct {
	// Logger overrides the logger built from the config.
	Logger *slog.Logger

	// Summarizer, when set, is used by the compaction worker instead of the
	// built-in digest.
	Summarizer worker.Summarizer
}

// New builds a fully wired App from the given config. A nil cfg uses
// defaults.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg.Log, os.Stderr)
	}

	store := memory.NewInMemoryStore()
	registry := tool.NewRegistry()
	metrics := prometheus.NewRegistry()

	runtime := worker.NewRuntime(registry, logger.With("component", "worker"), worker.NewMetrics(metrics))

	scheduler := &worker.Scheduler{
		Runtime: runtime,
		Logger:  logger.With("component", "scheduler"),
	}
	compactor := &worker.CompactionWorker{
		Store:          store,
		Summarizer:     opts.Summarizer,
		MinSourceItems: cfg.Compaction.MinSourceItems,
		Logger:         logger.With("component", "compaction"),
	}

	for _, t := range []tool.Tool{scheduler, compactor} {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("app: registering tool %s: %w", t.Name(), err)
		}
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Tools:     registry,
		Runtime:   runtime,
		Scheduler: scheduler,
		Metrics:   metrics,
	}, nil
}

// ListLimit returns the configured default cap for memory listings.
func (a *App) ListLimit() int {
	if a.Config.Memory.ListLimit > 0 {
		return a.Config.Memory.ListLimit
	}
	return memory.DefaultListLimit
}

// NewLogger builds a slog.Logger from the log config. Unknown values fall
// back to info/text; config.Validate rejects them before this point in the
// normal path.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
