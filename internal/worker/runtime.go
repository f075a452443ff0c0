// Package worker provides the job engine: a registry-backed dispatcher that
// accepts enqueue requests, mints job identity, and runs the matching tool
// to completion.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tbellec/famulus/internal/tool"
)

// Job correlates a worker invocation with its generated identity. The ID is
// stable for the job's lifetime and returned to the caller for correlation.
type Job struct {
	ID         string
	WorkerName string
}

// Runtime dispatches enqueue requests to tools registered under their name.
//
// "Enqueue" names the contract, not today's mechanics: execution is
// synchronous run-to-completion, with no queue, retry, or persisted job
// state. The signature returns job identity immediately so an asynchronous
// implementation can replace this one without breaking callers.
type Runtime struct {
	registry *tool.Registry
	logger   *slog.Logger
	metrics  *Metrics
}

// NewRuntime creates a runtime dispatching to the given registry.
// A nil metrics disables counting; a nil logger falls back to slog.Default.
func NewRuntime(registry *tool.Registry, logger *slog.Logger, metrics *Metrics) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// Enqueue resolves workerName, mints a Job, and invokes the worker with the
// payload and context.
//
// The returned Job metadata is independent of the worker's business outcome:
// a worker reporting a failure envelope still yields (Job, nil). Only an
// unknown worker name or a panic during invocation returns an error.
func (r *Runtime) Enqueue(ctx context.Context, workerName string, payload json.RawMessage, ectx tool.ExecutionContext) (Job, error) {
	t, err := r.registry.Get(workerName)
	if err != nil {
		r.metrics.observe(workerName, outcomeNotFound)
		return Job{}, fmt.Errorf("worker: enqueue: %w", err)
	}

	job := Job{
		ID:         uuid.New().String(),
		WorkerName: workerName,
	}

	r.logger.Debug("worker: job accepted",
		"job", job.ID,
		"worker", workerName,
		"source", ectx.Source.Kind,
	)

	res, err := r.invoke(ctx, t, payload, ectx)
	if err != nil {
		r.metrics.observe(workerName, outcomePanic)
		r.logger.Error("worker: job crashed", "job", job.ID, "worker", workerName, "error", err)
		return Job{}, err
	}

	if res.OK {
		r.metrics.observe(workerName, outcomeOK)
		r.logger.Debug("worker: job completed", "job", job.ID, "worker", workerName)
	} else {
		r.metrics.observe(workerName, outcomeFailed)
		r.logger.Warn("worker: job reported failure",
			"job", job.ID,
			"worker", workerName,
			"error", res.Error,
		)
	}

	return job, nil
}

// invoke runs the tool, converting a panic into an error so a misbehaving
// worker cannot take down the process.
func (r *Runtime) invoke(ctx context.Context, t tool.Tool, payload json.RawMessage, ectx tool.ExecutionContext) (res tool.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("worker: panic in %s: %v", t.Name(), rec)
		}
	}()
	return t.Execute(ctx, payload, ectx), nil
}
