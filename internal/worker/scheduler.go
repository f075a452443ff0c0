package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tbellec/famulus/internal/tool"
)

// Well-known tool and schedule-kind names.
const (
	SchedulerToolName    = "scheduler"
	CompactionWorkerName = "memory_compaction_worker"
	KindMemoryCompaction = "memory_compaction"
)

// Scheduler is the tool façade presenting a stable "schedule background
// work" capability while the set of schedulable kinds evolves behind it.
// It is itself a tool.Tool, so the runtime holds no special case for it.
type Scheduler struct {
	Runtime *Runtime
	Logger  *slog.Logger
}

// Compile-time interface check.
var _ tool.Tool = (*Scheduler)(nil)

// Name implements tool.Tool.
func (s *Scheduler) Name() string { return SchedulerToolName }

// Description implements tool.Tool.
func (s *Scheduler) Description() string {
	return "Schedules a background job of the requested kind and returns its job id."
}

// scheduleArgs are the caller-supplied arguments. Absent fields fall back
// to the execution context.
type scheduleArgs struct {
	Kind           string `json:"kind"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
	Content        string `json:"content"`
}

// Execute dispatches on args.kind (default memory_compaction). Every path
// yields a Result; no error crosses the scheduler's public contract.
func (s *Scheduler) Execute(ctx context.Context, args json.RawMessage, ectx tool.ExecutionContext) tool.Result {
	var p scheduleArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return tool.Failure("invalid schedule arguments: " + err.Error())
		}
	}

	kind := p.Kind
	if kind == "" {
		kind = KindMemoryCompaction
	}

	// Kind-specific branching stays local to this dispatch table; unknown
	// kinds are rejected before the worker registry is consulted.
	switch kind {
	case KindMemoryCompaction:
		return s.scheduleCompaction(ctx, p, ectx)
	default:
		return tool.Failure("Unknown schedule kind: " + kind)
	}
}

func (s *Scheduler) scheduleCompaction(ctx context.Context, p scheduleArgs, ectx tool.ExecutionContext) tool.Result {
	payload := compactionPayload{
		UserID:         firstNonEmpty(p.UserID, ectx.UserID),
		ConversationID: firstNonEmpty(p.ConversationID, ectx.ConversationID),
		Title:          p.Title,
		Content:        p.Content,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return tool.Failure("encoding compaction payload: " + err.Error())
	}

	job, err := s.Runtime.Enqueue(ctx, CompactionWorkerName, raw, deriveSchedulerContext(ectx))
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("scheduler: enqueue failed", "kind", KindMemoryCompaction, "error", err)
		}
		return tool.Failure(err.Error())
	}

	return tool.Success(map[string]any{
		"scheduled":  true,
		"jobId":      job.ID,
		"workerName": job.WorkerName,
	})
}

// deriveSchedulerContext rewrites system-sourced provenance to scheduler so
// downstream workers can tell scheduler-triggered work from directly
// triggered work. Any other source kind passes through unchanged. The
// rewrite is one-way: feeding the output back in returns it as-is.
func deriveSchedulerContext(ectx tool.ExecutionContext) tool.ExecutionContext {
	if ectx.Source.Kind == tool.SourceSystem {
		ectx.Source.Kind = tool.SourceScheduler
	}
	return ectx
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
