// Package tool defines the capability contract for background-capable units
// in famulus. Every worker, including the scheduler itself, is a Tool: a
// named unit the runtime can look up and invoke uniformly.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is the interface all background-capable units must implement.
//
// Execute must not panic for expected-failure conditions; it reports them
// through a failure Result instead. Implementations must be safe to invoke
// concurrently for different contexts.
type Tool interface {
	// Name returns the unique identifier for this tool, used as the
	// registry key.
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// Execute runs the tool with the given arguments and execution context.
	Execute(ctx context.Context, args json.RawMessage, ectx ExecutionContext) Result
}

// SourceKind tags how an invocation was triggered.
type SourceKind string

// SourceKind values.
const (
	SourceUser      SourceKind = "user"
	SourceSystem    SourceKind = "system"
	SourceScheduler SourceKind = "scheduler"
)

// Source describes the provenance of an invocation.
type Source struct {
	Kind SourceKind `json:"kind"`
}

// ExecutionContext carries the ambient identity and provenance threaded
// through every tool invocation.
type ExecutionContext struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId,omitempty"`
	Source         Source `json:"source"`
}

// Result is the uniform envelope every tool execution yields. Callers must
// check OK before reading Data; Error is set only when OK is false. The
// envelope shape is stable across tool kinds — only the Data payload varies.
type Result struct {
	OK    bool           `json:"ok"`
	Data  map[string]any `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
}

// Success builds a success envelope carrying the given payload.
func Success(data map[string]any) Result {
	return Result{OK: true, Data: data}
}

// Failure builds a failure envelope carrying the given error message.
func Failure(msg string) Result {
	return Result{OK: false, Error: msg}
}
