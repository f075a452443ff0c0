package worker_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tbellec/famulus/internal/tool"
	"github.com/tbellec/famulus/internal/worker"
)

// newScheduler wires a Scheduler over a runtime with the given compaction
// stand-in registered under the real worker name.
func newScheduler(t *testing.T, compaction tool.Tool) (*worker.Scheduler, *captureTool) {
	t.Helper()

	capture, _ := compaction.(*captureTool)
	var tools []tool.Tool
	if compaction != nil {
		tools = append(tools, compaction)
	}
	rt, _ := newRuntime(t, tools...)
	return &worker.Scheduler{Runtime: rt, Logger: quietLogger()}, capture
}

func compactionStub() *captureTool {
	return &captureTool{name: worker.CompactionWorkerName, result: tool.Success(nil)}
}

func userCtx() tool.ExecutionContext {
	return tool.ExecutionContext{
		UserID:         "u1",
		ConversationID: "c1",
		Source:         tool.Source{Kind: tool.SourceUser},
	}
}

func TestScheduler_DefaultKindIsMemoryCompaction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for _, args := range []json.RawMessage{nil, json.RawMessage(`{}`), json.RawMessage(`{"kind":"memory_compaction"}`)} {
		sched, capture := newScheduler(t, compactionStub())

		res := sched.Execute(ctx, args, userCtx())
		if !res.OK {
			t.Fatalf("Execute(%s): unexpected failure: %s", args, res.Error)
		}
		if res.Data["scheduled"] != true {
			t.Fatalf("Execute(%s): data missing scheduled=true: %+v", args, res.Data)
		}
		if res.Data["workerName"] != worker.CompactionWorkerName {
			t.Fatalf("Execute(%s): workerName = %v", args, res.Data["workerName"])
		}
		if id, _ := res.Data["jobId"].(string); id == "" {
			t.Fatalf("Execute(%s): missing jobId: %+v", args, res.Data)
		}
		if capture.callCount() != 1 {
			t.Fatalf("Execute(%s): worker invoked %d times, want 1", args, capture.callCount())
		}
	}
}

func TestScheduler_UnknownKind(t *testing.T) {
	t.Parallel()

	sched, capture := newScheduler(t, compactionStub())

	res := sched.Execute(context.Background(), json.RawMessage(`{"kind":"bogus"}`), userCtx())
	if res.OK {
		t.Fatal("unknown kind must fail")
	}
	if res.Error != "Unknown schedule kind: bogus" {
		t.Fatalf("error = %q", res.Error)
	}
	if capture.callCount() != 0 {
		t.Fatalf("unknown kind must not enqueue, worker invoked %d times", capture.callCount())
	}
}

func TestScheduler_EnqueueFailureBecomesEnvelope(t *testing.T) {
	t.Parallel()

	// No compaction worker registered: enqueue fails with a lookup error.
	sched, _ := newScheduler(t, nil)

	res := sched.Execute(context.Background(), nil, userCtx())
	if res.OK {
		t.Fatal("enqueue failure must yield a failure envelope")
	}
	if !strings.Contains(res.Error, "tool not found") {
		t.Fatalf("error lost its cause: %q", res.Error)
	}
}

func TestScheduler_RewritesSystemProvenance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   tool.SourceKind
		want tool.SourceKind
	}{
		{name: "system becomes scheduler", in: tool.SourceSystem, want: tool.SourceScheduler},
		{name: "user passes through", in: tool.SourceUser, want: tool.SourceUser},
		{name: "scheduler is not rewritten twice", in: tool.SourceScheduler, want: tool.SourceScheduler},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sched, capture := newScheduler(t, compactionStub())

			ectx := userCtx()
			ectx.Source.Kind = tt.in

			res := sched.Execute(context.Background(), nil, ectx)
			if !res.OK {
				t.Fatalf("Execute: unexpected failure: %s", res.Error)
			}
			if got := capture.lastCall(t).ectx.Source.Kind; got != tt.want {
				t.Fatalf("worker saw source kind %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScheduler_PayloadFallsBackToContext(t *testing.T) {
	t.Parallel()

	sched, capture := newScheduler(t, compactionStub())

	res := sched.Execute(context.Background(), json.RawMessage(`{"title":"weekly digest"}`), userCtx())
	if !res.OK {
		t.Fatalf("Execute: unexpected failure: %s", res.Error)
	}

	var payload struct {
		UserID         string `json:"userId"`
		ConversationID string `json:"conversationId"`
		Title          string `json:"title"`
	}
	if err := json.Unmarshal(capture.lastCall(t).args, &payload); err != nil {
		t.Fatalf("decoding worker payload: %v", err)
	}
	if payload.UserID != "u1" || payload.ConversationID != "c1" {
		t.Fatalf("payload must fall back to context identity, got %+v", payload)
	}
	if payload.Title != "weekly digest" {
		t.Fatalf("payload.Title = %q", payload.Title)
	}
}

func TestScheduler_ExplicitArgsWinOverContext(t *testing.T) {
	t.Parallel()

	sched, capture := newScheduler(t, compactionStub())

	res := sched.Execute(context.Background(), json.RawMessage(`{"userId":"u9","conversationId":"c9"}`), userCtx())
	if !res.OK {
		t.Fatalf("Execute: unexpected failure: %s", res.Error)
	}

	var payload struct {
		UserID         string `json:"userId"`
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(capture.lastCall(t).args, &payload); err != nil {
		t.Fatalf("decoding worker payload: %v", err)
	}
	if payload.UserID != "u9" || payload.ConversationID != "c9" {
		t.Fatalf("explicit args must win over context, got %+v", payload)
	}
}

func TestScheduler_MalformedArgs(t *testing.T) {
	t.Parallel()

	sched, capture := newScheduler(t, compactionStub())

	res := sched.Execute(context.Background(), json.RawMessage(`{not json`), userCtx())
	if res.OK {
		t.Fatal("malformed args must fail")
	}
	if capture.callCount() != 0 {
		t.Fatal("malformed args must not enqueue")
	}
}
