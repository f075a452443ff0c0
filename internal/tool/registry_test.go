package tool_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/tbellec/famulus/internal/tool"
)

// stubTool is a minimal Tool for registry tests.
type stubTool struct {
	name string
	desc string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return s.desc }

func (s *stubTool) Execute(_ context.Context, _ json.RawMessage, _ tool.ExecutionContext) tool.Result {
	return tool.Success(map[string]any{"ran": s.name})
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	st := &stubTool{name: "echo", desc: "echoes"}

	if err := r.Register(st); err != nil {
		t.Fatalf("Register: unexpected error: %v", err)
	}

	got, err := r.Get("echo")
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if got != tool.Tool(st) {
		t.Fatal("Get returned a different tool than was registered")
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()

	_, err := r.Get("missing")
	if !errors.Is(err, tool.ErrToolNotFound) {
		t.Fatalf("Get(missing): got %v, want ErrToolNotFound", err)
	}
}

func TestRegistry_RejectsEmptyName(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()

	if err := r.Register(&stubTool{name: "   "}); !errors.Is(err, tool.ErrEmptyToolName) {
		t.Fatalf("Register(blank name): got %v, want ErrEmptyToolName", err)
	}
}

func TestRegistry_RejectsDuplicate(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()

	if err := r.Register(&stubTool{name: "dup"}); err != nil {
		t.Fatalf("first Register: unexpected error: %v", err)
	}
	if err := r.Register(&stubTool{name: "dup"}); !errors.Is(err, tool.ErrDuplicateTool) {
		t.Fatalf("second Register: got %v, want ErrDuplicateTool", err)
	}
}

func TestRegistry_ToolsAndNamesSorted(t *testing.T) {
	t.Parallel()

	r := tool.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&stubTool{name: name, desc: "tool " + name}); err != nil {
			t.Fatalf("Register(%q): unexpected error: %v", name, err)
		}
	}

	wantNames := []string{"alpha", "mid", "zeta"}
	names := r.Names()
	if len(names) != len(wantNames) {
		t.Fatalf("Names returned %d entries, want %d", len(names), len(wantNames))
	}
	for i, want := range wantNames {
		if names[i] != want {
			t.Fatalf("Names[%d] = %q, want %q", i, names[i], want)
		}
	}

	infos := r.Tools()
	for i, want := range wantNames {
		if infos[i].Name != want {
			t.Fatalf("Tools[%d].Name = %q, want %q", i, infos[i].Name, want)
		}
		if infos[i].Description != "tool "+want {
			t.Fatalf("Tools[%d].Description = %q", i, infos[i].Description)
		}
	}
}

func TestResultEnvelopes(t *testing.T) {
	t.Parallel()

	ok := tool.Success(map[string]any{"n": 1})
	if !ok.OK || ok.Error != "" || ok.Data["n"] != 1 {
		t.Fatalf("Success envelope malformed: %+v", ok)
	}

	fail := tool.Failure("boom")
	if fail.OK || fail.Error != "boom" || fail.Data != nil {
		t.Fatalf("Failure envelope malformed: %+v", fail)
	}
}
