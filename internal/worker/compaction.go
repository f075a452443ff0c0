package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tbellec/famulus/internal/memory"
	"github.com/tbellec/famulus/internal/tool"
)

// compactionScanLimit bounds how many candidate items one compaction pass
// considers.
const compactionScanLimit = 500

// compactionPayload is the payload the scheduler hands to the compaction
// worker. Title and Content optionally carry a pre-computed summary.
type compactionPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId,omitempty"`
	Title          string `json:"title,omitempty"`
	Content        string `json:"content,omitempty"`
}

// Summarizer condenses memory items into a single summary text. The concrete
// implementation typically calls an LLM provider; compaction works without
// one by falling back to a deterministic digest.
type Summarizer interface {
	Summarize(ctx context.Context, items []memory.Item) (string, error)
}

// CompactionWorker synthesizes a condensed summary item from a user's
// existing memory items. Compaction never rewrites the sources: it appends a
// new summary item flagged with the IDs it consumed, and a later pass skips
// anything already consumed.
type CompactionWorker struct {
	Store      memory.Store
	Summarizer Summarizer // nil = deterministic digest
	Logger     *slog.Logger

	// MinSourceItems is the smallest batch worth compacting when no
	// pre-computed summary is supplied. Zero means 1.
	MinSourceItems int
}

// Compile-time interface check.
var _ tool.Tool = (*CompactionWorker)(nil)

// Name implements tool.Tool.
func (w *CompactionWorker) Name() string { return CompactionWorkerName }

// Description implements tool.Tool.
func (w *CompactionWorker) Description() string {
	return "Compacts a user's memory items into a single condensed summary item."
}

// Execute implements tool.Tool. Business-level problems (nothing to compact,
// summarizer failure) are reported through the failure envelope.
func (w *CompactionWorker) Execute(ctx context.Context, args json.RawMessage, ectx tool.ExecutionContext) tool.Result {
	var p compactionPayload
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return tool.Failure("invalid compaction payload: " + err.Error())
		}
	}
	if p.UserID == "" {
		return tool.Failure("memory compaction requires a user id")
	}

	sources, err := w.collectSources(ctx, p)
	if err != nil {
		return tool.Failure(err.Error())
	}

	minSources := w.MinSourceItems
	if minSources <= 0 {
		minSources = 1
	}
	precomputed := p.Content != ""
	if !precomputed && len(sources) < minSources {
		return tool.Failure(fmt.Sprintf("not enough memory items to compact: have %d, need %d", len(sources), minSources))
	}

	content := p.Content
	if !precomputed {
		content, err = w.summarize(ctx, sources)
		if err != nil {
			return tool.Failure("summarizing memory items: " + err.Error())
		}
	}

	title := p.Title
	if title == "" {
		title = fmt.Sprintf("Summary of %d memory items", len(sources))
	}

	ids := make([]string, len(sources))
	for i, it := range sources {
		ids[i] = it.ID
	}

	created, err := w.Store.Add(ctx, memory.AddRequest{
		UserID:           p.UserID,
		Kind:             memory.KindSummary,
		Title:            title,
		Content:          content,
		ConversationID:   p.ConversationID,
		IsCompacted:      true,
		CompactedFromIDs: ids,
	})
	if err != nil {
		return tool.Failure("storing summary item: " + err.Error())
	}

	if w.Logger != nil {
		w.Logger.Info("compaction: summary item created",
			"item", created.ID,
			"user", p.UserID,
			"sources", len(ids),
			"trigger", ectx.Source.Kind,
		)
	}

	return tool.Success(map[string]any{
		"itemId":    created.ID,
		"compacted": len(ids),
	})
}

// collectSources lists the user's items and drops compaction products and
// anything a previous compaction already consumed.
func (w *CompactionWorker) collectSources(ctx context.Context, p compactionPayload) ([]memory.Item, error) {
	items, err := w.Store.List(ctx, memory.ListQuery{
		UserID:         p.UserID,
		ConversationID: p.ConversationID,
		Limit:          compactionScanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing memory items: %w", err)
	}

	consumed := make(map[string]struct{})
	for _, it := range items {
		for _, id := range it.CompactedFromIDs {
			consumed[id] = struct{}{}
		}
	}

	var sources []memory.Item
	for _, it := range items {
		if it.IsCompacted {
			continue
		}
		if _, ok := consumed[it.ID]; ok {
			continue
		}
		sources = append(sources, it)
	}
	return sources, nil
}

// summarize delegates to the configured Summarizer, falling back to a
// deterministic digest of the source items.
func (w *CompactionWorker) summarize(ctx context.Context, sources []memory.Item) (string, error) {
	if w.Summarizer != nil {
		return w.Summarizer.Summarize(ctx, sources)
	}

	var b strings.Builder
	for _, it := range sources {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		if it.Title != "" {
			b.WriteString(it.Title)
			b.WriteString(": ")
		}
		b.WriteString(it.Content)
	}
	return b.String(), nil
}
