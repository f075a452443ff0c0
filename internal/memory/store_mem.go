package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a thread-safe, process-lifetime implementation of Store.
// Items live in insertion order; nothing is ever deleted or rewritten.
type InMemoryStore struct {
	mu    sync.RWMutex
	items []Item

	// lastCreated guards the non-decreasing CreatedAt invariant against
	// wall-clock steps.
	lastCreated time.Time
}

// NewInMemoryStore creates a new empty memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Compile-time interface check.
var _ Store = (*InMemoryStore)(nil)

// Add appends a new item. The stored copy owns its slices, so callers may
// reuse the request's backing arrays.
func (s *InMemoryStore) Add(_ context.Context, req AddRequest) (Item, error) {
	if req.UserID == "" {
		return Item{}, ErrMissingUserID
	}
	if !req.Kind.Valid() {
		return Item{}, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(s.lastCreated) {
		now = s.lastCreated
	}
	s.lastCreated = now

	item := Item{
		ID:               uuid.New().String(),
		UserID:           req.UserID,
		Kind:             req.Kind,
		Title:            req.Title,
		Content:          req.Content,
		Tags:             slices.Clone(req.Tags),
		ConversationID:   req.ConversationID,
		CreatedAt:        now,
		ProvenanceRefs:   slices.Clone(req.ProvenanceRefs),
		IsCompacted:      req.IsCompacted,
		CompactedFromIDs: slices.Clone(req.CompactedFromIDs),
	}
	s.items = append(s.items, item)
	return item, nil
}

// List returns matching items sorted by ascending CreatedAt. The sort is
// stable, so equal timestamps keep insertion order. The limit is applied
// after sorting.
func (s *InMemoryStore) List(_ context.Context, q ListQuery) ([]Item, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	var matched []Item
	for i := range s.items {
		if q.matches(&s.items[i]) {
			matched = append(matched, s.items[i])
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b Item) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Len returns the total number of stored items.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// matches applies every set filter conjunctively.
func (q *ListQuery) matches(it *Item) bool {
	if q.UserID != "" && it.UserID != q.UserID {
		return false
	}
	if q.ConversationID != "" && it.ConversationID != q.ConversationID {
		return false
	}
	if len(q.Kinds) > 0 && !slices.Contains(q.Kinds, it.Kind) {
		return false
	}
	if len(q.Tags) > 0 {
		// An item without tags can never overlap a tag filter.
		if len(it.Tags) == 0 {
			return false
		}
		overlap := false
		for _, t := range q.Tags {
			if slices.Contains(it.Tags, t) {
				overlap = true
				break
			}
		}
		if !overlap {
			return false
		}
	}
	return true
}
