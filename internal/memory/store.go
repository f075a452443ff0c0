// Package memory provides the append-only memory store backing background
// workers. Items are immutable once created; compaction synthesizes new
// items instead of rewriting old ones.
package memory

import (
	"context"
	"errors"
	"time"
)

// Kind classifies a memory item.
type Kind string

// Kind values accepted by the store.
const (
	KindFact       Kind = "fact"
	KindPreference Kind = "preference"
	KindSummary    Kind = "summary"
	KindEpisode    Kind = "episode"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFact, KindPreference, KindSummary, KindEpisode:
		return true
	}
	return false
}

var (
	// ErrMissingUserID is returned by Add when the write carries no user ID.
	ErrMissingUserID = errors.New("memory: user id is required")

	// ErrInvalidKind is returned by Add when the write carries an unknown kind.
	ErrInvalidKind = errors.New("memory: invalid kind")
)

// Item is a single immutable memory record.
type Item struct {
	ID             string
	UserID         string
	Kind           Kind
	Title          string
	Content        string
	Tags           []string
	ConversationID string
	CreatedAt      time.Time

	// ProvenanceRefs optionally names the records this item was derived from
	// (e.g. message IDs), opaque to the store.
	ProvenanceRefs []string

	// IsCompacted marks items produced by the compaction worker.
	// CompactedFromIDs lists the item IDs the compaction consumed.
	IsCompacted      bool
	CompactedFromIDs []string
}

// AddRequest describes a new item to append. ID and CreatedAt are assigned
// by the store.
type AddRequest struct {
	UserID         string
	Kind           Kind
	Title          string
	Content        string
	Tags           []string
	ConversationID string

	ProvenanceRefs   []string
	IsCompacted      bool
	CompactedFromIDs []string
}

// DefaultListLimit caps List results when the query does not set a limit.
const DefaultListLimit = 100

// ListQuery filters items. All set fields must match (conjunctive):
// UserID and ConversationID by equality, Kinds by membership, Tags by
// at-least-one overlap. An item without tags never matches a tag filter.
type ListQuery struct {
	UserID         string
	ConversationID string
	Kinds          []Kind
	Tags           []string

	// Limit caps the result set after sorting. Zero means DefaultListLimit.
	Limit int
}

// Store is the append-only memory container.
// Implementations must be safe for concurrent use.
type Store interface {
	// Add appends a new item and returns it with ID and CreatedAt assigned.
	Add(ctx context.Context, req AddRequest) (Item, error)

	// List returns matching items in ascending CreatedAt order, ties broken
	// by insertion order, truncated to the query limit.
	List(ctx context.Context, q ListQuery) ([]Item, error)

	// Len returns the total number of stored items.
	Len() int
}
