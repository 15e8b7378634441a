// Package history persists completed recognition runs and their contacts so
// users can revisit, re-parse, and export past scans.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cardsnap/cardsnap/internal/entity"
)

// Entry is one persisted pipeline run.
type Entry struct {
	ID          uuid.UUID                `json:"id"`
	Recognition entity.RecognitionResult `json:"recognition"`
	Contact     entity.ExtractedContact  `json:"contact"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Since  time.Time
	Until  time.Time
	Source string // "ai" | "local" | "manual"
	Limit  int
}

// Store is the persistence surface. Implementations return
// common.ErrNotFound (wrapped) for missing ids.
type Store interface {
	Save(ctx context.Context, entry Entry) error
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// NewEntry stamps a fresh id and timestamp for a completed run.
func NewEntry(rec entity.RecognitionResult, contact entity.ExtractedContact) Entry {
	return Entry{
		ID:          uuid.New(),
		Recognition: rec,
		Contact:     contact,
		CreatedAt:   time.Now().UTC(),
	}
}
