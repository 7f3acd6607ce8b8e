package audit

import (
	"context"
	"sync"
	"time"
)

// MemRepository is an in-memory Repository used by tests and local
// development runs without PostgreSQL.
type MemRepository struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemRepository constructs an empty in-memory repository.
func NewMemRepository() *MemRepository {
	return &MemRepository{}
}

// Insert stores one event.
func (r *MemRepository) Insert(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// TimelineWindow returns one page of events, newest first.
func (r *MemRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Event, 0, len(r.events))
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if filters.Kind != "" && e.Kind != filters.Kind {
			continue
		}
		if filters.Email != "" && e.Email != filters.Email {
			continue
		}
		matched = append(matched, e)
	}

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// DeleteBefore removes events older than the cutoff.
func (r *MemRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	var removed int64
	for _, e := range r.events {
		if e.OccurredAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return removed, nil
}

var _ Repository = (*MemRepository)(nil)
