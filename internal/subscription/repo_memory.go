package subscription

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory repository for tests and local development.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string][]Subscription
}

func NewMemoryRepository(subs ...Subscription) *MemoryRepository {
	r := &MemoryRepository{rows: make(map[string][]Subscription)}
	for _, s := range subs {
		r.rows[s.UserID] = append(r.rows[s.UserID], s)
	}
	return r
}

func (r *MemoryRepository) Put(s Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.UserID] = append(r.rows[s.UserID], s)
}

func (r *MemoryRepository) Current(ctx context.Context, userID string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Prefer the most recently updated entitling row.
	var best Subscription
	found := false
	for _, s := range r.rows[userID] {
		if !s.Status.Entitled() {
			continue
		}
		if !found || s.UpdatedAt.After(best.UpdatedAt) {
			best = s
			found = true
		}
	}
	if !found {
		return Subscription{}, ErrNotFound
	}
	return best, nil
}
