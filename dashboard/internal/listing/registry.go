package listing

import (
	"sync"
	"time"
)

type entry struct {
	listing   *Listing
	expiresAt time.Time
}

// Registry keeps one Listing per session until the session signs out or
// expires.
type Registry struct {
	mu       sync.Mutex
	fetcher  Fetcher
	limit    int
	listings map[string]entry
	now      func() time.Time
}

func NewRegistry(fetcher Fetcher, limit int) *Registry {
	return &Registry{
		fetcher:  fetcher,
		limit:    limit,
		listings: map[string]entry{},
		now:      time.Now,
	}
}

// Get returns the listing of sessionID, creating it when absent.
func (r *Registry) Get(sessionID string, expiresAt time.Time) *Listing {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune()
	if e, ok := r.listings[sessionID]; ok {
		return e.listing
	}
	l := New(r.fetcher, r.limit)
	r.listings[sessionID] = entry{listing: l, expiresAt: expiresAt}
	return l
}

func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listings, sessionID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune()
	return len(r.listings)
}

func (r *Registry) prune() {
	now := r.now()
	for id, e := range r.listings {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(r.listings, id)
		}
	}
}
