package memstore

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/infrastructure/metrics"
)

// LinkRegistry is an in-memory link store with TTL expiry and FIFO
// capacity eviction. It implements repository.LinkRegistry.
type LinkRegistry struct {
	mu    sync.Mutex
	links map[string]*model.Link
	order []string // insertion order, oldest first

	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewLinkRegistry creates a registry bounded to maxEntries entries, each
// live for ttl after insertion.
func NewLinkRegistry(ttl time.Duration, maxEntries int) *LinkRegistry {
	return &LinkRegistry{
		links:      make(map[string]*model.Link),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Create sweeps, assigns the link a fresh identifier and creation time,
// and stores it. ULIDs carry 80 bits of crypto-random entropy, so the
// collision loop exists only to uphold the never-reuse-a-live-id rule.
func (r *LinkRegistry) Create(link *model.Link) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	id := ulid.Make().String()
	for {
		if _, taken := r.links[id]; !taken {
			break
		}
		id = ulid.Make().String()
	}

	link.ID = id
	link.CreatedAt = now
	r.links[id] = link
	r.order = append(r.order, id)

	metrics.LinksCreatedTotal.Inc()
	return id
}

// Lookup returns the link stored under id. Expiry is checked only by the
// write-time sweep, so an entry past its TTL may still be returned here
// until the next Create.
func (r *LinkRegistry) Lookup(id string) (*model.Link, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if ok {
		metrics.LinkLookupsTotal.WithLabelValues(metrics.ResultHit).Inc()
	} else {
		metrics.LinkLookupsTotal.WithLabelValues(metrics.ResultMiss).Inc()
	}
	return link, ok
}

// Len reports the number of stored entries, including any not yet swept.
func (r *LinkRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}

// sweep removes expired entries, then evicts oldest-inserted entries until
// one more insert fits within maxEntries. Callers hold r.mu.
func (r *LinkRegistry) sweep(now time.Time) {
	kept := r.order[:0]
	for _, id := range r.order {
		link, ok := r.links[id]
		if !ok {
			continue
		}
		if link.Expired(r.ttl, now) {
			delete(r.links, id)
			metrics.StoreEvictionsTotal.WithLabelValues(metrics.StoreRegistry, metrics.EvictExpired).Inc()
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept

	for len(r.order) >= r.maxEntries {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.links, oldest)
		metrics.StoreEvictionsTotal.WithLabelValues(metrics.StoreRegistry, metrics.EvictCapacity).Inc()
	}
}
