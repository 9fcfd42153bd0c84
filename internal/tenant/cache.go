package tenant

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/sheetzu/internal/metrics"
)

// Static defaults.  Override via store.cache_ttl and store.cache_max.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 1000
	EvictInterval = 5 * time.Minute
)

// entry is one cached lookup result.
type entry struct {
	tenant   Tenant
	lastSeen int64 // UnixNano
}

// CachedStore fronts a Store with a domain-keyed read cache.  Hits are kept
// in a sync.Map and evicted on idle TTL or LRU pressure.  Misses are never
// cached, so a fresh registration is visible on the next request.
type CachedStore struct {
	next        Store
	sfg         singleflight.Group
	m           sync.Map // domain → *entry
	evictTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
	idleTTL     time.Duration
	maxEntries  int
}

// NewCachedStore wraps next and starts the background evictor.  Call
// Close to stop it.
func NewCachedStore(next Store, idleTTL time.Duration, maxEntries int) *CachedStore {
	if idleTTL <= 0 {
		idleTTL = IdleTTL
	}
	if maxEntries <= 0 {
		maxEntries = MaxEntries
	}
	c := &CachedStore{
		next:       next,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Insert writes through and drops any cached entry for the same domain.
func (c *CachedStore) Insert(ctx context.Context, t Tenant) error {
	if err := c.next.Insert(ctx, t); err != nil {
		return err
	}
	c.drop(t.Domain)
	return nil
}

// ByDomain returns the cached record or loads it on demand.  Concurrent
// misses for one domain share a single store query, which runs detached
// from any one caller's cancellation.
func (c *CachedStore) ByDomain(ctx context.Context, domain string) (Tenant, bool, error) {
	if v, ok := c.m.Load(domain); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.tenant, true, nil
	}

	type result struct {
		t  Tenant
		ok bool
	}
	ch := c.sfg.DoChan(domain, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(domain); ok {
			return result{t: v.(*entry).tenant, ok: true}, nil
		}
		t, ok, err := c.next.ByDomain(context.WithoutCancel(ctx), domain)
		if err != nil {
			metrics.TenantLoadErrorsTotal.Inc()
			return nil, err
		}
		if !ok {
			return result{}, nil
		}
		if _, loaded := c.m.LoadOrStore(domain, &entry{
			tenant:   t,
			lastSeen: time.Now().UnixNano(),
		}); !loaded {
			metrics.TenantLoadTotal.Inc()
			metrics.ActiveTenants.Inc()
		}
		return result{t: t, ok: true}, nil
	})

	select {
	case <-ctx.Done():
		return Tenant{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Tenant{}, false, res.Err
		}
		r := res.Val.(result)
		return r.t, r.ok, nil
	}
}

// All bypasses the cache.
func (c *CachedStore) All(ctx context.Context) ([]Tenant, error) {
	return c.next.All(ctx)
}

// Close stops the evictor.  It is safe to call more than once.
func (c *CachedStore) Close() {
	c.closeOnce.Do(func() {
		c.evictTicker.Stop()
		close(c.done)
	})
}

// Len reports the number of cached records.
func (c *CachedStore) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

func (c *CachedStore) drop(domain string) {
	if _, ok := c.m.LoadAndDelete(domain); ok {
		metrics.ActiveTenants.Dec()
	}
}
