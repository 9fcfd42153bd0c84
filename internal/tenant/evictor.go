// evictor.go houses the eviction loop for CachedStore.  Every EvictInterval
// it scans the map and removes:
//
//   - records idle longer than idleTTL
//   - least-recently-used records when map size exceeds maxEntries
//
// Each eviction event is logged and updates Prometheus counters.
package tenant

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/sheetzu/internal/metrics"
)

func (c *CachedStore) evictLoop() {
	for {
		select {
		case <-c.done:
			return
		case t := <-c.evictTicker.C:
			c.evict(t.UnixNano())
		}
	}
}

// evict runs one idle pass and one LRU pass against the clock value now.
func (c *CachedStore) evict(now int64) {
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
		if idle > c.idleTTL {
			c.m.Delete(key)
			zap.L().Debug("tenant evicted after idle",
				zap.String("domain", key.(string)),
				zap.Duration("idle", idle.Truncate(time.Second)))
			metrics.TenantEvictTotal.Inc()
			metrics.ActiveTenants.Dec()
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if c.maxEntries > 0 && count > c.maxEntries {
		type kv struct {
			key string
			at  int64
		}
		all := make([]kv, 0, count)
		c.m.Range(func(key, value any) bool {
			ent := value.(*entry)
			all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&ent.lastSeen)})
			return true
		})
		sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
		for i := 0; i < len(all)-c.maxEntries; i++ {
			if _, ok := c.m.LoadAndDelete(all[i].key); ok {
				zap.L().Debug("tenant evicted (LRU pressure)",
					zap.String("domain", all[i].key))
				metrics.TenantEvictTotal.Inc()
				metrics.ActiveTenants.Dec()
			}
		}
	}
}
