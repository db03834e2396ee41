package cache

import (
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"gomate/internal/metrics"
)

// sweepGrace keeps swept items alive past their TTL so the janitor never
// removes an entry the lazy check would still accept.
const sweepGrace = time.Minute

type volatileItem struct {
	value    interface{}
	storedAt time.Time
}

// Volatile is the in-memory API cache.
type Volatile struct {
	items *gocache.Cache
	ttl   time.Duration
	now   Clock
}

// NewVolatile creates a volatile cache. A positive sweep interval runs a
// janitor that drops long-expired items to bound memory.
func NewVolatile(ttl, sweep time.Duration, now Clock) *Volatile {
	if now == nil {
		now = time.Now
	}
	return &Volatile{
		items: gocache.New(ttl+sweepGrace, sweep),
		ttl:   ttl,
		now:   now,
	}
}

// TTL returns the configured time-to-live.
func (c *Volatile) TTL() time.Duration {
	return c.ttl
}

// Get returns the value under key if it is still valid.
func (c *Volatile) Get(key string) (interface{}, bool) {
	raw, ok := c.items.Get(key)
	if !ok {
		metrics.CacheLookups.WithLabelValues(metrics.TierVolatile, metrics.OutcomeMiss).Inc()
		return nil, false
	}

	item := raw.(volatileItem)
	if IsExpired(item.storedAt, c.now(), c.ttl) {
		c.items.Delete(key)
		metrics.CacheLookups.WithLabelValues(metrics.TierVolatile, metrics.OutcomeExpired).Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues(metrics.TierVolatile, metrics.OutcomeHit).Inc()
	return item.value, true
}

// Set stores value under key, overwriting any previous entry.
func (c *Volatile) Set(key string, value interface{}) {
	c.items.SetDefault(key, volatileItem{value: value, storedAt: c.now()})
}

// Invalidate removes key regardless of its age.
func (c *Volatile) Invalidate(key string) {
	c.items.Delete(key)
}

// InvalidateAll removes every entry.
func (c *Volatile) InvalidateAll() {
	c.items.Flush()
}

// Status lists the cached keys with their age and remaining lifetime.
func (c *Volatile) Status() []Status {
	now := c.now()
	items := c.items.Items()

	statuses := make([]Status, 0, len(items))
	for key, it := range items {
		item := it.Object.(volatileItem)
		age := now.Sub(item.storedAt)
		statuses = append(statuses, Status{
			Key:       key,
			Age:       age,
			ExpiresIn: c.ttl - age,
		})
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Key < statuses[j].Key })
	return statuses
}
