package cache

import (
	"context"
	"sync"
	"time"

	"txsync/internal/domain"
	"txsync/internal/logger"
	"txsync/internal/repository"
)

const warmupTimeout = 10 * time.Second

type entry struct {
	tx      *domain.Transaction
	touched uint64
}

// Cache is a bounded read-through cache over the durable store. It holds
// the most-recently-seen records up to capacity; absence from the cache
// says nothing about absence from the store. Each instance is owned by
// whoever constructs it — there is no package-level singleton.
type Cache struct {
	store       repository.Store
	capacity    int
	warmupLimit int

	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64

	// warm-up is single-flight: concurrent first readers block on warmMu
	// while one of them performs the bulk load.
	warmMu sync.Mutex
	warmed bool
}

func New(store repository.Store, capacity, warmupLimit int) *Cache {
	if capacity <= 0 {
		capacity = 1000
	}
	if warmupLimit <= 0 || warmupLimit > capacity {
		warmupLimit = capacity
	}
	return &Cache{
		store:       store,
		capacity:    capacity,
		warmupLimit: warmupLimit,
		entries:     make(map[string]*entry),
	}
}

// ensureWarm performs the one-time bounded bulk load of the most recent
// records. A failed warm-up is retried on the next call rather than
// poisoning the cache for the process lifetime.
func (c *Cache) ensureWarm(ctx context.Context) error {
	c.warmMu.Lock()
	defer c.warmMu.Unlock()

	if c.warmed {
		return nil
	}

	wctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	recent, err := c.store.ListRecent(wctx, repository.Filter{}, 0, c.warmupLimit)
	if err != nil {
		return err
	}

	for _, tx := range recent {
		c.Merge(tx)
	}
	c.warmed = true
	logger.Info("cache warmed", "records", len(recent), "limit", c.warmupLimit)
	return nil
}

// Merge writes tx into the cache only if it is strictly newer than the
// cached value for the same id (compare-and-set on event_time). A cached
// id never regresses because of a local write. Cache-only: the durable
// store is not touched. Returns whether the cache changed.
func (c *Cache) Merge(tx *domain.Transaction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	if e, ok := c.entries[tx.ID]; ok {
		e.touched = c.seq
		if !tx.NewerThan(e.tx) {
			return false
		}
		e.tx = tx.Clone()
		return true
	}

	c.entries[tx.ID] = &entry{tx: tx.Clone(), touched: c.seq}
	c.evictLocked()
	return true
}

// evictLocked drops least-recently-touched entries until len <= capacity.
func (c *Cache) evictLocked() {
	for len(c.entries) > c.capacity {
		var (
			oldestID  string
			oldestSeq uint64
		)
		first := true
		for id, e := range c.entries {
			if first || e.touched < oldestSeq {
				oldestID = id
				oldestSeq = e.touched
				first = false
			}
		}
		delete(c.entries, oldestID)
	}
}

// lookup returns the cached value for id, or nil. Touches the entry.
func (c *Cache) lookup(id string) *domain.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	c.seq++
	e.touched = c.seq
	return e.tx.Clone()
}

// Get reads through: cached value if present, otherwise a point lookup
// against the store (a miss does not imply the id does not exist).
func (c *Cache) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	if err := c.ensureWarm(ctx); err != nil {
		return nil, err
	}

	if tx := c.lookup(id); tx != nil {
		return tx, nil
	}

	tx, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx != nil {
		c.Merge(tx)
	}
	return tx, nil
}

// GetAll returns a snapshot of the cached working set.
func (c *Cache) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	if err := c.ensureWarm(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]*domain.Transaction, 0, len(c.entries))
	for _, e := range c.entries {
		result = append(result, e.tx.Clone())
	}
	return result, nil
}

// GetByStatus returns cached records with the given status.
func (c *Cache) GetByStatus(ctx context.Context, status domain.Status) ([]*domain.Transaction, error) {
	if err := c.ensureWarm(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var result []*domain.Transaction
	for _, e := range c.entries {
		if e.tx.Status == status {
			result = append(result, e.tx.Clone())
		}
	}
	return result, nil
}

// Len reports the current working-set size.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
