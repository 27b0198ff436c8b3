package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"txsync/internal/domain"
	"txsync/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func record(id string, eventTime time.Time, status domain.Status) *domain.Transaction {
	return &domain.Transaction{
		ID:        id,
		Amount:    decimal.NewFromInt(10),
		Currency:  "USD",
		Status:    status,
		EventTime: eventTime,
	}
}

func seedStore(t *testing.T, n int, base time.Time) (*repository.MemoryRepository, []string) {
	t.Helper()
	store := repository.NewMemoryRepository()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = uuid.NewString()
		tx := record(ids[i], base.Add(time.Duration(i)*time.Minute), domain.StatusPending)
		if _, err := store.Insert(context.Background(), tx); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}
	return store, ids
}

func TestBoundedWarmup(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store, ids := seedStore(t, 5, base)

	c := New(store, 10, 3)
	ctx := context.Background()

	// first access triggers the warm-up
	if _, err := c.GetAll(ctx); err != nil {
		t.Fatalf("warm-up: %v", err)
	}
	if got := c.Len(); got != 3 {
		t.Fatalf("warmed working set = %d, want 3", got)
	}

	// the three most recent records are cached
	for _, id := range ids[2:] {
		if tx := c.lookup(id); tx == nil {
			t.Fatalf("recent id %s missing from warmed cache", id)
		}
	}

	// an older id is not cached but still readable via fall-through
	if tx := c.lookup(ids[0]); tx != nil {
		t.Fatalf("old id %s should not be in the warmed working set", ids[0])
	}
	tx, err := c.Get(ctx, ids[0])
	if err != nil || tx == nil {
		t.Fatalf("fall-through read failed: tx=%v err=%v", tx, err)
	}
	if tx.ID != ids[0] {
		t.Fatalf("fall-through returned %s, want %s", tx.ID, ids[0])
	}
}

func TestMergeNeverRegresses(t *testing.T) {
	store := repository.NewMemoryRepository()
	c := New(store, 10, 10)

	id := uuid.NewString()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if !c.Merge(record(id, base, domain.StatusPending)) {
		t.Fatal("initial merge rejected")
	}
	if c.Merge(record(id, base, domain.StatusFailed)) {
		t.Fatal("equal event_time must not replace the cached value")
	}
	if c.Merge(record(id, base.Add(-time.Second), domain.StatusFailed)) {
		t.Fatal("older event_time must not replace the cached value")
	}
	if !c.Merge(record(id, base.Add(time.Second), domain.StatusCompleted)) {
		t.Fatal("newer event_time rejected")
	}

	got := c.lookup(id)
	if got.Status != domain.StatusCompleted || !got.EventTime.Equal(base.Add(time.Second)) {
		t.Fatalf("cached value regressed: %s at %v", got.Status, got.EventTime)
	}
}

func TestConcurrentMerges(t *testing.T) {
	store := repository.NewMemoryRepository()
	c := New(store, 10, 10)

	id := uuid.NewString()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Merge(record(id, base.Add(time.Duration(i)*time.Millisecond), domain.StatusPending))
		}(i)
	}
	wg.Wait()

	got := c.lookup(id)
	if !got.EventTime.Equal(base.Add(99 * time.Millisecond)) {
		t.Fatalf("cached event_time = %v, want %v", got.EventTime, base.Add(99*time.Millisecond))
	}
}

func TestEvictionKeepsBound(t *testing.T) {
	store := repository.NewMemoryRepository()
	c := New(store, 5, 5)

	base := time.Now().UTC()
	for i := 0; i < 20; i++ {
		c.Merge(record(uuid.NewString(), base.Add(time.Duration(i)*time.Second), domain.StatusPending))
	}

	if got := c.Len(); got != 5 {
		t.Fatalf("working set = %d, want 5", got)
	}
}

func TestGetByStatus(t *testing.T) {
	store := repository.NewMemoryRepository()
	c := New(store, 10, 10)
	ctx := context.Background()

	base := time.Now().UTC()
	c.Merge(record(uuid.NewString(), base, domain.StatusPending))
	c.Merge(record(uuid.NewString(), base.Add(time.Second), domain.StatusCompleted))
	c.Merge(record(uuid.NewString(), base.Add(2*time.Second), domain.StatusCompleted))

	completed, err := c.GetByStatus(ctx, domain.StatusCompleted)
	if err != nil {
		t.Fatalf("get by status: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("completed = %d, want 2", len(completed))
	}
}
