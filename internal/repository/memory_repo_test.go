package repository

import (
	"context"
	"testing"
	"time"

	"txsync/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func record(eventTime time.Time, currency string, amount int64) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.NewString(),
		Amount:    decimal.NewFromInt(amount),
		Currency:  currency,
		Status:    domain.StatusPending,
		EventTime: eventTime,
	}
}

func TestInsertReportsConflict(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	tx := record(time.Now(), "USD", 10)
	if inserted, err := repo.Insert(ctx, tx); err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	if inserted, err := repo.Insert(ctx, tx); err != nil || inserted {
		t.Fatalf("duplicate insert: inserted=%v err=%v, want false nil", inserted, err)
	}

	if n, _ := repo.Count(ctx, Filter{}); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestConditionalUpdateGuard(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tx := record(base, "USD", 10)
	repo.Insert(ctx, tx)

	// older precondition loses
	older := tx.Clone()
	older.EventTime = base.Add(-time.Second)
	if won, _ := repo.ConditionalUpdate(ctx, older, older.EventTime); won {
		t.Fatal("update with older event_time must not win")
	}

	// equal precondition loses too
	if won, _ := repo.ConditionalUpdate(ctx, tx, tx.EventTime); won {
		t.Fatal("update with equal event_time must not win")
	}

	newer := tx.Clone()
	newer.EventTime = base.Add(time.Second)
	newer.Status = domain.StatusCompleted
	if won, _ := repo.ConditionalUpdate(ctx, newer, newer.EventTime); !won {
		t.Fatal("update with newer event_time must win")
	}

	got, _ := repo.Get(ctx, tx.ID)
	if got.Status != domain.StatusCompleted || !got.EventTime.Equal(newer.EventTime) {
		t.Fatalf("stored value not updated: %s at %v", got.Status, got.EventTime)
	}
}

func TestGetAbsentReturnsNil(t *testing.T) {
	repo := NewMemoryRepository()
	got, err := repo.Get(context.Background(), uuid.NewString())
	if err != nil || got != nil {
		t.Fatalf("absent get: tx=%v err=%v, want nil nil", got, err)
	}
}

func TestListRecentOrderingAndPaging(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		repo.Insert(ctx, record(base.Add(time.Duration(i)*time.Minute), "USD", int64(i)))
	}

	page, err := repo.ListRecent(ctx, Filter{}, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	if !page[0].EventTime.After(page[1].EventTime) {
		t.Fatal("list not ordered by event_time descending")
	}
	if !page[0].EventTime.Equal(base.Add(4 * time.Minute)) {
		t.Fatalf("newest first: got %v", page[0].EventTime)
	}

	rest, _ := repo.ListRecent(ctx, Filter{}, 4, 10)
	if len(rest) != 1 {
		t.Fatalf("offset page size = %d, want 1", len(rest))
	}
}

func TestFiltersAndAggregates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	base := time.Now().UTC()
	usd := record(base, "USD", 10)
	repo.Insert(ctx, usd)
	repo.Insert(ctx, record(base.Add(time.Second), "USD", 15))
	eur := record(base.Add(2*time.Second), "EUR", 7)
	eur.Status = domain.StatusCompleted
	repo.Insert(ctx, eur)

	if n, _ := repo.Count(ctx, Filter{Currency: "USD"}); n != 2 {
		t.Fatalf("usd count = %d, want 2", n)
	}
	if n, _ := repo.Count(ctx, Filter{Status: domain.StatusCompleted}); n != 1 {
		t.Fatalf("completed count = %d, want 1", n)
	}

	sums, err := repo.SumByCurrency(ctx)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !sums["USD"].Equal(decimal.NewFromInt(25)) {
		t.Fatalf("USD sum = %s, want 25", sums["USD"])
	}
	if !sums["EUR"].Equal(decimal.NewFromInt(7)) {
		t.Fatalf("EUR sum = %s, want 7", sums["EUR"])
	}
}
