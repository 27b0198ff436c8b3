package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"txsync/internal/domain"

	"github.com/shopspring/decimal"
)

// MemoryRepository is an in-memory Store used in tests and local runs
// without a database. Same semantics as the Postgres store, including
// the event_time guard on conditional updates.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]*domain.Transaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]*domain.Transaction)}
}

func (r *MemoryRepository) Insert(ctx context.Context, tx *domain.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[tx.ID]; exists {
		return false, nil
	}
	r.rows[tx.ID] = tx.Clone()
	return true, nil
}

func (r *MemoryRepository) ConditionalUpdate(ctx context.Context, value *domain.Transaction, ifEventTimeBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.rows[value.ID]
	if !ok || !existing.EventTime.Before(ifEventTimeBefore) {
		return false, nil
	}
	r.rows[value.ID] = value.Clone()
	return true, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return tx.Clone(), nil
}

func (r *MemoryRepository) Count(ctx context.Context, f Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, tx := range r.rows {
		if matches(tx, f) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) SumByCurrency(ctx context.Context) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sums := make(map[string]decimal.Decimal)
	for _, tx := range r.rows {
		sums[tx.Currency] = sums[tx.Currency].Add(tx.Amount)
	}
	return sums, nil
}

func (r *MemoryRepository) ListRecent(ctx context.Context, f Filter, offset, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.Lock()
	var all []*domain.Transaction
	for _, tx := range r.rows {
		if matches(tx, f) {
			all = append(all, tx.Clone())
		}
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].EventTime.After(all[j].EventTime)
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func matches(tx *domain.Transaction, f Filter) bool {
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.Currency != "" && tx.Currency != f.Currency {
		return false
	}
	return true
}
