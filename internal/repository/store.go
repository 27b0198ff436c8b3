package repository

import (
	"context"
	"time"

	"txsync/internal/domain"

	"github.com/shopspring/decimal"
)

// Filter narrows list/count queries. Zero value means no filtering.
type Filter struct {
	Status   domain.Status
	Currency string
}

// Store is the durable home of transaction records. All operations are
// independently atomic; the conditional update is the arbiter when two
// nodes race on the same id.
type Store interface {
	// Insert stores a brand-new record. Returns false if a record with
	// the same id already exists (another writer got there first).
	Insert(ctx context.Context, tx *domain.Transaction) (bool, error)

	// ConditionalUpdate replaces the stored record for value.ID only if
	// the stored event_time is strictly before ifEventTimeBefore.
	// Returns false when the precondition did not hold at commit time.
	ConditionalUpdate(ctx context.Context, value *domain.Transaction, ifEventTimeBefore time.Time) (bool, error)

	// Get returns the record for id, or nil when no such record exists.
	Get(ctx context.Context, id string) (*domain.Transaction, error)

	// Count returns the number of stored records matching f.
	Count(ctx context.Context, f Filter) (int64, error)

	// SumByCurrency returns the total amount per currency code.
	SumByCurrency(ctx context.Context) (map[string]decimal.Decimal, error)

	// ListRecent returns records ordered by event_time descending.
	ListRecent(ctx context.Context, f Filter, offset, limit int) ([]*domain.Transaction, error)
}
