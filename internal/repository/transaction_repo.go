package repository

import (
	"context"
	"time"

	"txsync/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionRepository is the Postgres-backed Store.
type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Insert stores a new transaction; ON CONFLICT DO NOTHING so a concurrent
// insert of the same id on another node is reported, not errored.
func (r *TransactionRepository) Insert(ctx context.Context, tx *domain.Transaction) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO transactions (id, amount, currency, status, event_time)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		tx.ID, tx.Amount, tx.Currency, tx.Status, tx.EventTime,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ConditionalUpdate applies value only while the stored event_time is still
// older. The WHERE guard makes the row the final arbiter of write races.
func (r *TransactionRepository) ConditionalUpdate(ctx context.Context, value *domain.Transaction, ifEventTimeBefore time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE transactions
		 SET amount = $2, currency = $3, status = $4, event_time = $5
		 WHERE id = $1 AND event_time < $6`,
		value.ID, value.Amount, value.Currency, value.Status, value.EventTime, ifEventTimeBefore,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Get returns the stored record for id, or nil if absent.
func (r *TransactionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.QueryRow(ctx,
		`SELECT id, amount, currency, status, event_time
		 FROM transactions WHERE id = $1`,
		id,
	).Scan(&tx.ID, &tx.Amount, &tx.Currency, &tx.Status, &tx.EventTime)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// Count returns the number of records matching f.
func (r *TransactionRepository) Count(ctx context.Context, f Filter) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR currency = $2)`,
		string(f.Status), f.Currency,
	).Scan(&count)
	return count, err
}

// SumByCurrency aggregates total amounts grouped by currency code.
func (r *TransactionRepository) SumByCurrency(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT currency, COALESCE(SUM(amount), 0)
		 FROM transactions GROUP BY currency`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			currency string
			sum      decimal.Decimal
		)
		if err := rows.Scan(&currency, &sum); err != nil {
			return nil, err
		}
		sums[currency] = sum
	}
	return sums, rows.Err()
}

// ListRecent returns records ordered by event_time descending.
func (r *TransactionRepository) ListRecent(ctx context.Context, f Filter, offset, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, amount, currency, status, event_time
		 FROM transactions
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR currency = $2)
		 ORDER BY event_time DESC
		 OFFSET $3 LIMIT $4`,
		string(f.Status), f.Currency, offset, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.Amount, &tx.Currency, &tx.Status, &tx.EventTime); err != nil {
			return nil, err
		}
		result = append(result, &tx)
	}
	return result, rows.Err()
}
