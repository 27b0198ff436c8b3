package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a transaction. Closed set.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Transaction is the single entity this service synchronizes.
// EventTime is the business timestamp of the event, not the arrival time;
// it is the only ordering key used when concurrent writers race on one ID.
type Transaction struct {
	ID        string          `db:"id" json:"id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Currency  string          `db:"currency" json:"currency"`
	Status    Status          `db:"status" json:"status"`
	EventTime time.Time       `db:"event_time" json:"event_time"`
}

// NewerThan reports whether t carries a strictly newer event than other.
// Equal timestamps are not newer: re-delivery of the same snapshot is a no-op.
func (t *Transaction) NewerThan(other *Transaction) bool {
	if other == nil {
		return true
	}
	return t.EventTime.After(other.EventTime)
}

// Clone returns a copy so cache readers never share memory with writers.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	return &cp
}
