package service

import (
	"errors"

	"txsync/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrInvalidID        = errors.New("transaction id must be a valid uuid")
	ErrInvalidCurrency  = errors.New("currency is required")
	ErrStoreUnavailable = errors.New("transaction store unavailable")
)

// Resolution is the verdict on an incoming event against known state.
type Resolution int

const (
	// ResolutionNew: no record exists for this id yet.
	ResolutionNew Resolution = iota
	// ResolutionUpdate: the incoming event is strictly newer than the known one.
	ResolutionUpdate
	// ResolutionStale: the known event_time is >= the incoming one. Not an
	// error; out-of-order and duplicate delivery land here and are absorbed.
	ResolutionStale
)

// Validate gates events before any conflict logic runs.
func Validate(tx *domain.Transaction) error {
	if _, err := uuid.Parse(tx.ID); err != nil {
		return ErrInvalidID
	}
	if tx.Currency == "" {
		return ErrInvalidCurrency
	}
	return nil
}

// Resolve decides whether incoming creates, updates or loses against the
// existing record (nil = absent). Equal event_time resolves to stale so
// re-delivery of an identical snapshot never rewrites state or re-fans-out.
func Resolve(incoming, existing *domain.Transaction) Resolution {
	if existing == nil {
		return ResolutionNew
	}
	if incoming.NewerThan(existing) {
		return ResolutionUpdate
	}
	return ResolutionStale
}
