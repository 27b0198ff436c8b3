package service

import (
	"testing"
	"time"

	"txsync/internal/domain"
)

func tx(id string, eventTime time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:        id,
		Currency:  "USD",
		Status:    domain.StatusPending,
		EventTime: eventTime,
	}
}

func TestValidate(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		tx   *domain.Transaction
		want error
	}{
		{"valid", tx("7b1f3f6a-9f2e-4c41-a6a4-0f8d2a3a9f11", now), nil},
		{"empty id", tx("", now), ErrInvalidID},
		{"not a uuid", tx("not-a-uuid", now), ErrInvalidID},
		{"missing currency", &domain.Transaction{ID: "7b1f3f6a-9f2e-4c41-a6a4-0f8d2a3a9f11", EventTime: now}, ErrInvalidCurrency},
	}

	for _, tc := range cases {
		if got := Validate(tc.tx); got != tc.want {
			t.Fatalf("%s: Validate() = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	id := "7b1f3f6a-9f2e-4c41-a6a4-0f8d2a3a9f11"

	cases := []struct {
		name     string
		incoming *domain.Transaction
		existing *domain.Transaction
		want     Resolution
	}{
		{"no existing record", tx(id, base), nil, ResolutionNew},
		{"strictly newer", tx(id, base.Add(time.Second)), tx(id, base), ResolutionUpdate},
		{"strictly older", tx(id, base.Add(-time.Second)), tx(id, base), ResolutionStale},
		{"equal event_time is stale", tx(id, base), tx(id, base), ResolutionStale},
		{"nanosecond newer", tx(id, base.Add(time.Nanosecond)), tx(id, base), ResolutionUpdate},
	}

	for _, tc := range cases {
		if got := Resolve(tc.incoming, tc.existing); got != tc.want {
			t.Fatalf("%s: Resolve() = %v; want %v", tc.name, got, tc.want)
		}
	}
}
