package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"txsync/internal/cache"
	"txsync/internal/domain"
	"txsync/internal/fanout"
	"txsync/internal/logger"
	"txsync/internal/repository"
)

// lockStripes bounds the number of per-id mutexes. Two ids may share a
// stripe; that over-serializes but never under-serializes.
const lockStripes = 64

// UpsertService is the single write path for transaction events: validate,
// resolve against known state, write through with a timestamp guard, merge
// the cache and fan the accepted value out. One engine works against any
// Store implementation.
type UpsertService struct {
	store      repository.Store
	cache      *cache.Cache
	dispatcher fanout.Dispatcher
	locks      [lockStripes]sync.Mutex
}

func NewUpsertService(store repository.Store, c *cache.Cache, d fanout.Dispatcher) *UpsertService {
	return &UpsertService{store: store, cache: c, dispatcher: d}
}

func (s *UpsertService) stripe(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}

// Upsert applies one event. Events for the same id are serialized so two
// of them are never resolved against the same stale snapshot. applied is
// false for stale events, which is an expected outcome, not an error.
func (s *UpsertService) Upsert(ctx context.Context, tx *domain.Transaction) (wasNew bool, applied bool, err error) {
	if err := Validate(tx); err != nil {
		return false, false, err
	}

	mu := s.stripe(tx.ID)
	mu.Lock()
	defer mu.Unlock()

	known, err := s.cache.Get(ctx, tx.ID)
	if err != nil {
		return false, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	switch Resolve(tx, known) {
	case ResolutionStale:
		logger.Debug("stale event absorbed", "id", tx.ID, "event_time", tx.EventTime)
		return false, false, nil

	case ResolutionNew:
		inserted, err := s.store.Insert(ctx, tx)
		if err != nil {
			return false, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if inserted {
			s.accept(tx)
			return true, true, nil
		}
		// another node created the row between our cache check and the
		// insert; fall through to the guarded update.
		fallthrough

	case ResolutionUpdate:
		won, err := s.store.ConditionalUpdate(ctx, tx, tx.EventTime)
		if err != nil {
			return false, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !won {
			// a newer value is already durable; ours is stale after all.
			s.refresh(ctx, tx.ID)
			logger.Debug("conditional write lost", "id", tx.ID, "event_time", tx.EventTime)
			return false, false, nil
		}
		s.accept(tx)
		return false, true, nil
	}

	return false, false, nil
}

// accept records a winning write: cache merge, then fanout. Fanout is
// fire-and-forget; it can never fail or block the caller.
func (s *UpsertService) accept(tx *domain.Transaction) {
	s.cache.Merge(tx)
	s.dispatcher.Publish(tx)
}

// refresh re-reads the durably stored value after a lost race so the
// cache reflects what actually won. Failures here only cost freshness.
func (s *UpsertService) refresh(ctx context.Context, id string) {
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		logger.Warn("cache refresh after lost write failed", "id", id, "error", err)
		return
	}
	if stored != nil {
		s.cache.Merge(stored)
	}
}
