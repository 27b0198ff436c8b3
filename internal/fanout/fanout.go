package fanout

import (
	"txsync/internal/domain"
)

// Mode names the active fanout backend.
type Mode string

const (
	ModeLocal       Mode = "local"
	ModeDistributed Mode = "distributed"
)

// Sink receives accepted transactions for push delivery to connected
// observers. Fire-and-forget: no acknowledgment comes back.
type Sink interface {
	Notify(tx *domain.Transaction)
}

// Dispatcher propagates accepted transactions to observer sinks, locally
// or across nodes. Delivery is best-effort, at-most-once; durable state
// never depends on it. Publish never blocks the caller and never fails.
type Dispatcher interface {
	Publish(tx *domain.Transaction)
	Subscribe(sink Sink)
	Mode() Mode
	Close()
}
