package fanout

import (
	"sync"

	"txsync/internal/domain"
	"txsync/internal/logger"
)

const localQueueSize = 1024

// LocalDispatcher delivers in-process through a single-consumer queue, so
// observers on this node see publishes in publish order. It is the backend
// of choice when no cross-node transport is configured or reachable, and
// doubles as the degraded path of the distributed backend.
type LocalDispatcher struct {
	queue chan *domain.Transaction
	done  chan struct{}
	once  sync.Once

	mu    sync.RWMutex
	sinks []Sink
}

func NewLocal() *LocalDispatcher {
	d := &LocalDispatcher{
		queue: make(chan *domain.Transaction, localQueueSize),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *LocalDispatcher) run() {
	for {
		select {
		case <-d.done:
			return
		case tx := <-d.queue:
			d.deliver(tx)
		}
	}
}

func (d *LocalDispatcher) deliver(tx *domain.Transaction) {
	d.mu.RLock()
	sinks := d.sinks
	d.mu.RUnlock()

	for _, sink := range sinks {
		sink.Notify(tx)
	}
}

// Publish enqueues without blocking. A full queue drops the message:
// fanout is at-most-once and must never stall the write path.
func (d *LocalDispatcher) Publish(tx *domain.Transaction) {
	if d.enqueue(tx) {
		Published.WithLabelValues(string(ModeLocal)).Inc()
	}
}

// enqueue places tx on the consumer queue, dropping on overflow or after
// Close. Also the entry point for remote-origin deliveries, which are
// not counted as local publishes.
func (d *LocalDispatcher) enqueue(tx *domain.Transaction) bool {
	select {
	case <-d.done:
		return false
	default:
	}

	select {
	case d.queue <- tx:
		return true
	default:
		Dropped.Inc()
		logger.Warn("local fanout queue full, dropping", "id", tx.ID)
		return false
	}
}

func (d *LocalDispatcher) Subscribe(sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
}

func (d *LocalDispatcher) Mode() Mode { return ModeLocal }

func (d *LocalDispatcher) Close() {
	d.once.Do(func() { close(d.done) })
}
