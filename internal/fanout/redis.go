package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"txsync/internal/domain"
	"txsync/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const (
	publishTimeout = 5 * time.Second
	pingTimeout    = 2 * time.Second
	maxBackoff     = 30 * time.Second
)

// RedisDispatcher fans out across nodes over a Redis pub/sub channel.
// Every node, the publisher included, is subscribed to the channel and
// pushes received transactions to its own observer sink, so cross-node
// delivery never re-runs the upsert path. When the transport is lost,
// publishes degrade to the embedded local queue (own observers keep
// getting notified) while a backoff loop probes for reconnection.
type RedisDispatcher struct {
	client      *redis.Client
	channel     string
	local       *LocalDispatcher
	applyRemote func(*domain.Transaction)

	outbound chan *domain.Transaction
	done     chan struct{}
	once     sync.Once

	degraded     atomic.Bool
	reconnecting atomic.Bool

	pubsub *redis.PubSub
}

// NewRedis starts the distributed dispatcher. applyRemote, if non-nil, is
// called for every decoded remote message so this node's cache can absorb
// values accepted elsewhere (a cache-only merge, never a durable write).
func NewRedis(client *redis.Client, channel string, applyRemote func(*domain.Transaction)) *RedisDispatcher {
	d := &RedisDispatcher{
		client:      client,
		channel:     channel,
		local:       NewLocal(),
		applyRemote: applyRemote,
		outbound:    make(chan *domain.Transaction, localQueueSize),
		done:        make(chan struct{}),
	}
	d.pubsub = client.Subscribe(context.Background(), channel)
	go d.receiveLoop()
	go d.publishLoop()
	return d
}

// Publish hands the transaction to the outbound loop without blocking.
// While degraded it routes through the local queue instead.
func (d *RedisDispatcher) Publish(tx *domain.Transaction) {
	if d.degraded.Load() {
		d.local.Publish(tx)
		return
	}

	select {
	case <-d.done:
		return
	default:
	}

	select {
	case d.outbound <- tx:
		Published.WithLabelValues(string(ModeDistributed)).Inc()
	default:
		Dropped.Inc()
		logger.Warn("distributed fanout queue full, dropping", "id", tx.ID)
	}
}

func (d *RedisDispatcher) publishLoop() {
	for {
		select {
		case <-d.done:
			return
		case tx := <-d.outbound:
			d.publishOne(tx)
		}
	}
}

func (d *RedisDispatcher) publishOne(tx *domain.Transaction) {
	payload, err := json.Marshal(tx)
	if err != nil {
		logger.Error("encode transaction for fanout", "id", tx.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := d.client.Publish(ctx, d.channel, payload).Err(); err != nil {
		// the write behind this publish is already durable; degrade to
		// local-only delivery and let the reconnect loop probe the way back.
		logger.Warn("fanout transport lost, degrading to local delivery", "error", err)
		d.degraded.Store(true)
		d.local.Publish(tx)
		d.startReconnect()
	}
}

func (d *RedisDispatcher) receiveLoop() {
	ch := d.pubsub.Channel()
	for msg := range ch {
		tx, err := decodePayload([]byte(msg.Payload))
		if err != nil {
			MalformedRemote.Inc()
			logger.Warn("dropping malformed remote message", "error", err)
			continue
		}
		if d.applyRemote != nil {
			d.applyRemote(tx)
		}
		d.local.enqueue(tx)
	}
}

// startReconnect launches a single backoff probe loop. On success the
// dispatcher resumes distributed publishing; the subscription side is
// re-established by the client itself.
func (d *RedisDispatcher) startReconnect() {
	if !d.reconnecting.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer d.reconnecting.Store(false)
		backoff := time.Second

		for {
			select {
			case <-d.done:
				return
			case <-time.After(backoff):
			}

			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			err := d.client.Ping(ctx).Err()
			cancel()

			if err == nil {
				d.degraded.Store(false)
				logger.Info("fanout transport reconnected, resuming distributed delivery")
				return
			}

			logger.Warn("fanout transport still unreachable", "error", err, "backoff", backoff)
			if backoff < maxBackoff {
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}
	}()
}

func (d *RedisDispatcher) Subscribe(sink Sink) { d.local.Subscribe(sink) }

func (d *RedisDispatcher) Mode() Mode { return ModeDistributed }

// Degraded reports whether publishes currently bypass the transport.
func (d *RedisDispatcher) Degraded() bool { return d.degraded.Load() }

func (d *RedisDispatcher) Close() {
	d.once.Do(func() {
		close(d.done)
		_ = d.pubsub.Close()
		d.local.Close()
	})
}

// decodePayload parses a wire payload back into a transaction, rejecting
// anything that does not round-trip into a structurally sound record.
func decodePayload(payload []byte) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := json.Unmarshal(payload, &tx); err != nil {
		return nil, err
	}
	if tx.ID == "" {
		return nil, errors.New("payload missing transaction id")
	}
	if !tx.Status.Valid() {
		return nil, errors.New("payload carries unknown status")
	}
	if tx.EventTime.IsZero() {
		return nil, errors.New("payload missing event_time")
	}
	return &tx, nil
}
