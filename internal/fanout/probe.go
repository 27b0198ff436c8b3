package fanout

import (
	"context"
	"time"

	"txsync/internal/domain"
	"txsync/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// Probe checks transport liveness with a bounded timeout.
func Probe(client *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// Choose maps a probe outcome to a fanout mode. Pure: all the mode
// selection logic lives here, not scattered through startup wiring.
func Choose(probeErr error) Mode {
	if probeErr != nil {
		return ModeLocal
	}
	return ModeDistributed
}

// Select probes the transport once at startup and builds the matching
// dispatcher. A nil client (no transport configured) or a failed probe
// yields the local backend; probe failure is a degraded capability, not
// a fatal error.
func Select(client *redis.Client, channel string, timeout time.Duration, applyRemote func(*domain.Transaction)) Dispatcher {
	if client == nil {
		logger.Info("no fanout transport configured, using local delivery")
		return NewLocal()
	}

	err := Probe(client, timeout)
	if Choose(err) == ModeLocal {
		logger.Warn("fanout transport unreachable, degrading to local delivery", "error", err)
		return NewLocal()
	}

	logger.Info("distributed fanout enabled", "channel", channel)
	return NewRedis(client, channel, applyRemote)
}
