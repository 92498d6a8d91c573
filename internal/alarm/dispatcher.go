package alarm

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/kwakchaewon/surveypulse/internal/domain"
	"github.com/kwakchaewon/surveypulse/internal/metrics"
	"github.com/kwakchaewon/surveypulse/internal/redis"
)

// Dispatcher bridges the broker channel into the local connection hub. One
// instance runs per process; the broker delivers every published envelope
// to every subscribed process, and each dispatcher pushes to whatever
// connections its own hub happens to hold.
type Dispatcher struct {
	pubsub   *redis.PubSub
	registry domain.Registry
}

func NewDispatcher(pubsub *redis.PubSub, registry domain.Registry) *Dispatcher {
	return &Dispatcher{
		pubsub:   pubsub,
		registry: registry,
	}
}

// Start consumes the alarm channel until ctx is cancelled. A malformed
// message is logged and dropped; nothing a peer publishes can stop the loop.
func (d *Dispatcher) Start(ctx context.Context) {
	sub := d.pubsub.Subscribe(ctx)
	defer sub.Close()

	slog.Info("Alarm dispatcher started", "channel", redis.AlarmChannel)

	for {
		select {
		case raw, ok := <-sub.Ch:
			if !ok {
				slog.Info("Alarm dispatcher stopped: subscription closed")
				return
			}
			d.handleMessage(raw)
		case <-ctx.Done():
			slog.Info("Alarm dispatcher stopped", "reason", ctx.Err())
			return
		}
	}
}

// handleMessage deserializes one envelope and fans it out locally.
func (d *Dispatcher) handleMessage(raw []byte) {
	var msg domain.AlarmMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		metrics.PubSubMessagesReceived.WithLabelValues("malformed").Inc()
		slog.Warn("Dropping malformed alarm envelope", "size_bytes", len(raw), "error", err)
		return
	}
	metrics.PubSubMessagesReceived.WithLabelValues("ok").Inc()

	// An absent alarm list would re-marshal to JSON null; nothing to push.
	if len(msg.Alarms) == 0 {
		slog.Debug("Envelope carries no alarms, skipping delivery", "username", msg.Username)
		return
	}

	payload, err := json.Marshal(msg.Alarms)
	if err != nil {
		slog.Warn("Failed to re-marshal alarm list", "username", msg.Username, "error", err)
		return
	}

	// No local connections for the user is the common case in a
	// multi-instance deployment; Deliver treats it as a no-op.
	d.registry.Deliver(msg.Username, payload)
}
