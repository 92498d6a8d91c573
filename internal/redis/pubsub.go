package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// AlarmChannel is the shared broker channel. Every instance subscribes to
// it; Redis delivers a copy of each published message to every subscriber.
const AlarmChannel = "alarm-channel"

// PubSub provides cross-instance alarm fan-out via Redis Pub/Sub.
type PubSub struct {
	rdb *goredis.Client
}

// NewPubSub creates a new PubSub instance.
func NewPubSub(rdb *goredis.Client) *PubSub {
	return &PubSub{rdb: rdb}
}

// Publish sends a serialized envelope to the alarm channel.
func (ps *PubSub) Publish(ctx context.Context, data []byte) error {
	return ps.rdb.Publish(ctx, AlarmChannel, data).Err()
}

// Subscription is an active subscription on the alarm channel. Ch carries
// raw message payloads; the consumer owns deserialization.
type Subscription struct {
	sub    *goredis.PubSub
	Ch     <-chan []byte
	cancel context.CancelFunc
}

// Close unsubscribes and closes the subscription.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

// Subscribe opens a subscription on the alarm channel. The returned channel
// is closed when ctx is cancelled or the subscription is closed.
func (ps *PubSub) Subscribe(ctx context.Context) *Subscription {
	sub := ps.rdb.Subscribe(ctx, AlarmChannel)

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan []byte, 64)

	go func() {
		defer close(ch)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				select {
				case ch <- []byte(msg.Payload):
				case <-subCtx.Done():
					return
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{
		sub:    sub,
		Ch:     ch,
		cancel: cancel,
	}
}
