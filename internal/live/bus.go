// Package live is the push-based change fabric: every store write publishes a
// change event on a channel, and consumers hold disposable subscriptions that
// must be released when their owner goes away.
package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Bus publishes and subscribes to document change events over Redis Pub/Sub.
type Bus struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewBus(client *redis.Client, log zerolog.Logger) *Bus {
	return &Bus{client: client, log: log}
}

// Publish serializes payload and emits it on the given channel. Publish
// failures are logged, not propagated: a missed live event degrades to a
// stale view, never to a failed write.
func (b *Bus) Publish(ctx context.Context, channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Error().Err(err).Str("channel", channel).Msg("live: marshal event")
		return
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		b.log.Error().Err(err).Str("channel", channel).Msg("live: publish event")
	}
}

// Subscribe opens a subscription on the given channel. The caller owns the
// returned handle and must Close it; events stop and the Events channel is
// closed once the handle is released.
func (b *Bus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, channel)

	// Force the subscribe round-trip so a dead broker surfaces here rather
	// than as a silently empty stream.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("live: subscribe %s: %w", channel, err)
	}

	sub := &Subscription{
		channel: channel,
		pubsub:  ps,
		events:  make(chan []byte, 16),
	}
	go sub.pump()
	return sub, nil
}

// Subscription is a disposable handle on one live channel.
type Subscription struct {
	channel string
	pubsub  *redis.PubSub
	events  chan []byte
}

func (s *Subscription) pump() {
	for msg := range s.pubsub.Channel() {
		s.events <- []byte(msg.Payload)
	}
	close(s.events)
}

// Events delivers raw event payloads in the order the broker saw them.
func (s *Subscription) Events() <-chan []byte {
	return s.events
}

// Channel reports the channel this subscription is bound to.
func (s *Subscription) Channel() string {
	return s.channel
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}
