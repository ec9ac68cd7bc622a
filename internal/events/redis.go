package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"kingspos/internal/cache"
)

// RedisNotifier publishes events on a Redis channel so that every API
// instance can forward them to its own websocket clients.
type RedisNotifier struct {
	cache   *cache.Client
	channel string
}

// NewRedisNotifier creates a notifier publishing on channel.
func NewRedisNotifier(c *cache.Client, channel string) *RedisNotifier {
	return &RedisNotifier{cache: c, channel: channel}
}

// Publish implements Notifier.
func (n *RedisNotifier) Publish(ctx context.Context, name string, payload interface{}) error {
	evt, err := NewEvent(name, payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := n.cache.Publish(ctx, n.channel, msg); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// Relay forwards messages from the Redis channel to the hub until ctx is
// cancelled.
func Relay(ctx context.Context, c *cache.Client, channel string, hub *Hub, log zerolog.Logger) error {
	sub := c.Subscribe(ctx, channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reading.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	log.Info().Str("channel", channel).Msg("event relay started")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			hub.Broadcast([]byte(msg.Payload))
		}
	}
}
