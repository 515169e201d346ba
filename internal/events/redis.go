package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Redis publishes events on a pub/sub channel so every instance's hub sees
// them, including the publishing one.
type Redis struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedis(client *redis.Client, channel string, hub *Hub) *Redis {
	return &Redis{client: client, channel: channel, hub: hub}
}

func (r *Redis) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("encoding event", "type", event.Type, "error", err)
		return
	}

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		slog.Error("publishing event", "type", event.Type, "channel", r.channel, "error", err)
	}
}

// Run forwards channel messages to the local hub until ctx is cancelled.
func (r *Redis) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	messages := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Warn("discarding malformed event", "channel", msg.Channel, "error", err)
				continue
			}

			r.hub.Broadcast(event)
		}
	}
}
