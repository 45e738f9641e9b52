package realtime

import (
	"context"
	"encoding/json"
	"fmt"
)

type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// RedisPublisher broadcasts copy-status events on a shared Redis Pub/Sub
// channel. Subscribers receive a JSON envelope keyed by event name.
type RedisPublisher struct {
	client  channelPublisher
	channel string
}

type envelope struct {
	Event   string          `json:"event"`
	Payload CopyStatusEvent `json:"payload"`
}

// NewRedisPublisher wires a publisher to the named broadcast channel.
func NewRedisPublisher(client channelPublisher, channel string) (*RedisPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if channel == "" {
		return nil, fmt.Errorf("channel name required")
	}
	return &RedisPublisher{client: client, channel: channel}, nil
}

// PublishCopyStatus sends the event to every current subscriber.
func (p *RedisPublisher) PublishCopyStatus(ctx context.Context, event CopyStatusEvent) error {
	raw, err := json.Marshal(envelope{Event: EventLoanUpdate, Payload: event})
	if err != nil {
		return fmt.Errorf("encoding copy status event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, raw); err != nil {
		return fmt.Errorf("publishing copy status event: %w", err)
	}
	return nil
}
