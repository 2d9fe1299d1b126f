package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
)

// RedisBus publishes events on a Redis channel and relays everything
// received on it to a local sink, normally the Hub.
type RedisBus struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisBus(client redis.UniversalClient, channel string) *RedisBus {
	return &RedisBus{client: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	data, err := Encode(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, string(data)).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Relay subscribes to the channel and forwards decoded events to sink until
// ctx is cancelled.
func (b *RedisBus) Relay(ctx context.Context, sink Publisher) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	log.Infof("relaying auction events from redis channel %s", b.channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("redis subscription %s closed", b.channel)
			}
			ev, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Warnf("skipping malformed event on %s: %v", b.channel, err)
				continue
			}
			if err := sink.Publish(ctx, ev); err != nil {
				if errors.Is(err, ErrHubClosed) || ctx.Err() != nil {
					return nil
				}
				log.Warnf("failed to relay %s for auction %d: %v", ev.Type, ev.AuctionID, err)
			}
		}
	}
}

func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
