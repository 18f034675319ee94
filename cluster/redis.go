package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrSubscriptionClosed = errors.New("cluster: subscription closed")

// RedisBroker uses PUBLISH/SUBSCRIBE. Messages published while a node is
// disconnected are lost for that node.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(ctx context.Context, rawURL string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisBroker{client: client}, nil
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe blocks until ctx is done. A dropped subscription is reported so the
// supervisor can start a new one.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string, handler func([]byte)) error {
	sub := b.client.Subscribe(ctx, channel)
	defer func() { _ = sub.Close() }()

	// Wait for the subscription confirmation before reading messages
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis: subscribe: %w", err)
	}
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return ErrSubscriptionClosed
			}
			handler([]byte(msg.Payload))
		}
	}
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
