package cluster

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NatsBroker maps the channel onto a core NATS subject.
type NatsBroker struct {
	conn   *nats.Conn
	closed chan struct{}
}

func NewNatsBroker(rawURL, name string) (*NatsBroker, error) {
	closed := make(chan struct{})
	conn, err := nats.Connect(rawURL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	)
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}
	return &NatsBroker{conn: conn, closed: closed}, nil
}

func (b *NatsBroker) Publish(_ context.Context, channel string, payload []byte) error {
	return b.conn.Publish(channel, payload)
}

func (b *NatsBroker) Subscribe(ctx context.Context, channel string, handler func([]byte)) error {
	sub, err := b.conn.Subscribe(channel, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats: subscribe: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	select {
	case <-ctx.Done():
		return nil
	case <-b.closed:
		return ErrSubscriptionClosed
	}
}

func (b *NatsBroker) Close() error {
	b.conn.Close()
	return nil
}
