// Package cluster bridges room fanout across processes through an external broker.
package cluster

import (
	"agora/contract"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
)

const (
	ModeLocal = "local"
	ModeRedis = "redis"
	ModeNats  = "nats"
)

// Adapter is the ClusterAdapter riding on a byte-level broker.
// Every process publishes and subscribes on the same channel.
type Adapter struct {
	log     *slog.Logger
	broker  contract.Broker
	mode    string
	channel string
	node    string
}

func NewAdapter(log *slog.Logger, broker contract.Broker, mode, channel, node string) *Adapter {
	return &Adapter{log: log, broker: broker, mode: mode, channel: channel, node: node}
}

func (a *Adapter) Mode() string { return a.mode }

// Publish stamps env with this node as origin.
func (a *Adapter) Publish(ctx context.Context, env contract.Envelope) error {
	env.Origin = a.node
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return a.broker.Publish(ctx, a.channel, payload)
}

// Subscribe delivers envelopes published by other nodes. Envelopes of this node
// were already delivered locally and are dropped.
func (a *Adapter) Subscribe(ctx context.Context, deliver func(contract.Envelope)) error {
	return a.broker.Subscribe(ctx, a.channel, func(payload []byte) {
		var env contract.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			a.log.Warn("Malformed cluster envelope", "error", err)
			return
		}
		if env.Origin == a.node {
			return
		}
		deliver(env)
	})
}

func (a *Adapter) Close() error {
	return a.broker.Close()
}

// New picks the broker from rawURL: redis:// or rediss:// for redis, nats:// or tls://
// for nats. An empty url keeps fanout inside this process.
func New(ctx context.Context, log *slog.Logger, rawURL, channel, node string) (contract.ClusterAdapter, error) {
	if rawURL == "" {
		log.Warn("No cluster broker configured, fanout stays within this process")
		return NewLocal(), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cluster url: %w", err)
	}
	switch u.Scheme {
	case "redis", "rediss":
		broker, err := NewRedisBroker(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return NewAdapter(log, broker, ModeRedis, channel, node), nil
	case "nats", "tls":
		broker, err := NewNatsBroker(rawURL, node)
		if err != nil {
			return nil, err
		}
		return NewAdapter(log, broker, ModeNats, channel, node), nil
	default:
		return nil, fmt.Errorf("cluster url: unsupported scheme %q", u.Scheme)
	}
}
