package cluster

import (
	"agora/contract"
	"context"
)

// Local is the single process mode. The router already delivered locally,
// so there is nothing left to carry.
type Local struct{}

func NewLocal() Local { return Local{} }

func (Local) Mode() string { return ModeLocal }

func (Local) Publish(context.Context, contract.Envelope) error { return nil }

func (Local) Subscribe(ctx context.Context, _ func(contract.Envelope)) error {
	<-ctx.Done()
	return nil
}

func (Local) Close() error { return nil }
