//go:generate go run go.uber.org/mock/mockgen -source=signal_relay.go -destination=../mocks/mock_signal_relay.go -package=mocks
package services

import (
	"agora/contract"
	"agora/domain"
	"agora/domain/event"
	"context"
)

type ISignalRelay interface {
	Start(ctx context.Context, from domain.Profile, in event.CallStartInput) error
	Signal(ctx context.Context, from string, in event.CallSignalInput) error
	Reject(ctx context.Context, from string, in event.CallRoomInput) error
	End(ctx context.Context, from string, in event.CallRoomInput) error
}

// SignalRelay forwards call negotiation payloads verbatim. It keeps no state
// and never looks inside a payload.
type SignalRelay struct {
	router contract.RoomRouter
}

func NewSignalRelay(router contract.RoomRouter) *SignalRelay {
	return &SignalRelay{router: router}
}

// Start rings every transport of the callee.
func (r *SignalRelay) Start(ctx context.Context, from domain.Profile, in event.CallStartInput) error {
	return r.router.Publish(ctx, domain.UserAddress(in.To), event.CallIncoming{
		From:    from,
		Room:    in.Room,
		Kind:    in.Kind,
		Payload: in.Payload,
	})
}

// Signal targets a peer when To is set, the room otherwise.
func (r *SignalRelay) Signal(ctx context.Context, from string, in event.CallSignalInput) error {
	evt := event.CallSignal{From: from, Room: in.Room, Payload: in.Payload}
	if in.To != "" {
		return r.router.Publish(ctx, domain.UserAddress(in.To), evt)
	}
	return r.router.Publish(ctx, in.Room, evt, contract.ExceptIdentity(from))
}

func (r *SignalRelay) Reject(ctx context.Context, from string, in event.CallRoomInput) error {
	return r.router.Publish(ctx, in.Room, event.CallRejected{From: from, Room: in.Room}, contract.ExceptIdentity(from))
}

func (r *SignalRelay) End(ctx context.Context, from string, in event.CallRoomInput) error {
	return r.router.Publish(ctx, in.Room, event.CallEnded{From: from, Room: in.Room}, contract.ExceptIdentity(from))
}
