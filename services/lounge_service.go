//go:generate go run go.uber.org/mock/mockgen -source=lounge_service.go -destination=../mocks/mock_lounge_service.go -package=mocks
package services

import (
	"agora/contract"
	"agora/domain"
	"agora/domain/event"
	"context"
	"log/slog"
)

type ILoungeService interface {
	Join(ctx context.Context, t contract.Transport) error
	Leave(ctx context.Context, t contract.Transport) error
	ToggleMute(ctx context.Context, t contract.Transport) error
}

// LoungeService keeps the lounge room and its member list in step.
// Every change is broadcast as the full member list.
type LoungeService struct {
	log      *slog.Logger
	registry contract.LoungeRegistry
	router   contract.RoomRouter
}

func NewLoungeService(log *slog.Logger, registry contract.LoungeRegistry, router contract.RoomRouter) *LoungeService {
	return &LoungeService{log: log, registry: registry, router: router}
}

func (s *LoungeService) Join(ctx context.Context, t contract.Transport) error {
	s.router.Join(domain.LoungeRoom, t)
	members := s.registry.Join(t)
	return s.router.Publish(ctx, domain.LoungeRoom, event.LoungeUpdated{Members: members})
}

// Leave broadcasts only when the identity left with its last lounge transport.
func (s *LoungeService) Leave(ctx context.Context, t contract.Transport) error {
	s.router.Leave(domain.LoungeRoom, t)
	members, left := s.registry.Leave(t)
	if !left {
		return nil
	}
	return s.router.Publish(ctx, domain.LoungeRoom, event.LoungeUpdated{Members: members})
}

func (s *LoungeService) ToggleMute(ctx context.Context, t contract.Transport) error {
	members, ok := s.registry.ToggleMute(t.Identity())
	if !ok {
		s.log.Debug("Mute toggled outside the lounge", "user_id", t.Identity())
		return nil
	}
	return s.router.Publish(ctx, domain.LoungeRoom, event.LoungeUpdated{Members: members})
}
