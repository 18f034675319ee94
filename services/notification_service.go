//go:generate go run go.uber.org/mock/mockgen -source=notification_service.go -destination=../mocks/mock_notification_service.go -package=mocks
package services

import (
	"agora/contract"
	"agora/domain"
	"agora/domain/event"
	"agora/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	DefaultNotificationPage = 20
	MaxNotificationPage     = 100
)

type INotificationService interface {
	Generate(ctx context.Context, req domain.NotificationRequest) error
	ProcessMentions(ctx context.Context, authorID, text string, data map[string]any) int
	List(ctx context.Context, recipient string, before time.Time, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, recipient, id string) error
	MarkAllRead(ctx context.Context, recipient string) (int, error)
	CountUnread(ctx context.Context, recipient string) (int, error)
	Preferences(ctx context.Context, userID string) (domain.Preferences, error)
	UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error)
	RegisterPushSubscription(ctx context.Context, userID string, descriptor json.RawMessage) (domain.PushSubscription, error)
	RemovePushSubscription(ctx context.Context, userID, id string) error
}

var mentionPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_])@([A-Za-z0-9_]{1,32})`)

// NotificationService is the NotificationEngine. Generate runs one pipeline:
// self check, preference check, debounce check, persist, deliver.
type NotificationService struct {
	log           *slog.Logger
	store         contract.NotificationStore
	preferences   contract.PreferenceStore
	subscriptions contract.PushSubscriptionStore
	identities    contract.IdentityStore
	presence      contract.PresenceRegistry
	router        contract.RoomRouter
	pusher        contract.Pusher
	window        time.Duration
	pushTimeout   time.Duration
	now           func() time.Time
	pushes        sync.WaitGroup
}

func NewNotificationService(
	log *slog.Logger,
	store contract.NotificationStore,
	preferences contract.PreferenceStore,
	subscriptions contract.PushSubscriptionStore,
	identities contract.IdentityStore,
	presence contract.PresenceRegistry,
	router contract.RoomRouter,
	pusher contract.Pusher,
	window, pushTimeout time.Duration,
) *NotificationService {
	return &NotificationService{
		log:           log,
		store:         store,
		preferences:   preferences,
		subscriptions: subscriptions,
		identities:    identities,
		presence:      presence,
		router:        router,
		pusher:        pusher,
		window:        window,
		pushTimeout:   pushTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *NotificationService) Generate(ctx context.Context, req domain.NotificationRequest) error {
	if req.Recipient == "" || req.Type == "" {
		return errors.ErrInvalidPayload
	}
	// 1. Nobody is notified about their own action
	if req.Actor != "" && req.Actor == req.Recipient {
		return nil
	}

	// 2. Preference gate
	if category := req.Type.Category(); category != "" {
		prefs, err := s.preferences.Get(ctx, req.Recipient)
		if err != nil {
			s.log.Warn("Preferences unavailable, category kept enabled", "user_id", req.Recipient, "error", err)
		} else if !prefs.Allows(category) {
			return nil
		}
	}

	notification := domain.Notification{
		ID:        uuid.NewString(),
		Recipient: req.Recipient,
		Actor:     req.Actor,
		Type:      req.Type,
		Data:      req.Data,
		Message:   req.Message,
		CreatedAt: s.now(),
	}

	// 3. Debounce, 4. persist
	switch req.Type.Debounced() {
	case true:
		stored, created, err := s.store.CreateOrRefresh(ctx, notification, s.window)
		if err != nil {
			return err
		}
		if !created {
			s.log.Debug("Notification debounced", "user_id", req.Recipient, "id", stored.ID, "type", req.Type)
			return nil
		}
	default:
		if err := s.store.Create(ctx, notification); err != nil {
			return err
		}
	}

	// 5. Deliver
	s.deliver(ctx, notification)
	return nil
}

// ProcessMentions routes every resolved @handle of text, except the author, through Generate.
// It returns how many identities were notified.
func (s *NotificationService) ProcessMentions(ctx context.Context, authorID, text string, data map[string]any) int {
	handles := lo.Uniq(lo.Map(mentionPattern.FindAllStringSubmatch(text, -1), func(match []string, _ int) string {
		return strings.ToLower(match[1])
	}))
	if len(handles) == 0 {
		return 0
	}
	author := authorID
	if identity, err := s.identities.Get(ctx, authorID); err == nil {
		author = lo.CoalesceOrEmpty(identity.DisplayName, identity.Handle, identity.ID)
	}

	notified := make(map[string]struct{})
	for _, handle := range handles {
		identity, err := s.identities.FindByHandle(ctx, handle)
		if err != nil {
			if !errors.Is(err, errors.ErrNotFound) {
				s.log.Warn("Mention lookup failed", "handle", handle, "error", err)
			}
			continue
		}
		if identity.Rejected() || identity.ID == authorID {
			continue
		}
		if _, done := notified[identity.ID]; done {
			continue
		}
		payload := maps.Clone(data)
		if payload == nil {
			payload = make(map[string]any)
		}
		payload["handle"] = handle
		err = s.Generate(ctx, domain.NotificationRequest{
			Recipient: identity.ID,
			Actor:     authorID,
			Type:      domain.NotificationMention,
			Data:      payload,
			Message:   fmt.Sprintf("%s mentioned you", author),
		})
		if err != nil {
			s.log.Warn("Mention notification failed", "user_id", identity.ID, "error", err)
			continue
		}
		notified[identity.ID] = struct{}{}
	}
	return len(notified)
}

// List clamps limit to [1, MaxNotificationPage], zero meaning the default page.
func (s *NotificationService) List(ctx context.Context, recipient string, before time.Time, limit int) ([]domain.Notification, error) {
	switch {
	case limit <= 0:
		limit = DefaultNotificationPage
	case limit > MaxNotificationPage:
		limit = MaxNotificationPage
	}
	return s.store.List(ctx, recipient, before, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, recipient, id string) error {
	return s.store.MarkRead(ctx, recipient, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	return s.store.MarkAllRead(ctx, recipient)
}

func (s *NotificationService) CountUnread(ctx context.Context, recipient string) (int, error) {
	return s.store.CountUnread(ctx, recipient)
}

func (s *NotificationService) Preferences(ctx context.Context, userID string) (domain.Preferences, error) {
	return s.preferences.Get(ctx, userID)
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error) {
	if err := s.preferences.Put(ctx, prefs); err != nil {
		return domain.Preferences{}, err
	}
	return prefs, nil
}

func (s *NotificationService) RegisterPushSubscription(ctx context.Context, userID string, descriptor json.RawMessage) (domain.PushSubscription, error) {
	return s.subscriptions.Add(ctx, userID, descriptor)
}

func (s *NotificationService) RemovePushSubscription(ctx context.Context, userID, id string) error {
	return s.subscriptions.Remove(ctx, userID, id)
}

// Wait blocks until in-flight pushes are done.
func (s *NotificationService) Wait() {
	s.pushes.Wait()
}

// deliver publishes on the canonical address, which reaches every process, and
// pushes to the subscriptions when the recipient has no transport here.
func (s *NotificationService) deliver(ctx context.Context, n domain.Notification) {
	if err := s.router.Publish(ctx, domain.UserAddress(n.Recipient), event.Notification{Notification: n}); err != nil {
		s.log.Warn("Notification fanout failed", "user_id", n.Recipient, "error", err)
	}
	if s.presence.IsOnline(n.Recipient) {
		return
	}
	subs, err := s.subscriptions.List(ctx, n.Recipient)
	if err != nil {
		s.log.Warn("Push subscriptions unavailable", "user_id", n.Recipient, "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}
	payload, err := json.Marshal(pushPayload{Title: string(n.Type), Body: n.Message, Notification: n})
	if err != nil {
		s.log.Error("Push payload encoding failed", "user_id", n.Recipient, "error", err)
		return
	}

	pushCtx := context.WithoutCancel(ctx)
	for _, sub := range subs {
		s.pushes.Add(1)
		go func(sub domain.PushSubscription) {
			defer s.pushes.Done()
			ctx, cancel := context.WithTimeout(pushCtx, s.pushTimeout)
			defer cancel()
			if err := s.pusher.Push(ctx, sub, payload); err != nil {
				s.log.Warn("Push delivery failed", "user_id", n.Recipient, "subscription", sub.ID, "error", err)
			}
		}(sub)
	}
}

type pushPayload struct {
	Title        string              `json:"title"`
	Body         string              `json:"body,omitempty"`
	Notification domain.Notification `json:"notification"`
}
