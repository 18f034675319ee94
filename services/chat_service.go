//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"agora/contract"
	"agora/domain"
	"agora/domain/event"
	"agora/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IChatService interface {
	CreateConversation(ctx context.Context, requester string, memberIDs []string, isGroup bool, name string) (domain.Conversation, error)
	ListConversations(ctx context.Context, requester string) ([]domain.Conversation, error)
	GetConversation(ctx context.Context, requester, conversationID string, before time.Time) (domain.Conversation, error)
	DeleteConversation(ctx context.Context, requester, conversationID string) error
	LeaveConversation(ctx context.Context, requester, conversationID string) error
	AuthorizeJoin(ctx context.Context, requester, conversationID string) error
	AppendMessage(ctx context.Context, requester, conversationID, content, mediaRef string) (domain.ResolvedMessage, error)
	ToggleReaction(ctx context.Context, requester, conversationID, messageID, emoji string) (domain.ReactionChange, error)
	MarkRead(ctx context.Context, requester, conversationID string) ([]string, error)
	Unsend(ctx context.Context, requester, conversationID, messageID string) error
	History(ctx context.Context, requester, conversationID string, before time.Time) ([]domain.Message, error)
	Typing(ctx context.Context, requester, conversationID string, isTyping bool) error
}

// ChatService is the MessageDispatcher: every mutation of a conversation goes
// through it, then the outcome is fanned out to the conversation room.
type ChatService struct {
	log        *slog.Logger
	store      contract.ChatStore
	identities contract.IdentityStore
	router     contract.RoomRouter
	notifier   contract.Notifier
	pageSize   int
	filter     ContentFilter
	now        func() time.Time
}

// ContentFilter masks forbidden words and reports the ones found.
type ContentFilter interface {
	Censor(text string) (string, []string)
}

func NewChatService(
	log *slog.Logger,
	store contract.ChatStore,
	identities contract.IdentityStore,
	router contract.RoomRouter,
	notifier contract.Notifier,
	pageSize int,
) *ChatService {
	return &ChatService{
		log:        log,
		store:      store,
		identities: identities,
		router:     router,
		notifier:   notifier,
		pageSize:   pageSize,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithFilter masks message content before it is stored.
func (s *ChatService) WithFilter(filter ContentFilter) *ChatService {
	s.filter = filter
	return s
}

// CreateConversation returns the existing conversation for a direct pair,
// otherwise creates it and tells every other member.
func (s *ChatService) CreateConversation(ctx context.Context, requester string, memberIDs []string, isGroup bool, name string) (domain.Conversation, error) {
	members := domain.NormalizeMembers(requester, memberIDs)
	if len(members) < domain.MinParticipants {
		return domain.Conversation{}, errors.ErrTooFewMembers
	}

	if !isGroup && len(members) == domain.MinParticipants {
		existing, err := s.store.FindDirect(ctx, members[0], members[1])
		switch {
		case err == nil:
			return existing, nil
		case !errors.Is(err, errors.ErrNotFound):
			return domain.Conversation{}, err
		}
	}

	conversation, err := s.store.CreateConversation(ctx, domain.Conversation{
		ID:           uuid.NewString(),
		Participants: members,
		IsGroup:      isGroup,
		Name:         strings.TrimSpace(name),
		CreatedAt:    s.now(),
	})
	switch {
	case errors.Is(err, errors.ErrDuplicatePair):
		// Lost the race against the same request, the winner already fanned out
		return conversation, nil
	case err != nil:
		return domain.Conversation{}, err
	}

	for _, member := range conversation.Others(requester) {
		s.publish(ctx, domain.UserAddress(member), event.ConversationCreated{Conversation: conversation})
	}
	return conversation, nil
}

func (s *ChatService) ListConversations(ctx context.Context, requester string) ([]domain.Conversation, error) {
	return s.store.ListConversations(ctx, requester)
}

// GetConversation returns the conversation with its history page older than before.
func (s *ChatService) GetConversation(ctx context.Context, requester, conversationID string, before time.Time) (domain.Conversation, error) {
	conversation, err := s.participantOf(ctx, requester, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	messages, err := s.store.History(ctx, conversationID, before, s.pageSize)
	if err != nil {
		return domain.Conversation{}, err
	}
	conversation.Messages = messages
	return conversation, nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, requester, conversationID string) error {
	if _, err := s.participantOf(ctx, requester, conversationID); err != nil {
		return err
	}
	return s.store.DeleteConversation(ctx, conversationID)
}

// LeaveConversation removes requester. The remaining members get a system message,
// an emptied conversation is deleted.
func (s *ChatService) LeaveConversation(ctx context.Context, requester, conversationID string) error {
	if _, err := s.participantOf(ctx, requester, conversationID); err != nil {
		return err
	}
	departure := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       domain.SystemSenderID,
		Content:        fmt.Sprintf("%s left the conversation", s.profile(ctx, requester).DisplayName),
		CreatedAt:      s.now(),
	}
	remaining, err := s.store.RemoveParticipant(ctx, conversationID, requester, &departure)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return nil
	}
	departure.Reactions, departure.Readers = []domain.Reaction{}, []string{}
	s.publish(ctx, conversationID, event.MessageReceived{
		ConversationID: conversationID,
		Message:        domain.ResolvedMessage{Message: departure, Sender: domain.Profile{ID: domain.SystemSenderID}},
	})
	return nil
}

// AuthorizeJoin must succeed before a transport joins the conversation room.
func (s *ChatService) AuthorizeJoin(ctx context.Context, requester, conversationID string) error {
	_, err := s.participantOf(ctx, requester, conversationID)
	return err
}

// AppendMessage persists the message then fans it out. Fanout and notification
// failures are logged, the message stays persisted.
func (s *ChatService) AppendMessage(ctx context.Context, requester, conversationID, content, mediaRef string) (domain.ResolvedMessage, error) {
	content, mediaRef = strings.TrimSpace(content), strings.TrimSpace(mediaRef)
	if content == "" && mediaRef == "" {
		return domain.ResolvedMessage{}, errors.ErrEmptyMessage
	}
	conversation, err := s.participantOf(ctx, requester, conversationID)
	if err != nil {
		return domain.ResolvedMessage{}, err
	}
	others := conversation.Others(requester)
	if err := s.checkBlocks(ctx, requester, others); err != nil {
		return domain.ResolvedMessage{}, err
	}
	if s.filter != nil && content != "" {
		var found []string
		if content, found = s.filter.Censor(content); len(found) > 0 {
			s.log.Info("Message content censored", "conversation_id", conversationID, "user_id", requester, "words", len(found))
		}
	}

	message, err := s.store.AppendMessage(ctx, domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       requester,
		Content:        content,
		MediaRef:       mediaRef,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return domain.ResolvedMessage{}, err
	}

	sender := s.profile(ctx, requester)
	resolved := domain.ResolvedMessage{Message: message, Sender: sender}
	s.publish(ctx, conversationID, event.MessageReceived{ConversationID: conversationID, Message: resolved})

	data := map[string]any{
		domain.TargetKey: conversationID,
		"conversationId": conversationID,
		"messageId":      message.ID,
	}
	for _, recipient := range others {
		err := s.notifier.Generate(ctx, domain.NotificationRequest{
			Recipient: recipient,
			Actor:     requester,
			Type:      domain.NotificationMessage,
			Data:      data,
			Message:   fmt.Sprintf("%s sent you a message", sender.DisplayName),
		})
		if err != nil {
			s.log.Warn("Message notification failed", "user_id", recipient, "conversation_id", conversationID, "error", err)
		}
	}
	if conversation.IsGroup && content != "" {
		s.notifier.ProcessMentions(ctx, requester, content, data)
	}
	return resolved, nil
}

func (s *ChatService) ToggleReaction(ctx context.Context, requester, conversationID, messageID, emoji string) (domain.ReactionChange, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return 0, errors.ErrEmptyEmoji
	}
	if _, err := s.participantOf(ctx, requester, conversationID); err != nil {
		return 0, err
	}
	change, err := s.store.ToggleReaction(ctx, conversationID, messageID, requester, emoji, s.now())
	if err != nil {
		return 0, err
	}
	reacted := event.MessageReacted{
		ConversationID: conversationID,
		MessageID:      messageID,
		UserID:         requester,
		Change:         change.String(),
	}
	if change != domain.ReactionRemoved {
		reacted.Emoji = emoji
	}
	s.publish(ctx, conversationID, reacted)
	return change, nil
}

// MarkRead returns the ids of the messages requester had not read yet.
func (s *ChatService) MarkRead(ctx context.Context, requester, conversationID string) ([]string, error) {
	if _, err := s.participantOf(ctx, requester, conversationID); err != nil {
		return nil, err
	}
	at := s.now()
	marked, err := s.store.MarkRead(ctx, conversationID, requester, at)
	if err != nil {
		return nil, err
	}
	if len(marked) > 0 {
		s.publish(ctx, conversationID, event.MessageRead{
			ConversationID: conversationID,
			ReaderID:       requester,
			MessageIDs:     marked,
			At:             at,
		})
	}
	return marked, nil
}

// Unsend hard deletes a message of requester.
func (s *ChatService) Unsend(ctx context.Context, requester, conversationID, messageID string) error {
	if _, err := s.participantOf(ctx, requester, conversationID); err != nil {
		return err
	}
	message, err := s.store.GetMessage(ctx, conversationID, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != requester {
		return errors.ErrNotSender
	}
	if err := s.store.DeleteMessage(ctx, conversationID, messageID); err != nil {
		return err
	}
	s.publish(ctx, conversationID, event.MessageDeleted{ConversationID: conversationID, MessageID: messageID})
	return nil
}

// History returns one page of messages strictly older than before, oldest first.
func (s *ChatService) History(ctx context.Context, requester, conversationID string, before time.Time) ([]domain.Message, error) {
	if _, err := s.participantOf(ctx, requester, conversationID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, conversationID, before, s.pageSize)
}

func (s *ChatService) Typing(ctx context.Context, requester, conversationID string, isTyping bool) error {
	if _, err := s.participantOf(ctx, requester, conversationID); err != nil {
		return err
	}
	return s.router.Publish(ctx, conversationID,
		event.Typing{ConversationID: conversationID, UserID: requester, IsTyping: isTyping},
		contract.ExceptIdentity(requester))
}

func (s *ChatService) participantOf(ctx context.Context, requester, conversationID string) (domain.Conversation, error) {
	conversation, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conversation.HasParticipant(requester) {
		return domain.Conversation{}, errors.ErrNotParticipant
	}
	return conversation, nil
}

// checkBlocks is a point in time read: a block landing during the send may let it through.
func (s *ChatService) checkBlocks(ctx context.Context, requester string, others []string) error {
	blockedByRequester, err := s.identities.BlockedBy(ctx, requester)
	if err != nil {
		return errors.Transient(err)
	}
	if len(lo.Intersect(blockedByRequester, others)) > 0 {
		return errors.ErrBlocked
	}
	for _, other := range others {
		blocked, err := s.identities.BlockedBy(ctx, other)
		if err != nil {
			return errors.Transient(err)
		}
		if lo.Contains(blocked, requester) {
			return errors.ErrBlocked
		}
	}
	return nil
}

// profile never fails: a missing identity degrades to its bare id.
func (s *ChatService) profile(ctx context.Context, userID string) domain.Profile {
	identity, err := s.identities.Get(ctx, userID)
	if err != nil {
		s.log.Debug("Sender profile unavailable", "user_id", userID, "error", err)
		return domain.Profile{ID: userID, DisplayName: userID}
	}
	profile := identity.Profile()
	if profile.DisplayName == "" {
		profile.DisplayName = lo.CoalesceOrEmpty(identity.Handle, identity.ID)
	}
	return profile
}

func (s *ChatService) publish(ctx context.Context, room string, evt event.Outbound) {
	if err := s.router.Publish(ctx, room, evt); err != nil {
		s.log.Warn("Fanout failed", "room", room, "event", evt.Name(), "error", err)
	}
}
