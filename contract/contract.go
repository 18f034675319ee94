//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"agora/domain"
	"agora/domain/event"
	"context"
	"encoding/json"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Stop()
}

// Worker doesn't protect itself, the supervisor restarts it.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Transport is one live client connection. Send must never block.
type Transport interface {
	ID() string
	Identity() string
	Send(frame []byte) error
	Close(reason string)
}

// PresenceRegistry tracks identities holding at least one live transport.
// Register returns true on the offline->online transition, Deregister on online->offline.
type PresenceRegistry interface {
	Register(identity string, t Transport) bool
	Deregister(identity string, t Transport) bool
	IsOnline(identity string) bool
	Online() []string
	Connections() int
}

type PublishOptions struct {
	ExceptIdentity string
}

type PublishOption func(*PublishOptions)

// ExceptIdentity skips every transport of the given identity.
func ExceptIdentity(identity string) PublishOption {
	return func(o *PublishOptions) { o.ExceptIdentity = identity }
}

// RoomRouter performs no authorization: callers check membership before Join.
type RoomRouter interface {
	Join(room string, t Transport)
	Leave(room string, t Transport)
	LeaveAll(t Transport)
	IsMember(room string, t Transport) bool
	Publish(ctx context.Context, room string, evt event.Outbound, opts ...PublishOption) error
}

// Envelope carries one encoded frame between processes.
type Envelope struct {
	Origin         string          `json:"origin"`
	Room           string          `json:"room"`
	ExceptIdentity string          `json:"except,omitempty"`
	Frame          json.RawMessage `json:"frame"`
}

// ClusterAdapter moves envelopes to the other processes serving connections.
// Subscribe blocks until ctx is done or the broker fails.
type ClusterAdapter interface {
	Mode() string
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, deliver func(Envelope)) error
	Close() error
}

type LoungeRegistry interface {
	Join(t Transport) []event.LoungeMember
	// Leave reports true when t was the last lounge transport of its identity.
	Leave(t Transport) ([]event.LoungeMember, bool)
	ToggleMute(identity string) ([]event.LoungeMember, bool)
	Members() []event.LoungeMember
}

type ChatStore interface {
	// CreateConversation returns the existing direct conversation with ErrDuplicatePair when the pair is taken.
	CreateConversation(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
	FindDirect(ctx context.Context, a, b string) (domain.Conversation, error)
	GetConversation(ctx context.Context, id string) (domain.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	RemoveParticipant(ctx context.Context, id, userID string, departure *domain.Message) (int, error)
	AppendMessage(ctx context.Context, msg domain.Message) (domain.Message, error)
	GetMessage(ctx context.Context, conversationID, messageID string) (domain.Message, error)
	ToggleReaction(ctx context.Context, conversationID, messageID, userID, emoji string, at time.Time) (domain.ReactionChange, error)
	MarkRead(ctx context.Context, conversationID, userID string, at time.Time) ([]string, error)
	DeleteMessage(ctx context.Context, conversationID, messageID string) error
	History(ctx context.Context, conversationID string, before time.Time, limit int) ([]domain.Message, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n domain.Notification) error
	// CreateOrRefresh refreshes the unread record sharing (recipient, actor, type, target)
	// when it is younger than window, otherwise stores n. The bool reports creation.
	CreateOrRefresh(ctx context.Context, n domain.Notification, window time.Duration) (domain.Notification, bool, error)
	List(ctx context.Context, recipient string, before time.Time, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, recipient, id string) error
	MarkAllRead(ctx context.Context, recipient string) (int, error)
	CountUnread(ctx context.Context, recipient string) (int, error)
}

type PreferenceStore interface {
	Get(ctx context.Context, userID string) (domain.Preferences, error)
	Put(ctx context.Context, p domain.Preferences) error
}

type PushSubscriptionStore interface {
	Add(ctx context.Context, userID string, descriptor json.RawMessage) (domain.PushSubscription, error)
	List(ctx context.Context, userID string) ([]domain.PushSubscription, error)
	Remove(ctx context.Context, userID, id string) error
}
