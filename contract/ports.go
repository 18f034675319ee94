//go:generate go run go.uber.org/mock/mockgen -source=ports.go -destination=../mocks/mock_ports.go -package=mocks
package contract

import (
	"agora/domain"
	"context"
)

// CredentialVerifier turns a bearer credential into the identity id it was issued for.
type CredentialVerifier interface {
	Verify(token string) (string, error)
}

// IdentityStore is the auth collaborator owning accounts and block lists.
type IdentityStore interface {
	Get(ctx context.Context, id string) (domain.Identity, error)
	FindByHandle(ctx context.Context, handle string) (domain.Identity, error)
	// BlockedBy lists the identities id has blocked.
	BlockedBy(ctx context.Context, id string) ([]string, error)
}

// Pusher delivers one payload to one push subscription, best effort.
type Pusher interface {
	Push(ctx context.Context, sub domain.PushSubscription, payload []byte) error
}

// Broker is the byte-level pub/sub a ClusterAdapter rides on.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler func([]byte)) error
	Close() error
}

// Notifier is the NotificationEngine as seen by the MessageDispatcher.
type Notifier interface {
	Generate(ctx context.Context, req domain.NotificationRequest) error
	ProcessMentions(ctx context.Context, authorID, text string, data map[string]any) int
}
