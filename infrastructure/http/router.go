// Package http serves the REST surfaces of conversations, messages and notifications.
package http

import (
	"agora/auth"
	"agora/domain"
	"agora/runtime/workers"
	"agora/services"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// IdentityAdmin is fed by the account collaborator through the internal routes.
type IdentityAdmin interface {
	Put(ctx context.Context, identity domain.Identity) error
	Block(ctx context.Context, userID, blockedID string, at time.Time) error
	Unblock(ctx context.Context, userID, blockedID string) error
}

// StatsSource exposes the latest node sample on /healthz.
type StatsSource interface {
	Latest() workers.NodeStats
}

type Handler struct {
	log           *slog.Logger
	gateway       auth.ISessionGateway
	chat          services.IChatService
	notifications services.INotificationService
	identities    IdentityAdmin
	stats         StatsSource
	internalKey   string
}

func NewHandler(
	log *slog.Logger,
	gateway auth.ISessionGateway,
	chat services.IChatService,
	notifications services.INotificationService,
	identities IdentityAdmin,
	stats StatsSource,
	internalKey string,
) *Handler {
	return &Handler{
		log:           log,
		gateway:       gateway,
		chat:          chat,
		notifications: notifications,
		identities:    identities,
		stats:         stats,
		internalKey:   internalKey,
	}
}

// NewRouter mounts the REST routes and the realtime endpoint on /ws.
func NewRouter(handler *Handler, realtime http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handler.recoverMiddleware)
	r.Use(handler.loggingMiddleware)

	r.Get("/healthz", handler.health)
	if realtime != nil {
		r.Handle("/ws", realtime)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(handler.authMiddleware)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", handler.listConversations)
			r.Post("/", handler.createConversation)
			r.Route("/{conversationID}", func(r chi.Router) {
				r.Get("/", handler.getConversation)
				r.Delete("/", handler.deleteConversation)
				r.Post("/leave", handler.leaveConversation)
				r.Post("/read", handler.markConversationRead)
				r.Get("/messages", handler.history)
				r.Post("/messages", handler.appendMessage)
				r.Delete("/messages/{messageID}", handler.unsend)
				r.Post("/messages/{messageID}/reactions", handler.toggleReaction)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", handler.listNotifications)
			r.Get("/unread-count", handler.unreadCount)
			r.Post("/read-all", handler.markAllNotificationsRead)
			r.Post("/{notificationID}/read", handler.markNotificationRead)
			r.Get("/preferences", handler.getPreferences)
			r.Put("/preferences", handler.updatePreferences)
		})

		r.Post("/push-subscriptions", handler.registerPushSubscription)
		r.Delete("/push-subscriptions/{subscriptionID}", handler.removePushSubscription)
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(handler.internalMiddleware)
		r.Post("/notifications", handler.ingestNotification)
		r.Post("/mentions", handler.ingestMentions)
		r.Put("/identities/{identityID}", handler.putIdentity)
		r.Put("/identities/{identityID}/blocks/{blockedID}", handler.block)
		r.Delete("/identities/{identityID}/blocks/{blockedID}", handler.unblock)
	})
	return r
}
