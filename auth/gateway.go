//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=../mocks/mock_gateway.go -package=mocks
package auth

import (
	"agora/contract"
	"agora/domain"
	"agora/domain/event"
	"agora/errors"
	"context"
	"log/slog"
	"net/http"
	"strings"
)

const (
	DefaultCookieName = "agora_session"
	queryTokenParam   = "token"
)

type ISessionGateway interface {
	Authenticate(ctx context.Context, r *http.Request) (domain.Identity, error)
	Attach(ctx context.Context, identity domain.Identity, t contract.Transport) error
	Detach(ctx context.Context, t contract.Transport)
}

// SessionGateway turns an upgrade request into an attached transport.
// Authentication always completes before the transport joins any room.
type SessionGateway struct {
	log        *slog.Logger
	verifier   contract.CredentialVerifier
	identities contract.IdentityStore
	presence   contract.PresenceRegistry
	router     contract.RoomRouter
	cookieName string
}

func NewSessionGateway(
	log *slog.Logger,
	verifier contract.CredentialVerifier,
	identities contract.IdentityStore,
	presence contract.PresenceRegistry,
	router contract.RoomRouter,
	cookieName string,
) *SessionGateway {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &SessionGateway{
		log:        log,
		verifier:   verifier,
		identities: identities,
		presence:   presence,
		router:     router,
		cookieName: cookieName,
	}
}

// Credential reads the bearer header, then the session cookie, then the token query parameter.
func (g *SessionGateway) Credential(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}
	if cookie, err := r.Cookie(g.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if token := r.URL.Query().Get(queryTokenParam); token != "" {
		return token, nil
	}
	return "", errors.ErrMissingCredential
}

func (g *SessionGateway) Authenticate(ctx context.Context, r *http.Request) (domain.Identity, error) {
	credential, err := g.Credential(r)
	if err != nil {
		return domain.Identity{}, err
	}
	return g.Resolve(ctx, credential)
}

// Resolve maps a credential onto an identity allowed to open a session.
func (g *SessionGateway) Resolve(ctx context.Context, credential string) (domain.Identity, error) {
	identityID, err := g.verifier.Verify(credential)
	if err != nil {
		if errors.Is(err, errors.ErrAuthentication) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, errors.ErrInvalidCredential
	}
	identity, err := g.identities.Get(ctx, identityID)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return domain.Identity{}, errors.ErrIdentityRejected
	case err != nil:
		return domain.Identity{}, errors.Transient(err)
	case identity.Rejected():
		return domain.Identity{}, errors.ErrIdentityRejected
	}
	return identity, nil
}

// Attach joins the canonical address first so nothing addressed to the identity is missed,
// then announces the identity when this is its first transport.
func (g *SessionGateway) Attach(ctx context.Context, identity domain.Identity, t contract.Transport) error {
	g.router.Join(domain.UserAddress(identity.ID), t)
	g.router.Join(domain.PresenceRoom, t)
	if !g.presence.Register(identity.ID, t) {
		return nil
	}
	g.log.Debug("Identity online", "user_id", identity.ID, "transport", t.ID())
	return g.router.Publish(ctx, domain.PresenceRoom, event.UserOnline{UserID: identity.ID}, contract.ExceptIdentity(identity.ID))
}

// Detach removes t from every room. The last transport of an identity announces it offline.
func (g *SessionGateway) Detach(ctx context.Context, t contract.Transport) {
	g.router.LeaveAll(t)
	if !g.presence.Deregister(t.Identity(), t) {
		return
	}
	g.log.Debug("Identity offline", "user_id", t.Identity(), "transport", t.ID())
	if err := g.router.Publish(ctx, domain.PresenceRoom, event.UserOffline{UserID: t.Identity()}); err != nil {
		g.log.Warn("Offline fanout failed", "user_id", t.Identity(), "error", err)
	}
}
