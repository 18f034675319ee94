package auth

import (
	"agora/domain"
	"agora/domain/event"
	"agora/errors"
	"agora/mocks"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type gatewayFixture struct {
	gateway    *SessionGateway
	verifier   *mocks.MockCredentialVerifier
	identities *mocks.MockIdentityStore
	presence   *mocks.MockPresenceRegistry
	router     *mocks.MockRoomRouter
}

func newGatewayFixture(t *testing.T) gatewayFixture {
	ctrl := gomock.NewController(t)
	f := gatewayFixture{
		verifier:   mocks.NewMockCredentialVerifier(ctrl),
		identities: mocks.NewMockIdentityStore(ctrl),
		presence:   mocks.NewMockPresenceRegistry(ctrl),
		router:     mocks.NewMockRoomRouter(ctrl),
	}
	f.gateway = NewSessionGateway(slog.Default(), f.verifier, f.identities, f.presence, f.router, "")
	return f
}

func TestSessionGateway_Credential_Order(t *testing.T) {
	f := newGatewayFixture(t)

	tests := []struct {
		name    string
		request func() *http.Request
		want    string
		wantErr error
	}{
		{
			name: "bearer wins over cookie and query",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/ws?token=query", nil)
				r.Header.Set("Authorization", "Bearer header")
				r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "cookie"})
				return r
			},
			want: "header",
		},
		{
			name: "cookie wins over query",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/ws?token=query", nil)
				r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "cookie"})
				return r
			},
			want: "cookie",
		},
		{
			name:    "query as last resort",
			request: func() *http.Request { return httptest.NewRequest(http.MethodGet, "/ws?token=query", nil) },
			want:    "query",
		},
		{
			name: "malformed header falls through",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/ws", nil)
				r.Header.Set("Authorization", "Basic abc")
				return r
			},
			wantErr: errors.ErrMissingCredential,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, err := f.gateway.Credential(tt.request())
			if tt.wantErr != nil {
				req.ErrorIs(err, tt.wantErr)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestSessionGateway_Authenticate(t *testing.T) {
	ctx := context.Background()
	request := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Authorization", "Bearer token")
		return r
	}

	t.Run("should resolve an active identity", func(t *testing.T) {
		req := require.New(t)
		f := newGatewayFixture(t)
		f.verifier.EXPECT().Verify("token").Return("u1", nil)
		f.identities.EXPECT().Get(gomock.Any(), "u1").Return(domain.Identity{ID: "u1", Handle: "alice"}, nil)

		identity, err := f.gateway.Authenticate(ctx, request())
		req.NoError(err)
		req.Equal("alice", identity.Handle)
	})

	t.Run("should reject banned, deactivated and unknown identities", func(t *testing.T) {
		for _, tt := range []struct {
			name     string
			identity domain.Identity
			err      error
		}{
			{"banned", domain.Identity{ID: "u1", Banned: true}, nil},
			{"deactivated", domain.Identity{ID: "u1", Deactivated: true}, nil},
			{"unknown", domain.Identity{}, errors.ErrIdentityNotFound},
		} {
			t.Run(tt.name, func(t *testing.T) {
				req := require.New(t)
				f := newGatewayFixture(t)
				f.verifier.EXPECT().Verify("token").Return("u1", nil)
				f.identities.EXPECT().Get(gomock.Any(), "u1").Return(tt.identity, tt.err)

				_, err := f.gateway.Authenticate(ctx, request())
				req.ErrorIs(err, errors.ErrIdentityRejected)
			})
		}
	})

	t.Run("should map verifier and store failures", func(t *testing.T) {
		req := require.New(t)
		f := newGatewayFixture(t)
		f.verifier.EXPECT().Verify("token").Return("", fmt.Errorf("bad signature"))
		_, err := f.gateway.Authenticate(ctx, request())
		req.ErrorIs(err, errors.ErrInvalidCredential)

		f.verifier.EXPECT().Verify("token").Return("u1", nil)
		f.identities.EXPECT().Get(gomock.Any(), "u1").Return(domain.Identity{}, fmt.Errorf("disk full"))
		_, err = f.gateway.Authenticate(ctx, request())
		req.ErrorIs(err, errors.ErrTransient)
	})

	t.Run("should require a credential", func(t *testing.T) {
		req := require.New(t)
		f := newGatewayFixture(t)
		_, err := f.gateway.Authenticate(ctx, httptest.NewRequest(http.MethodGet, "/ws", nil))
		req.ErrorIs(err, errors.ErrMissingCredential)
	})
}

func TestSessionGateway_Attach_Detach(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newGatewayFixture(t)
	ctrl := gomock.NewController(t)
	first, second := mocks.NewMockTransport(ctrl), mocks.NewMockTransport(ctrl)
	for id, tr := range map[string]*mocks.MockTransport{"t1": first, "t2": second} {
		tr.EXPECT().ID().Return(id).AnyTimes()
		tr.EXPECT().Identity().Return("u1").AnyTimes()
	}
	identity := domain.Identity{ID: "u1"}

	// The canonical address is joined before the presence announcement
	gomock.InOrder(
		f.router.EXPECT().Join(domain.UserAddress("u1"), first),
		f.router.EXPECT().Join(domain.PresenceRoom, first),
		f.presence.EXPECT().Register("u1", first).Return(true),
		f.router.EXPECT().Publish(gomock.Any(), domain.PresenceRoom, event.UserOnline{UserID: "u1"}, gomock.Any()).Return(nil),
	)
	req.NoError(f.gateway.Attach(ctx, identity, first))

	// A second tab is silent
	f.router.EXPECT().Join(domain.UserAddress("u1"), second)
	f.router.EXPECT().Join(domain.PresenceRoom, second)
	f.presence.EXPECT().Register("u1", second).Return(false)
	req.NoError(f.gateway.Attach(ctx, identity, second))

	f.router.EXPECT().LeaveAll(first)
	f.presence.EXPECT().Deregister("u1", first).Return(false)
	f.gateway.Detach(ctx, first)

	// The last transport announces the identity offline
	f.router.EXPECT().LeaveAll(second)
	f.presence.EXPECT().Deregister("u1", second).Return(true)
	f.router.EXPECT().Publish(gomock.Any(), domain.PresenceRoom, event.UserOffline{UserID: "u1"}).Return(nil)
	f.gateway.Detach(ctx, second)
}
