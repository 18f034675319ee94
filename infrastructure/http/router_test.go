package http

import (
	"agora/domain"
	"agora/errors"
	"agora/infrastructure/storage"
	"agora/mocks"
	"agora/runtime/workers"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testInternalKey = "internal-secret"

type staticStats struct{ stats workers.NodeStats }

func (s staticStats) Latest() workers.NodeStats { return s.stats }

type restFixture struct {
	server        *httptest.Server
	gateway       *mocks.MockISessionGateway
	chat          *mocks.MockIChatService
	notifications *mocks.MockINotificationService
	identities    storage.IdentityRepository
}

func newRestFixture(t *testing.T) *restFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	db, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &restFixture{
		gateway:       mocks.NewMockISessionGateway(ctrl),
		chat:          mocks.NewMockIChatService(ctrl),
		notifications: mocks.NewMockINotificationService(ctrl),
		identities:    storage.NewIdentityRepository(db, slog.Default()),
	}
	handler := NewHandler(slog.Default(), f.gateway, f.chat, f.notifications, f.identities,
		staticStats{workers.NodeStats{Node: "node-1", Connections: 2}}, testInternalKey)
	f.server = httptest.NewServer(NewRouter(handler, nil))
	t.Cleanup(f.server.Close)
	return f
}

// as makes the gateway accept the next request as identityID.
func (f *restFixture) as(identityID string) {
	f.gateway.EXPECT().Authenticate(gomock.Any(), gomock.Any()).Return(domain.Identity{ID: identityID}, nil)
}

func (f *restFixture) do(t *testing.T, method, path, body string, header map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	for k, v := range header {
		request.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func errorCode(body map[string]any) string {
	failure, _ := body["error"].(map[string]any)
	code, _ := failure["code"].(string)
	return code
}

func TestRouter_Health(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)

	status, body := f.do(t, http.MethodGet, "/healthz", "", nil)
	req.Equal(http.StatusOK, status)
	req.Equal("ok", body["status"])
	req.Equal("node-1", body["node"].(map[string]any)["node"])
}

func TestRouter_Authentication(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)

	f.gateway.EXPECT().Authenticate(gomock.Any(), gomock.Any()).Return(domain.Identity{}, errors.ErrMissingCredential)
	status, body := f.do(t, http.MethodGet, "/v1/conversations", "", nil)
	req.Equal(http.StatusUnauthorized, status)
	req.Equal("unauthenticated", errorCode(body))

	f.as("u1")
	f.chat.EXPECT().ListConversations(gomock.Any(), "u1").Return(nil, nil)
	status, body = f.do(t, http.MethodGet, "/v1/conversations", "", nil)
	req.Equal(http.StatusOK, status)
	req.Equal([]any{}, body["conversations"])
}

func TestRouter_Conversations(t *testing.T) {
	before := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("should create a conversation for the caller", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)
		f.as("u1")
		f.chat.EXPECT().
			CreateConversation(gomock.Any(), "u1", []string{"u2", "u3"}, true, "trip").
			Return(domain.Conversation{ID: "conv-1", Name: "trip", IsGroup: true}, nil)

		status, body := f.do(t, http.MethodPost, "/v1/conversations", `{"memberIds":["u2","u3"],"isGroup":true,"name":"trip"}`, nil)
		req.Equal(http.StatusCreated, status)
		req.Equal("conv-1", body["id"])
	})

	t.Run("should refuse a body without members before reaching the service", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)
		f.as("u1")

		status, body := f.do(t, http.MethodPost, "/v1/conversations", `{"memberIds":[]}`, nil)
		req.Equal(http.StatusBadRequest, status)
		req.Equal("bad_request", errorCode(body))
	})

	t.Run("should page history with the before cursor", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)
		f.as("u1")
		f.chat.EXPECT().
			History(gomock.Any(), "u1", "conv-1", before).
			Return([]domain.Message{{ID: "m1", Content: "hi"}}, nil)

		status, body := f.do(t, http.MethodGet, "/v1/conversations/conv-1/messages?before="+before.Format(time.RFC3339Nano), "", nil)
		req.Equal(http.StatusOK, status)
		req.Len(body["messages"], 1)
	})

	t.Run("should reject a malformed cursor", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)
		f.as("u1")

		status, _ := f.do(t, http.MethodGet, "/v1/conversations/conv-1/messages?before=yesterday", "", nil)
		req.Equal(http.StatusBadRequest, status)
	})

	t.Run("should map service errors onto status codes", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)

		f.as("u3")
		f.chat.EXPECT().AppendMessage(gomock.Any(), "u3", "conv-1", "hello", "").Return(domain.ResolvedMessage{}, errors.ErrNotParticipant)
		status, body := f.do(t, http.MethodPost, "/v1/conversations/conv-1/messages", `{"content":"hello"}`, nil)
		req.Equal(http.StatusForbidden, status)
		req.Equal("forbidden", errorCode(body))

		f.as("u1")
		f.chat.EXPECT().Unsend(gomock.Any(), "u1", "conv-1", "m9").Return(errors.ErrMessageNotFound)
		status, _ = f.do(t, http.MethodDelete, "/v1/conversations/conv-1/messages/m9", "", nil)
		req.Equal(http.StatusNotFound, status)

		f.as("u1")
		f.chat.EXPECT().DeleteConversation(gomock.Any(), "u1", "conv-1").Return(errors.Transient(io.ErrUnexpectedEOF))
		status, body = f.do(t, http.MethodDelete, "/v1/conversations/conv-1", "", nil)
		req.Equal(http.StatusServiceUnavailable, status)
		req.Equal("unavailable", errorCode(body))
	})

	t.Run("should report the reaction change", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)
		f.as("u2")
		f.chat.EXPECT().ToggleReaction(gomock.Any(), "u2", "conv-1", "m1", "🔥").Return(domain.ReactionAdded, nil)

		status, body := f.do(t, http.MethodPost, "/v1/conversations/conv-1/messages/m1/reactions", `{"emoji":"🔥"}`, nil)
		req.Equal(http.StatusOK, status)
		req.Equal(domain.ReactionAdded.String(), body["change"])
	})

	t.Run("should leave and mark read", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)

		f.as("u2")
		f.chat.EXPECT().MarkRead(gomock.Any(), "u2", "conv-1").Return([]string{"m1", "m2"}, nil)
		status, body := f.do(t, http.MethodPost, "/v1/conversations/conv-1/read", "", nil)
		req.Equal(http.StatusOK, status)
		req.Equal([]any{"m1", "m2"}, body["messageIds"])

		f.as("u2")
		f.chat.EXPECT().LeaveConversation(gomock.Any(), "u2", "conv-1").Return(nil)
		status, _ = f.do(t, http.MethodPost, "/v1/conversations/conv-1/leave", "", nil)
		req.Equal(http.StatusNoContent, status)
	})
}

func TestRouter_Notifications(t *testing.T) {
	t.Run("should pass the limit and count unread", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)

		f.as("u1")
		f.notifications.EXPECT().List(gomock.Any(), "u1", time.Time{}, 5).Return([]domain.Notification{{ID: "n1"}}, nil)
		status, body := f.do(t, http.MethodGet, "/v1/notifications?limit=5", "", nil)
		req.Equal(http.StatusOK, status)
		req.Len(body["notifications"], 1)

		f.as("u1")
		status, _ = f.do(t, http.MethodGet, "/v1/notifications?limit=many", "", nil)
		req.Equal(http.StatusBadRequest, status)

		f.as("u1")
		f.notifications.EXPECT().CountUnread(gomock.Any(), "u1").Return(3, nil)
		status, body = f.do(t, http.MethodGet, "/v1/notifications/unread-count", "", nil)
		req.Equal(http.StatusOK, status)
		req.EqualValues(3, body["count"])
	})

	t.Run("should mark one or all read", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)

		f.as("u1")
		f.notifications.EXPECT().MarkRead(gomock.Any(), "u1", "n1").Return(errors.ErrNotRecipient)
		status, _ := f.do(t, http.MethodPost, "/v1/notifications/n1/read", "", nil)
		req.Equal(http.StatusForbidden, status)

		f.as("u1")
		f.notifications.EXPECT().MarkAllRead(gomock.Any(), "u1").Return(4, nil)
		status, body := f.do(t, http.MethodPost, "/v1/notifications/read-all", "", nil)
		req.Equal(http.StatusOK, status)
		req.EqualValues(4, body["marked"])
	})

	t.Run("should only change the switches sent", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)
		f.as("u1")
		f.notifications.EXPECT().Preferences(gomock.Any(), "u1").Return(domain.DefaultPreferences("u1"), nil)

		expected := domain.DefaultPreferences("u1")
		expected.Likes = false
		f.notifications.EXPECT().UpdatePreferences(gomock.Any(), expected).Return(expected, nil)

		status, body := f.do(t, http.MethodPut, "/v1/notifications/preferences", `{"likes":false}`, nil)
		req.Equal(http.StatusOK, status)
		req.Equal(false, body["likes"])
		req.Equal(true, body["comments"])
	})

	t.Run("should register a push descriptor verbatim", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)
		descriptor := `{"endpoint":"https://push.example/abc"}`

		f.as("u1")
		f.notifications.EXPECT().
			RegisterPushSubscription(gomock.Any(), "u1", json.RawMessage(descriptor)).
			Return(domain.PushSubscription{ID: "s1", UserID: "u1", Descriptor: json.RawMessage(descriptor)}, nil)
		status, body := f.do(t, http.MethodPost, "/v1/push-subscriptions", descriptor, nil)
		req.Equal(http.StatusCreated, status)
		req.Equal("s1", body["id"])

		f.as("u1")
		status, _ = f.do(t, http.MethodPost, "/v1/push-subscriptions", "not json", nil)
		req.Equal(http.StatusBadRequest, status)

		f.as("u1")
		f.notifications.EXPECT().RemovePushSubscription(gomock.Any(), "u1", "s1").Return(nil)
		status, _ = f.do(t, http.MethodDelete, "/v1/push-subscriptions/s1", "", nil)
		req.Equal(http.StatusNoContent, status)
	})
}

func TestRouter_Internal(t *testing.T) {
	internal := map[string]string{internalKeyHeader: testInternalKey}

	t.Run("should refuse without the key", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)

		status, body := f.do(t, http.MethodPost, "/internal/notifications", `{}`, nil)
		req.Equal(http.StatusForbidden, status)
		req.Equal("forbidden", errorCode(body))

		status, _ = f.do(t, http.MethodPost, "/internal/notifications", `{}`, map[string]string{internalKeyHeader: "guess"})
		req.Equal(http.StatusForbidden, status)
	})

	t.Run("should ingest notifications and mentions", func(t *testing.T) {
		req := require.New(t)
		f := newRestFixture(t)

		f.notifications.EXPECT().Generate(gomock.Any(), domain.NotificationRequest{
			Recipient: "u2",
			Actor:     "u1",
			Type:      domain.NotificationLike,
			Data:      map[string]any{"target": "post-1"},
			Message:   "Alice liked your post",
		}).Return(nil)
		status, _ := f.do(t, http.MethodPost, "/internal/notifications",
			`{"recipient":"u2","actor":"u1","type":"like","data":{"target":"post-1"},"message":"Alice liked your post"}`, internal)
		req.Equal(http.StatusAccepted, status)

		status, _ = f.do(t, http.MethodPost, "/internal/notifications", `{"recipient":"u2","type":"poke"}`, internal)
		req.Equal(http.StatusBadRequest, status)

		f.notifications.EXPECT().ProcessMentions(gomock.Any(), "u1", "hi @bob and @carol", gomock.Nil()).Return(2)
		status, body := f.do(t, http.MethodPost, "/internal/mentions", `{"authorId":"u1","text":"hi @bob and @carol"}`, internal)
		req.Equal(http.StatusOK, status)
		req.EqualValues(2, body["notified"])
	})

	t.Run("should store identities and blocks", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		f := newRestFixture(t)

		status, _ := f.do(t, http.MethodPut, "/internal/identities/u1", `{"handle":"alice","displayName":"Alice"}`, internal)
		req.Equal(http.StatusNoContent, status)
		identity, err := f.identities.Get(ctx, "u1")
		req.NoError(err)
		req.Equal("Alice", identity.DisplayName)

		status, _ = f.do(t, http.MethodPut, "/internal/identities/u1/blocks/u2", "", internal)
		req.Equal(http.StatusNoContent, status)
		blocked, err := f.identities.BlockedBy(ctx, "u1")
		req.NoError(err)
		req.Equal([]string{"u2"}, blocked)

		status, _ = f.do(t, http.MethodDelete, "/internal/identities/u1/blocks/u2", "", internal)
		req.Equal(http.StatusNoContent, status)
		blocked, err = f.identities.BlockedBy(ctx, "u1")
		req.NoError(err)
		req.Empty(blocked)
	})
}
