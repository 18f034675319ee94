package push

import (
	"agora/domain"
	"agora/errors"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/require"
)

type capture struct {
	header http.Header
	body   []byte
}

func pushService(t *testing.T, status int) (*httptest.Server, chan capture) {
	t.Helper()
	captured := make(chan capture, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured <- capture{header: r.Header.Clone(), body: body}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, captured
}

// browserSubscription builds a descriptor the way a browser PushManager does.
func browserSubscription(t *testing.T, endpoint string) domain.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{
		"endpoint": endpoint,
		"keys": map[string]string{
			"p256dh": base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			"auth":   base64.RawURLEncoding.EncodeToString(secret),
		},
	})
	require.NoError(t, err)
	return domain.PushSubscription{ID: "s1", UserID: "u1", Descriptor: raw}
}

func testVAPID(t *testing.T) VAPID {
	t.Helper()
	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return VAPID{PublicKey: public, PrivateKey: private, Subscriber: "ops@agora.test"}
}

func TestWebPusher_Push(t *testing.T) {
	ctx := context.Background()

	t.Run("should send an encrypted payload signed with the VAPID keys", func(t *testing.T) {
		req := require.New(t)
		server, captured := pushService(t, http.StatusCreated)
		vapid := testVAPID(t)
		pusher := NewWebPusher(slog.Default(), vapid, time.Hour, time.Second)

		plain := []byte(`{"title":"Bob liked your post"}`)
		req.NoError(pusher.Push(ctx, browserSubscription(t, server.URL+"/wpush/abc"), plain))

		got := <-captured
		req.Equal("aes128gcm", got.header.Get("Content-Encoding"))
		req.Equal("3600", got.header.Get("TTL"))
		req.True(strings.HasPrefix(got.header.Get("Authorization"), "vapid t="))
		req.Contains(got.header.Get("Authorization"), "k="+vapid.PublicKey)
		req.NotEmpty(got.body)
		req.NotContains(string(got.body), "liked")
	})

	t.Run("should classify refusals", func(t *testing.T) {
		req := require.New(t)
		pusher := NewWebPusher(slog.Default(), testVAPID(t), time.Hour, time.Second)

		gone, _ := pushService(t, http.StatusGone)
		err := pusher.Push(ctx, browserSubscription(t, gone.URL), []byte(`{}`))
		req.ErrorIs(err, ErrEndpointRefuse)
		req.False(errors.Is(err, errors.ErrTransient))

		throttled, _ := pushService(t, http.StatusTooManyRequests)
		err = pusher.Push(ctx, browserSubscription(t, throttled.URL), []byte(`{}`))
		req.ErrorIs(err, errors.ErrTransient)
	})

	t.Run("should reject malformed subscription keys", func(t *testing.T) {
		req := require.New(t)
		pusher := NewWebPusher(slog.Default(), testVAPID(t), time.Hour, time.Second)
		bad := domain.PushSubscription{Descriptor: json.RawMessage(`{"endpoint":"https://push.example","keys":{"p256dh":"bm9wZQ","auth":"bm9wZQ"}}`)}

		req.ErrorIs(pusher.Push(ctx, bad, []byte(`{}`)), errors.ErrValidation)
		req.ErrorIs(pusher.Push(ctx, domain.PushSubscription{Descriptor: json.RawMessage(`{}`)}, nil), ErrNoEndpoint)
	})
}

func TestDispatcher_Push(t *testing.T) {
	ctx := context.Background()
	webhook := NewWebhookPusher(slog.Default(), time.Second)

	t.Run("should pick the channel from the descriptor", func(t *testing.T) {
		req := require.New(t)
		server, captured := pushService(t, http.StatusCreated)
		dispatcher := NewDispatcher(NewWebPusher(slog.Default(), testVAPID(t), time.Hour, time.Second), webhook)

		req.NoError(dispatcher.Push(ctx, browserSubscription(t, server.URL), []byte(`{}`)))
		req.Equal("aes128gcm", (<-captured).header.Get("Content-Encoding"))

		req.NoError(dispatcher.Push(ctx, subscription(server.URL), []byte(`{}`)))
		got := <-captured
		req.Equal("application/json", got.header.Get("Content-Type"))
		req.Empty(got.header.Get("Content-Encoding"))
	})

	t.Run("should refuse browser subscriptions without VAPID keys", func(t *testing.T) {
		req := require.New(t)
		server, captured := pushService(t, http.StatusCreated)
		dispatcher := NewDispatcher(nil, webhook)

		req.ErrorIs(dispatcher.Push(ctx, browserSubscription(t, server.URL), []byte(`{}`)), ErrNoVAPID)
		req.Empty(captured)
		req.ErrorIs(dispatcher.Push(ctx, domain.PushSubscription{Descriptor: json.RawMessage(`"x"`)}, nil), ErrNoEndpoint)
	})
}
