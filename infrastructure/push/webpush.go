package push

import (
	"agora/domain"
	"agora/errors"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// VAPID identifies this server to browser push services.
type VAPID struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

func (v VAPID) Configured() bool {
	return v.PublicKey != "" && v.PrivateKey != ""
}

// WebPusher delivers RFC 8291 encrypted payloads signed with the VAPID keys.
type WebPusher struct {
	log    *slog.Logger
	vapid  VAPID
	ttl    time.Duration
	client *http.Client
}

func NewWebPusher(log *slog.Logger, vapid VAPID, ttl, timeout time.Duration) *WebPusher {
	return &WebPusher{log: log, vapid: vapid, ttl: ttl, client: &http.Client{Timeout: timeout}}
}

func (p *WebPusher) Push(ctx context.Context, sub domain.PushSubscription, payload []byte) error {
	var subscription webpush.Subscription
	if err := json.Unmarshal(sub.Descriptor, &subscription); err != nil || subscription.Endpoint == "" {
		return ErrNoEndpoint
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &subscription, &webpush.Options{
		HTTPClient:      p.client,
		Subscriber:      p.vapid.Subscriber,
		VAPIDPublicKey:  p.vapid.PublicKey,
		VAPIDPrivateKey: p.vapid.PrivateKey,
		TTL:             int(p.ttl.Seconds()),
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		var netErr *url.Error
		if errors.As(err, &netErr) {
			return errors.Transient(err)
		}
		// Malformed subscription keys
		return fmt.Errorf("%w: web push: %v", errors.ErrValidation, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if err := refusal(resp.StatusCode); err != nil {
		return err
	}
	p.log.Debug("Web push delivered", "subscription_id", sub.ID, "user_id", sub.UserID)
	return nil
}
