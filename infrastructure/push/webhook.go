// Package push delivers notifications to offline users through their registered endpoints.
package push

import (
	"agora/domain"
	"agora/errors"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrNoEndpoint     = fmt.Errorf("%w: push descriptor has no endpoint", errors.ErrValidation)
	ErrEndpointRefuse = fmt.Errorf("push endpoint refused the payload")
	ErrNoVAPID        = fmt.Errorf("%w: web push subscription but no VAPID keys configured", errors.ErrValidation)
)

// descriptor is the part of a subscription the pushers understand.
// Unknown fields stay opaque.
type descriptor struct {
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// encrypted reports a browser PushSubscription, which needs VAPID signed encrypted delivery.
func (d descriptor) encrypted() bool {
	return d.Keys.P256dh != "" && d.Keys.Auth != ""
}

func parseDescriptor(raw []byte) (descriptor, error) {
	var d descriptor
	if err := json.Unmarshal(raw, &d); err != nil || d.Endpoint == "" {
		return descriptor{}, ErrNoEndpoint
	}
	target, err := url.Parse(d.Endpoint)
	if err != nil || (target.Scheme != "https" && target.Scheme != "http") {
		return descriptor{}, ErrNoEndpoint
	}
	return d, nil
}

// WebhookPusher POSTs the JSON payload to the descriptor endpoint.
type WebhookPusher struct {
	log    *slog.Logger
	client *http.Client
}

func NewWebhookPusher(log *slog.Logger, timeout time.Duration) *WebhookPusher {
	return &WebhookPusher{log: log, client: &http.Client{Timeout: timeout}}
}

func (p *WebhookPusher) Push(ctx context.Context, sub domain.PushSubscription, payload []byte) error {
	d, err := parseDescriptor(sub.Descriptor)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for k, v := range d.Headers {
		request.Header.Set(k, v)
	}

	resp, err := p.client.Do(request)
	if err != nil {
		return errors.Transient(err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if err := refusal(resp.StatusCode); err != nil {
		return err
	}
	p.log.Debug("Push delivered", "subscription_id", sub.ID, "user_id", sub.UserID)
	return nil
}

// refusal maps a push service status to an error. Throttling and 5xx are transient.
func refusal(status int) error {
	switch {
	case status >= 500 || status == http.StatusTooManyRequests:
		return errors.Transient(fmt.Errorf("%w: status %d", ErrEndpointRefuse, status))
	case status >= 300:
		return fmt.Errorf("%w: status %d", ErrEndpointRefuse, status)
	}
	return nil
}

// Dispatcher sends browser subscriptions through web push and plain endpoints through the webhook.
type Dispatcher struct {
	webPush *WebPusher
	webhook *WebhookPusher
}

// NewDispatcher accepts a nil webPush when no VAPID keys are configured.
func NewDispatcher(webPush *WebPusher, webhook *WebhookPusher) *Dispatcher {
	return &Dispatcher{webPush: webPush, webhook: webhook}
}

func (p *Dispatcher) Push(ctx context.Context, sub domain.PushSubscription, payload []byte) error {
	d, err := parseDescriptor(sub.Descriptor)
	if err != nil {
		return err
	}
	if !d.encrypted() {
		return p.webhook.Push(ctx, sub, payload)
	}
	if p.webPush == nil {
		return ErrNoVAPID
	}
	return p.webPush.Push(ctx, sub, payload)
}

// Noop drops every payload. Used when push is disabled.
type Noop struct{}

func (Noop) Push(context.Context, domain.PushSubscription, []byte) error { return nil }
