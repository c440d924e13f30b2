package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/anonto42/memomap/backend/internal/models"
)

// Sender delivers one payload to one browser subscription and reports the
// push service's HTTP status.
type Sender interface {
	Send(ctx context.Context, sub models.Subscription, payload []byte) (int, error)
}

// VAPID holds the application server keys used to sign push requests.
type VAPID struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

func (v VAPID) Configured() bool {
	return v.PublicKey != "" && v.PrivateKey != ""
}

// GenerateVAPID creates a fresh key pair. Used when running locally without
// configured keys; subscriptions made against generated keys do not survive
// a restart.
func GenerateVAPID(subject string) (VAPID, error) {
	private, public, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return VAPID{}, fmt.Errorf("failed to generate VAPID keys: %w", err)
	}
	return VAPID{PublicKey: public, PrivateKey: private, Subject: subject}, nil
}

type WebPushSender struct {
	vapid  VAPID
	ttl    int
	client *http.Client
}

func NewWebPushSender(vapid VAPID) *WebPushSender {
	return &WebPushSender{
		vapid:  vapid,
		ttl:    60 * 60 * 24,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts an encrypted payload to the subscription's push service. A
// non-2xx status is returned alongside an error so callers can tell expired
// endpoints (404, 410) from transient failures.
func (s *WebPushSender) Send(ctx context.Context, sub models.Subscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		// The library adds the mailto: scheme itself.
		Subscriber:      strings.TrimPrefix(s.vapid.Subject, "mailto:"),
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             s.ttl,
		HTTPClient:      s.client,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// Gone reports whether a push service status means the subscription is dead.
func Gone(status int) bool {
	return status == http.StatusNotFound || status == http.StatusGone
}
