package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-event-bus/internal/domain"
)

// URLResolver maps a user id to that user's registered webhook endpoint.
type URLResolver interface {
	WebhookURL(ctx context.Context, userID string) (string, error)
}

// Sender delivers notifications by POSTing them to the recipient's webhook.
// A non-2xx response counts as a failed delivery.
type Sender struct {
	client   *http.Client
	resolver URLResolver
}

func NewSender(r URLResolver, timeout time.Duration) *Sender {
	return &Sender{
		client:   &http.Client{Timeout: timeout},
		resolver: r,
	}
}

type payload struct {
	Notification *domain.Notification `json:"notification"`
	Timestamp    int64                `json:"timestamp"`
}

func (s *Sender) Send(ctx context.Context, n *domain.Notification) error {
	url, err := s.resolver.WebhookURL(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("resolve webhook for %s: %w", n.UserID, err)
	}

	body, err := json.Marshal(payload{Notification: n, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", n.CorrelationID)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s responded %d", url, resp.StatusCode)
	}
	return nil
}
