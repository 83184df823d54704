package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-event-bus/internal/domain"
)

// Directory resolves delivery endpoints for a user from configured templates,
// where "{userId}" is replaced by the user id. The real user directory is an
// external collaborator; this stand-in keeps the channel senders wireable in
// environments that lack one. An empty template means the channel has no
// endpoint for any user.
type Directory struct {
	EmailTemplate      string
	PhoneTemplate      string
	PushTargetTemplate string
	WebhookTemplate    string
}

func (d *Directory) expand(template, userID, channel string) (string, error) {
	if template == "" {
		return "", fmt.Errorf("no %s endpoint configured for %s: %w", channel, userID, domain.ErrNotFound)
	}
	return strings.ReplaceAll(template, "{userId}", userID), nil
}

func (d *Directory) EmailAddress(_ context.Context, userID string) (string, error) {
	return d.expand(d.EmailTemplate, userID, "email")
}

func (d *Directory) PhoneNumber(_ context.Context, userID string) (string, error) {
	return d.expand(d.PhoneTemplate, userID, "sms")
}

func (d *Directory) PushTarget(_ context.Context, userID string) (string, error) {
	return d.expand(d.PushTargetTemplate, userID, "push")
}

func (d *Directory) WebhookURL(_ context.Context, userID string) (string, error) {
	return d.expand(d.WebhookTemplate, userID, "webhook")
}
