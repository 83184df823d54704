package contact

import (
	"context"
	"testing"

	"github.com/go-event-bus/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_ExpandsUserID(t *testing.T) {
	d := &Directory{
		EmailTemplate:   "{userId}@mail.example.com",
		WebhookTemplate: "https://hooks.example.com/{userId}",
	}

	email, err := d.EmailAddress(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@mail.example.com", email)

	url, err := d.WebhookURL(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/u1", url)
}

func TestDirectory_EmptyTemplateIsNotFound(t *testing.T) {
	d := &Directory{}
	_, err := d.PhoneNumber(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = d.PushTarget(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
