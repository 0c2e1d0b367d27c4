package domain

import (
	"context"
	"net/url"

	"github.com/google/uuid"
)

// AllActions is the action type of webhooks notified of every action.
const AllActions = "*"

// Webhook is an http endpoint notified of the coinjoin actions of a given
// type. Notifications of secured hooks carry a token signed with Secret.
type Webhook struct {
	ID         string
	ActionType string
	Endpoint   string
	Secret     string
}

// NewWebhook returns a webhook with a random id.
func NewWebhook(actionType, endpoint, secret string) (*Webhook, error) {
	if actionType == "" {
		return nil, ErrInvalidWebhook
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, ErrInvalidWebhook
	}
	return &Webhook{
		ID:         uuid.New().String(),
		ActionType: actionType,
		Endpoint:   endpoint,
		Secret:     secret,
	}, nil
}

func (h Webhook) IsSecured() bool {
	return len(h.Secret) > 0
}

// WebhookRepository ...
type WebhookRepository interface {
	AddWebhook(ctx context.Context, hook Webhook) error
	GetWebhook(ctx context.Context, id string) (*Webhook, error)
	// GetWebhooksByAction returns the hooks registered for the given action
	// type only, sorted by id.
	GetWebhooksByAction(ctx context.Context, actionType string) ([]Webhook, error)
	GetAllWebhooks(ctx context.Context) ([]Webhook, error)
	// DeleteWebhook is a no-op for unknown ids.
	DeleteWebhook(ctx context.Context, id string) error
}
