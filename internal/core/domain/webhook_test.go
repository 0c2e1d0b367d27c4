package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/coinjoind/internal/core/domain"
)

func TestNewWebhook(t *testing.T) {
	t.Parallel()

	hook, err := domain.NewWebhook(
		domain.AllActions, "https://example.com/hooks", "secret",
	)
	require.NoError(t, err)
	require.NotEmpty(t, hook.ID)
	require.Equal(t, domain.AllActions, hook.ActionType)
	require.True(t, hook.IsSecured())

	other, err := domain.NewWebhook("SESSION_START", "http://localhost:8080", "")
	require.NoError(t, err)
	require.NotEqual(t, hook.ID, other.ID)
	require.False(t, other.IsSecured())
}

func TestFailingNewWebhook(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		actionType string
		endpoint   string
	}{
		{"missing_action_type", "", "http://localhost:8080"},
		{"missing_endpoint", domain.AllActions, ""},
		{"relative_endpoint", domain.AllActions, "localhost"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hook, err := domain.NewWebhook(tt.actionType, tt.endpoint, "")
			require.ErrorIs(t, err, domain.ErrInvalidWebhook)
			require.Nil(t, hook)
		})
	}
}
