package ports

import "github.com/tdex-network/coinjoind/internal/core/domain"

// RepoManager gives access to all the repositories.
type RepoManager interface {
	CoinjoinAccountRepository() domain.CoinjoinAccountRepository
	DebugSettingsRepository() domain.DebugSettingsRepository
	WebhookRepository() domain.WebhookRepository
	Close()
}
