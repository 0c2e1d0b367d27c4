package inmemory

import (
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
)

type RepoManager struct {
	accountRepository  domain.CoinjoinAccountRepository
	settingsRepository domain.DebugSettingsRepository
	webhookRepository  domain.WebhookRepository
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		accountRepository:  NewCoinjoinAccountRepositoryImpl(),
		settingsRepository: NewDebugSettingsRepositoryImpl(),
		webhookRepository:  NewWebhookRepositoryImpl(),
	}
}

func (r *RepoManager) CoinjoinAccountRepository() domain.CoinjoinAccountRepository {
	return r.accountRepository
}

func (r *RepoManager) DebugSettingsRepository() domain.DebugSettingsRepository {
	return r.settingsRepository
}

func (r *RepoManager) WebhookRepository() domain.WebhookRepository {
	return r.webhookRepository
}

func (r *RepoManager) Close() {}
