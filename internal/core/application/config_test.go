package application_test

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/coinjoind/internal/core/application"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	"github.com/tdex-network/coinjoind/pkg/anonymity"
)

func newTestConfig(
	t *testing.T, accounts ...domain.Account,
) (*application.Config, *actionRecorder) {
	factory := newMockFactory()
	client, _ := factory.add(testNetwork)
	client.On("Enable").Return(testCoordinatorStatus(), nil).Maybe()
	client.On("UnregisterAccount", mock.Anything).Return(nil).Maybe()
	recorder := &actionRecorder{}

	cfg := &application.Config{
		DBType:                 application.DBInMemory,
		Networks:               []string{testNetwork},
		CoordinatorFactory:     factory,
		Device:                 &mockDevice{},
		WalletStore:            newWalletStore(accounts...),
		Observers:              []ports.ActionObserver{recorder},
		Estimates:              anonymity.DefaultEstimates,
		DefaultTargetAnonymity: 5,
	}
	t.Cleanup(func() {
		if registry := cfg.ClientRegistry(); registry != nil {
			registry.Close()
		}
	})
	return cfg, recorder
}

func TestConfig(t *testing.T) {
	account := newWalletAccount(t, "acc")
	cfg, recorder := newTestConfig(t, account)
	require.NoError(t, cfg.Validate())

	orchestrator := cfg.Orchestrator()
	require.NotNil(t, orchestrator)
	require.Same(t, orchestrator, cfg.Orchestrator())

	svc := cfg.CoinjoinService()
	_, err := svc.CreateCoinjoinAccount(ctx, account, 0)
	require.NoError(t, err)
	recorder.reset()

	require.NoError(t, orchestrator.Handle(ctx, application.AccountsRemoved{
		AccountKeys: []string{account.Key},
	}))
	_, err = svc.GetCoinjoinAccount(ctx, account.Key)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.Contains(t, recorder.types(), application.ActionAccountRemove)
}

func TestConfigWithBadger(t *testing.T) {
	cfg, _ := newTestConfig(t)
	cfg.DBType = application.DBBadger
	cfg.DBConfig = t.TempDir()
	require.NoError(t, cfg.Validate())

	repo := cfg.RepoManager()
	require.NotNil(t, repo)
	t.Cleanup(repo.Close)

	settings, err := repo.DebugSettingsRepository().GetDebugSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
}

func TestFailingConfig(t *testing.T) {
	tests := []struct {
		name   string
		update func(cfg *application.Config)
	}{
		{"unsupported_db_type", func(cfg *application.Config) { cfg.DBType = "pg" }},
		{"missing_coordinator_factory", func(cfg *application.Config) { cfg.CoordinatorFactory = nil }},
		{"missing_device", func(cfg *application.Config) { cfg.Device = nil }},
		{"missing_wallet_store", func(cfg *application.Config) { cfg.WalletStore = nil }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := newTestConfig(t)
			tt.update(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
