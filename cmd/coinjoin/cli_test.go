package main

import (
	"context"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	dbbadger "github.com/tdex-network/coinjoind/internal/infrastructure/storage/db/badger"
)

func TestFileWalletStore(t *testing.T) {
	ctx := context.Background()
	store := newFileWalletStore(filepath.Join(t.TempDir(), walletAccountsFile))

	list, err := store.ListAccounts(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	account, err := store.GetAccount(ctx, "acc-2")
	require.NoError(t, err)
	require.Nil(t, account)

	for _, key := range []string{"acc-2", "acc-1"} {
		err := store.UpdateAccount(ctx, domain.Account{
			Key:    key,
			Symbol: "regtest",
			Status: domain.AccountStatusReady,
			Utxos:  []domain.Utxo{{Txid: "ab", Vout: 1, Amount: "1000"}},
		})
		require.NoError(t, err)
	}

	list, err = store.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "acc-1", list[0].Key)
	require.Equal(t, "acc-2", list[1].Key)

	account, err = store.GetAccount(ctx, "acc-2")
	require.NoError(t, err)
	require.NotNil(t, account)
	require.Equal(t, "1000", account.Utxos[0].Amount)
	require.Equal(t, domain.AccountStatusReady, account.Status)
}

func TestParseCoordinatorURLs(t *testing.T) {
	urls, err := parseCoordinatorURLs([]string{
		"btc=https://coordinator.example/", "regtest=http://localhost:8081",
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"btc":     "https://coordinator.example/",
		"regtest": "http://localhost:8081",
	}, urls)

	for _, v := range []string{"btc", "=http://localhost", "btc="} {
		_, err := parseCoordinatorURLs([]string{v})
		require.Error(t, err)
	}
}

func TestOfflineCollaborators(t *testing.T) {
	_, _, err := offlineFactory{}.NewClient("btc", nil)
	require.ErrorIs(t, err, errCoordinatorOffline)

	err = offlineDevice{}.AuthorizeCoinjoin(context.Background(), ports.AuthorizeCoinjoinRequest{})
	require.ErrorIs(t, err, errDeviceOffline)

	res, err := offlineDevice{}.SignTransaction(context.Background(), domain.SignRequest{})
	require.ErrorIs(t, err, errDeviceOffline)
	require.Nil(t, res)
}

func TestDebugSettingsCommands(t *testing.T) {
	datadir := filepath.Join(t.TempDir(), "coinjoind")
	t.Setenv("COINJOIN_DATADIR", datadir)
	t.Setenv("COINJOIN_NETWORKS", "regtest")

	err := newApp().Run([]string{
		"coinjoin", "debug", "set",
		"--coordinator_url", "regtest=http://localhost:8081",
		"--disable_tor",
	})
	require.NoError(t, err)

	err = newApp().Run([]string{"coinjoin", "debug", "set", "--log_rounds"})
	require.NoError(t, err)

	require.NoError(t, newApp().Run([]string{"coinjoin", "debug"}))
	require.NoError(t, newApp().Run([]string{"coinjoin", "restore"}))
	require.NoError(t, newApp().Run([]string{"coinjoin", "accounts"}))
	require.NoError(t, newApp().Run([]string{"coinjoin", "forget", "acc-1"}))
	require.NoError(t, newApp().Run([]string{"coinjoin", "metrics"}))
	require.NoError(t, newApp().Run([]string{
		"coinjoin", "webhook", "add",
		"--action", "SESSION_START", "--endpoint", "http://localhost:8080/hook",
	}))
	require.NoError(t, newApp().Run([]string{"coinjoin", "webhook", "list"}))

	repo, err := dbbadger.NewRepoManager(filepath.Join(datadir, "db"), log.New())
	require.NoError(t, err)
	defer repo.Close()

	settings, err := repo.DebugSettingsRepository().GetDebugSettings(
		context.Background(),
	)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"regtest": "http://localhost:8081",
	}, settings.CoordinatorURLs)
	require.True(t, settings.DisableTor)
	require.True(t, settings.LogRounds)

	hooks, err := repo.WebhookRepository().GetAllWebhooks(context.Background())
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	require.Equal(t, "SESSION_START", hooks[0].ActionType)
	require.Equal(t, "http://localhost:8080/hook", hooks[0].Endpoint)
	require.False(t, hooks[0].IsSecured())
}

func TestFailingCommands(t *testing.T) {
	t.Setenv("COINJOIN_DATADIR", filepath.Join(t.TempDir(), "coinjoind"))
	t.Setenv("COINJOIN_DB_TYPE", "inmemory")

	tests := []struct {
		name string
		args []string
	}{
		{"summary_without_key", []string{"coinjoin", "summary"}},
		{"summary_of_unknown_account", []string{"coinjoin", "summary", "acc"}},
		{"forget_without_key", []string{"coinjoin", "forget"}},
		{"webhook_for_unknown_action", []string{
			"coinjoin", "webhook", "add",
			"--action", "TRADE_SETTLED", "--endpoint", "http://localhost:8080",
		}},
		{"webhook_without_endpoint", []string{"coinjoin", "webhook", "add"}},
		{"remove_webhook_without_id", []string{"coinjoin", "webhook", "remove"}},
		{"invalid_coordinator_url", []string{
			"coinjoin", "debug", "set", "--coordinator_url", "regtest",
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, newApp().Run(tt.args))
		})
	}
}
