package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/coinjoind/internal/core/domain"
)

func newAccount() domain.Account {
	return domain.Account{
		Key:         "xpub-key",
		Symbol:      "regtest",
		DeviceState: "device-1",
		Path:        "m/10025'/1'/0'/1'",
		BackendType: domain.BackendTypeCoinjoin,
		Status:      domain.AccountStatusReady,
	}
}

func TestCoinjoinAccountSessions(t *testing.T) {
	t.Parallel()

	account := domain.NewCoinjoinAccount(newAccount(), 3, 10)
	require.Equal(t, "xpub-key", account.Key)
	require.Equal(t, domain.AccountStatusInitial, account.Status)
	require.Equal(t, 3, account.TargetAnonymity)
	require.False(t, account.HasSession())

	session, err := account.StartSession(sessionParams, 100, 20)
	require.NoError(t, err)
	require.True(t, account.HasSession())
	require.Equal(t, sessionParams.TargetAnonymity, account.TargetAnonymity)

	_, err = account.StartSession(sessionParams, 100, 20)
	require.ErrorIs(t, err, domain.ErrSessionAlreadyExists)

	require.NoError(t, account.Session.SetRound(
		domain.Round{ID: "r1", Phase: domain.RoundPhaseConnectionConfirmation}, 100,
	))
	require.True(t, account.IsInCriticalPhase())

	account.StopSession()
	require.False(t, account.HasSession())
	require.Len(t, account.PreviousSessions, 1)
	require.Equal(t, session.ID, account.PreviousSessions[0].ID)

	// Stopping without a session is a no-op.
	account.StopSession()
	require.Len(t, account.PreviousSessions, 1)

	_, err = account.StartSession(sessionParams, 100, 20)
	require.NoError(t, err)
	account.RemoveSession()
	require.False(t, account.HasSession())
	require.Len(t, account.PreviousSessions, 1)
}

func TestFixLoadedCoinjoinAccount(t *testing.T) {
	t.Parallel()

	t.Run("ready_and_syncing", func(t *testing.T) {
		account := domain.NewCoinjoinAccount(newAccount(), 5, 1)
		account.Status = domain.AccountStatusReady
		account.Syncing = true

		fixed := domain.FixLoadedCoinjoinAccount(*account)
		require.Equal(t, domain.AccountStatusOutOfSync, fixed.Status)
		require.False(t, fixed.Syncing)
	})

	t.Run("status", func(t *testing.T) {
		tests := []struct {
			status   domain.AccountStatus
			expected domain.AccountStatus
		}{
			{domain.AccountStatusReady, domain.AccountStatusOutOfSync},
			{domain.AccountStatusError, domain.AccountStatusInitial},
			{domain.AccountStatusInitial, domain.AccountStatusInitial},
			{domain.AccountStatusOutOfSync, domain.AccountStatusOutOfSync},
		}
		for _, tt := range tests {
			account := domain.NewCoinjoinAccount(newAccount(), 5, 1)
			account.Status = tt.status
			fixed := domain.FixLoadedCoinjoinAccount(*account)
			require.Equal(t, tt.expected, fixed.Status)
		}
	})

	t.Run("session", func(t *testing.T) {
		account := domain.NewCoinjoinAccount(newAccount(), 5, 1)
		session, err := account.StartSession(sessionParams, 100, 1)
		require.NoError(t, err)
		require.NoError(t, session.SetRound(
			domain.Round{ID: "r1", Phase: domain.RoundPhaseTransactionSigning}, 50,
		))
		session.DeferInterrupt(2)

		fixed := domain.FixLoadedCoinjoinAccount(*account)
		require.True(t, fixed.HasPausedInterruptedSession())
		require.False(t, fixed.Session.InterruptPending)
		require.Nil(t, fixed.Session.Round)
		require.Nil(t, fixed.Session.Phase)
		require.NoError(t, fixed.Session.Validate())

		// The original account is left untouched.
		require.NotNil(t, account.Session.Round)
		require.False(t, account.Session.Interrupted)
	})
}

func TestAccount(t *testing.T) {
	t.Parallel()

	txid := strings.Repeat("0", 62) + "ab"
	outpoint := "ab" + strings.Repeat("00", 31) + "02000000"
	require.Equal(t, outpoint, domain.Outpoint(txid, 2))
	require.Empty(t, domain.Outpoint("zz", 2))

	account := newAccount()
	account.Utxos = []domain.Utxo{{Txid: txid, Vout: 2, Amount: "1000"}}
	account.Addresses.Change = []domain.Address{{Address: "change"}}

	utxo, ok := account.FindUtxoByOutpoint(outpoint)
	require.True(t, ok)
	require.Equal(t, account.Utxos[0], utxo)
	_, ok = account.FindUtxoByOutpoint(domain.Outpoint(txid, 3))
	require.False(t, ok)
	require.False(t, utxo.IsConfirmed())

	require.True(t, account.IsChangeAddress("change"))
	require.False(t, account.IsChangeAddress("other"))
	require.True(t, account.IsCoinjoin())
	require.True(t, account.IsTaproot())

	tests := []struct {
		path    string
		purpose int
	}{
		{"m/86'/0'/0'", domain.PurposeBIP86},
		{"m/84h/1h/0h", domain.PurposeBIP84},
		{"m/10025'/1'/0'/1'", domain.PurposeSLIP25},
		{"86'/0'/0'", -1},
		{"m", -1},
		{"m/abc'", -1},
	}
	for _, tt := range tests {
		require.Equal(t, tt.purpose, domain.PathPurpose(tt.path), tt.path)
	}

	account.Path = "m/84'/1'/0'"
	require.False(t, account.IsTaproot())
}
