package application_test

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/coinjoind/internal/core/application"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	"github.com/tdex-network/coinjoind/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/coinjoind/pkg/anonymity"
)

const (
	testNetwork     = "regtest"
	testDeviceState = "device-1"
	testAccountPath = "m/86'/1'/25'"
)

var (
	testNet = &chaincfg.RegressionNetParams

	testSessionParams = domain.SessionParameters{
		TargetAnonymity:       5,
		MaxRounds:             10,
		MaxFeePerKvbyte:       129000,
		MaxCoordinatorFeeRate: 300000,
	}
)

func testCoordinatorStatus() *domain.CoordinatorStatus {
	return &domain.CoordinatorStatus{
		Rounds:             []domain.Round{{ID: "round-0", Phase: domain.RoundPhaseInputRegistration}},
		MaxMiningFee:       129000,
		CoordinatorFeeRate: 300000,
		AllowedInputAmounts: domain.AllowedInputAmounts{
			Min: 5000,
			Max: 134375000000,
		},
	}
}

func randomHex(t *testing.T, size int) string {
	b := make([]byte, size)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return hex.EncodeToString(b)
}

func randomTxid(t *testing.T) string {
	return randomHex(t, 32)
}

func randomAddress(t *testing.T) string {
	b := make([]byte, 20)
	_, err := rand.Read(b)
	require.NoError(t, err)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(b, testNet)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

// newWalletAccount returns a ready taproot coinjoin account with two
// confirmed utxos and one unused change address.
func newWalletAccount(t *testing.T, key string) domain.Account {
	addr1, addr2, change := randomAddress(t), randomAddress(t), randomAddress(t)
	return domain.Account{
		Key:         key,
		Symbol:      testNetwork,
		DeviceState: testDeviceState,
		Path:        testAccountPath,
		AccountType: "coinjoin",
		BackendType: domain.BackendTypeCoinjoin,
		Status:      domain.AccountStatusReady,
		Utxos: []domain.Utxo{
			{
				Txid:          randomTxid(t),
				Vout:          0,
				Address:       addr1,
				Path:          testAccountPath + "/0/0",
				Amount:        "100000",
				Confirmations: 3,
			},
			{
				Txid:          randomTxid(t),
				Vout:          1,
				Address:       addr2,
				Path:          testAccountPath + "/0/1",
				Amount:        "250000",
				Confirmations: 1,
			},
		},
		Addresses: domain.Addresses{
			Change: []domain.Address{
				{Address: change, Path: testAccountPath + "/1/0"},
			},
			AnonymitySet: map[string]int{addr1: 1, addr2: 7},
		},
	}
}

type testEnv struct {
	svc      application.CoinjoinService
	repo     ports.RepoManager
	registry *application.ClientRegistry
	wallet   *walletStore
	factory  *mockFactory
	client   *mockClient
	backend  *mockBackend
	device   *mockDevice
	recorder *actionRecorder
}

// newBareTestEnv returns a service for the regtest network only, without
// any expectation on the coordinator handshake.
func newBareTestEnv(t *testing.T, accounts ...domain.Account) *testEnv {
	factory := newMockFactory()
	client, backend := factory.add(testNetwork)
	client.On("UnregisterAccount", mock.Anything).Return(nil).Maybe()
	client.On("UpdateAccount", mock.Anything, mock.Anything).Return(nil).Maybe()

	registry, err := application.NewClientRegistry(
		factory, []string{testNetwork}, nil,
	)
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	repo := inmemory.NewRepoManager()
	wallet := newWalletStore(accounts...)
	device := &mockDevice{}
	recorder := &actionRecorder{}

	svc, err := application.NewCoinjoinService(
		repo, wallet, device, registry, anonymity.DefaultEstimates, 0, 5, recorder,
	)
	require.NoError(t, err)

	return &testEnv{
		svc:      svc,
		repo:     repo,
		registry: registry,
		wallet:   wallet,
		factory:  factory,
		client:   client,
		backend:  backend,
		device:   device,
		recorder: recorder,
	}
}

func newTestEnv(t *testing.T, accounts ...domain.Account) *testEnv {
	env := newBareTestEnv(t, accounts...)
	env.client.On("Enable").Return(testCoordinatorStatus(), nil).Maybe()
	return env
}

// withAccount creates the coinjoin account for the given wallet account and
// clears the recorded actions.
func (e *testEnv) withAccount(t *testing.T, account domain.Account) {
	_, err := e.svc.CreateCoinjoinAccount(ctx, account, 0)
	require.NoError(t, err)
	e.recorder.reset()
}

// withSession starts a session for the given account, the device and the
// coordinator accepting it, and clears the recorded actions.
func (e *testEnv) withSession(
	t *testing.T, accountKey string, params domain.SessionParameters,
) {
	e.device.On("AuthorizeCoinjoin", mock.Anything).Return(nil).Maybe()
	e.client.On("RegisterAccount", mock.Anything).Return(nil).Maybe()
	require.NoError(t, e.svc.StartCoinjoinSession(ctx, accountKey, params))
	e.recorder.reset()
}

func (e *testEnv) session(t *testing.T, accountKey string) *domain.CoinjoinSession {
	account, err := e.svc.GetCoinjoinAccount(ctx, accountKey)
	require.NoError(t, err)
	return account.Session
}
