package db_test

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	dbbadger "github.com/tdex-network/coinjoind/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/coinjoind/internal/infrastructure/storage/db/inmemory"
)

type repoManager struct {
	ports.RepoManager
	Name string
}

func createRepoManagers(t *testing.T) []repoManager {
	badgerInMemory, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	badgerOnDisk, err := dbbadger.NewRepoManager(t.TempDir(), nil)
	require.NoError(t, err)

	managers := []repoManager{
		{inmemory.NewRepoManager(), "inmemory"},
		{badgerInMemory, "badger_inmemory"},
		{badgerOnDisk, "badger"},
	}
	t.Cleanup(func() {
		for _, m := range managers {
			m.Close()
		}
	})
	return managers
}

func makeRandomAccount(symbol string) domain.CoinjoinAccount {
	account := domain.NewCoinjoinAccount(domain.Account{
		Key:         randomHex(16),
		Symbol:      symbol,
		DeviceState: randomHex(8),
	}, randomIntInRange(1, 50), randomTimestamp())
	return *account
}

func makeRandomSessionParams() domain.SessionParameters {
	return domain.SessionParameters{
		TargetAnonymity:       randomIntInRange(1, 50),
		MaxRounds:             randomIntInRange(1, 20),
		SkipRounds:            &domain.SkipRounds{Numerator: 4, Denominator: 5},
		MaxFeePerKvbyte:       uint64(randomIntInRange(1000, 10000)),
		MaxCoordinatorFeeRate: 300000,
	}
}

func randomTimestamp() int64 {
	return int64(randomIntInRange(1000000000, 1662688000))
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}

func randomIntInRange(min, max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max-min)))
	return int(n.Int64()) + min
}
