package dbbadger

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const gcInterval = 30 * time.Minute

type repoManager struct {
	stores []*badgerhold.Store
	done   chan struct{}

	accountRepository  domain.CoinjoinAccountRepository
	settingsRepository domain.DebugSettingsRepository
	webhookRepository  domain.WebhookRepository
}

// NewRepoManager opens (or creates if not exists) the badger stores in the
// given base directory. All stores are kept in memory if the directory is
// empty.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var accountsDir, settingsDir string
	if len(baseDbDir) > 0 {
		accountsDir = filepath.Join(baseDbDir, "accounts")
		settingsDir = filepath.Join(baseDbDir, "settings")
	}

	done := make(chan struct{})
	accountsDb, err := createDb(accountsDir, logger, done)
	if err != nil {
		return nil, fmt.Errorf("opening accounts db: %w", err)
	}
	settingsDb, err := createDb(settingsDir, logger, done)
	if err != nil {
		close(done)
		accountsDb.Close()
		return nil, fmt.Errorf("opening settings db: %w", err)
	}

	return &repoManager{
		stores:             []*badgerhold.Store{accountsDb, settingsDb},
		done:               done,
		accountRepository:  NewCoinjoinAccountRepositoryImpl(accountsDb),
		settingsRepository: NewDebugSettingsRepositoryImpl(settingsDb),
		webhookRepository:  NewWebhookRepositoryImpl(settingsDb),
	}, nil
}

func (r *repoManager) CoinjoinAccountRepository() domain.CoinjoinAccountRepository {
	return r.accountRepository
}

func (r *repoManager) DebugSettingsRepository() domain.DebugSettingsRepository {
	return r.settingsRepository
}

func (r *repoManager) WebhookRepository() domain.WebhookRepository {
	return r.webhookRepository
}

func (r *repoManager) Close() {
	close(r.done)
	for _, store := range r.stores {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close badger store")
		}
	}
}

func createDb(
	dbDir string, logger badger.Logger, done chan struct{},
) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(gcInterval)

		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := db.Badger().RunValueLogGC(0.5); err != nil &&
						err != badger.ErrNoRewrite {
						log.Error(err)
					}
				}
			}
		}()
	}

	return db, nil
}
