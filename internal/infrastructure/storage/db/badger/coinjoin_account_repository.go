package dbbadger

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type coinjoinAccountRepositoryImpl struct {
	store *badgerhold.Store
	lock  *sync.Mutex
}

// NewCoinjoinAccountRepositoryImpl returns a badger implementation of the
// domain.CoinjoinAccountRepository. Accounts are stored by key.
func NewCoinjoinAccountRepositoryImpl(
	store *badgerhold.Store,
) domain.CoinjoinAccountRepository {
	return &coinjoinAccountRepositoryImpl{store, &sync.Mutex{}}
}

func (r *coinjoinAccountRepositoryImpl) AddAccount(
	_ context.Context, account domain.CoinjoinAccount,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.store.Insert(account.Key, account); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrAccountAlreadyExists
		}
		return err
	}
	return nil
}

func (r *coinjoinAccountRepositoryImpl) GetAccount(
	_ context.Context, key string,
) (*domain.CoinjoinAccount, error) {
	return r.getAccount(key)
}

func (r *coinjoinAccountRepositoryImpl) GetAllAccounts(
	_ context.Context,
) ([]domain.CoinjoinAccount, error) {
	return r.findAccounts(nil)
}

func (r *coinjoinAccountRepositoryImpl) GetAccountsByNetwork(
	_ context.Context, symbol string,
) ([]domain.CoinjoinAccount, error) {
	return r.findAccounts(badgerhold.Where("Symbol").Eq(symbol))
}

func (r *coinjoinAccountRepositoryImpl) UpdateAccount(
	_ context.Context,
	key string,
	updateFn func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	account, err := r.getAccount(key)
	if err != nil {
		return err
	}

	updatedAccount, err := updateFn(account)
	if err != nil {
		return err
	}

	return r.store.Update(key, *updatedAccount)
}

func (r *coinjoinAccountRepositoryImpl) DeleteAccount(
	_ context.Context, key string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.store.Delete(key, domain.CoinjoinAccount{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}
	return nil
}

func (r *coinjoinAccountRepositoryImpl) getAccount(
	key string,
) (*domain.CoinjoinAccount, error) {
	var account domain.CoinjoinAccount
	if err := r.store.Get(key, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *coinjoinAccountRepositoryImpl) findAccounts(
	query *badgerhold.Query,
) ([]domain.CoinjoinAccount, error) {
	var accounts []domain.CoinjoinAccount
	if err := r.store.Find(&accounts, query); err != nil {
		return nil, err
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].Key < accounts[j].Key
	})
	return accounts, nil
}
