package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/coinjoind/internal/core/domain"
)

// CoinjoinAccountRepositoryImpl represents an in memory storage
type CoinjoinAccountRepositoryImpl struct {
	accounts map[string]domain.CoinjoinAccount
	lock     *sync.RWMutex
}

// NewCoinjoinAccountRepositoryImpl returns a new empty
// CoinjoinAccountRepositoryImpl
func NewCoinjoinAccountRepositoryImpl() domain.CoinjoinAccountRepository {
	return &CoinjoinAccountRepositoryImpl{
		accounts: make(map[string]domain.CoinjoinAccount),
		lock:     &sync.RWMutex{},
	}
}

func (r *CoinjoinAccountRepositoryImpl) AddAccount(
	_ context.Context, account domain.CoinjoinAccount,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.accounts[account.Key]; ok {
		return domain.ErrAccountAlreadyExists
	}
	r.accounts[account.Key] = copyAccount(account)
	return nil
}

func (r *CoinjoinAccountRepositoryImpl) GetAccount(
	_ context.Context, key string,
) (*domain.CoinjoinAccount, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	account, ok := r.accounts[key]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	acc := copyAccount(account)
	return &acc, nil
}

func (r *CoinjoinAccountRepositoryImpl) GetAllAccounts(
	_ context.Context,
) ([]domain.CoinjoinAccount, error) {
	return r.findAccounts(func(domain.CoinjoinAccount) bool { return true }), nil
}

func (r *CoinjoinAccountRepositoryImpl) GetAccountsByNetwork(
	_ context.Context, symbol string,
) ([]domain.CoinjoinAccount, error) {
	return r.findAccounts(func(a domain.CoinjoinAccount) bool {
		return a.Symbol == symbol
	}), nil
}

// UpdateAccount updates data of the account with the given key passing an
// update function
func (r *CoinjoinAccountRepositoryImpl) UpdateAccount(
	_ context.Context,
	key string,
	updateFn func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	account, ok := r.accounts[key]
	if !ok {
		return domain.ErrAccountNotFound
	}

	acc := copyAccount(account)
	updatedAccount, err := updateFn(&acc)
	if err != nil {
		return err
	}

	r.accounts[key] = copyAccount(*updatedAccount)
	return nil
}

func (r *CoinjoinAccountRepositoryImpl) DeleteAccount(
	_ context.Context, key string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.accounts, key)
	return nil
}

func (r *CoinjoinAccountRepositoryImpl) findAccounts(
	filter func(domain.CoinjoinAccount) bool,
) []domain.CoinjoinAccount {
	r.lock.RLock()
	defer r.lock.RUnlock()

	accounts := make([]domain.CoinjoinAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		if filter(a) {
			accounts = append(accounts, copyAccount(a))
		}
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].Key < accounts[j].Key
	})
	return accounts
}

// copyAccount deep copies the account so that callers can't mutate the
// stored one through pointers.
func copyAccount(a domain.CoinjoinAccount) domain.CoinjoinAccount {
	if a.RawLiquidityClue != nil {
		clue := *a.RawLiquidityClue
		a.RawLiquidityClue = &clue
	}
	if a.Session != nil {
		session := copySession(*a.Session)
		a.Session = &session
	}
	if a.PreviousSessions != nil {
		sessions := make([]domain.CoinjoinSession, 0, len(a.PreviousSessions))
		for _, s := range a.PreviousSessions {
			sessions = append(sessions, copySession(s))
		}
		a.PreviousSessions = sessions
	}
	if a.LastRound != nil {
		round := *a.LastRound
		a.LastRound = &round
	}
	return a
}

func copySession(s domain.CoinjoinSession) domain.CoinjoinSession {
	if s.Parameters.SkipRounds != nil {
		skip := *s.Parameters.SkipRounds
		s.Parameters.SkipRounds = &skip
	}
	if s.Round != nil {
		round := *s.Round
		s.Round = &round
	}
	if s.Phase != nil {
		phase := *s.Phase
		s.Phase = &phase
	}
	if s.SignedRounds != nil {
		s.SignedRounds = append([]string{}, s.SignedRounds...)
	}
	return s
}
