package domain

import "context"

// CoinjoinAccountRepository is the abstraction for the storage of coinjoin
// accounts and their sessions.
type CoinjoinAccountRepository interface {
	// AddAccount stores a new account, ErrAccountAlreadyExists is returned if
	// one with the same key exists.
	AddAccount(ctx context.Context, account CoinjoinAccount) error
	// GetAccount returns the account with the given key or
	// ErrAccountNotFound.
	GetAccount(ctx context.Context, key string) (*CoinjoinAccount, error)
	// GetAllAccounts returns all stored accounts, sorted by key.
	GetAllAccounts(ctx context.Context) ([]CoinjoinAccount, error)
	// GetAccountsByNetwork returns all accounts of the given network.
	GetAccountsByNetwork(ctx context.Context, symbol string) ([]CoinjoinAccount, error)
	// UpdateAccount applies updateFn to the account with the given key and
	// stores the result.
	UpdateAccount(
		ctx context.Context,
		key string,
		updateFn func(a *CoinjoinAccount) (*CoinjoinAccount, error),
	) error
	// DeleteAccount removes the account, deleting a missing account is a
	// no-op.
	DeleteAccount(ctx context.Context, key string) error
}

// DebugSettings are developer settings persisted across restarts.
type DebugSettings struct {
	CoordinatorURLs map[string]string
	DisableTor      bool
	LogRounds       bool
}

// DebugSettingsRepository ...
type DebugSettingsRepository interface {
	GetDebugSettings(ctx context.Context) (*DebugSettings, error)
	SaveDebugSettings(ctx context.Context, settings DebugSettings) error
}
