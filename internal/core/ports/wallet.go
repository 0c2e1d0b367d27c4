package ports

import (
	"context"

	"github.com/tdex-network/coinjoind/internal/core/domain"
)

// WalletAccountStore is the store of the wallet accounts, the owner of the
// account data discovered by the backend.
type WalletAccountStore interface {
	// GetAccount returns the account with the given key, or nil if not found.
	GetAccount(ctx context.Context, key string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, account domain.Account) error
}
