package ports

import (
	"context"

	"github.com/tdex-network/coinjoind/internal/core/domain"
)

// Device is the hardware wallet owning the coinjoin accounts.
type Device interface {
	// AuthorizeCoinjoin asks the user to authorize the device to sign
	// coinjoin transactions within the given limits.
	AuthorizeCoinjoin(ctx context.Context, req AuthorizeCoinjoinRequest) error
	// SignTransaction signs the internal inputs of the request.
	SignTransaction(
		ctx context.Context, req domain.SignRequest,
	) (*domain.SignResult, error)
}

// AuthorizeCoinjoinRequest ...
type AuthorizeCoinjoinRequest struct {
	DeviceState           string
	Path                  string
	ScriptType            string
	MaxRounds             int
	MaxCoordinatorFeeRate uint64
	MaxFeePerKvbyte       uint64
}
