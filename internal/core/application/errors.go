package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/coinjoind/internal/core/domain"
)

var (
	// ErrClientNotFound is returned when no coordinator client exists for a
	// network.
	ErrClientNotFound = errors.New("coordinator client not found")
	// ErrClientNotEnabled is returned when trying to use a client that did
	// not complete the handshake.
	ErrClientNotEnabled = errors.New("coordinator client not enabled")
	// ErrWalletAccountNotFound ...
	ErrWalletAccountNotFound = errors.New("wallet account not found")
	// ErrNotCoinjoinAccount ...
	ErrNotCoinjoinAccount = errors.New("account is not a coinjoin account")
	// ErrStaleSession is returned when a response from the coordinator or the
	// device refers to a session that was stopped or replaced meanwhile.
	ErrStaleSession = errors.New("session changed while waiting for response")
	// ErrCoordinatorFeeTooHigh ...
	ErrCoordinatorFeeTooHigh = errors.New("coordinator fee rate above session limit")
	// ErrNoRegistrableUtxos ...
	ErrNoRegistrableUtxos = errors.New("account has no registrable utxos")
)

// ClassifyCoordinatorError maps an error returned by a coordinator client
// into the error taxonomy of the domain. Errors already classified, as well
// as context errors, are returned unchanged.
func ClassifyCoordinatorError(err error, roundInProgress bool) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		domain.ErrUnsupportedNetwork,
		domain.ErrRegistrationFailure,
		domain.ErrTransientCoordinator,
		domain.ErrValidation,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) || roundInProgress {
		return fmt.Errorf("%w: %s", domain.ErrTransientCoordinator, err)
	}
	return fmt.Errorf("%w: %s", domain.ErrRegistrationFailure, err)
}
