package domain

import "errors"

var (
	// ErrUnsupportedNetwork is returned when the requested network is not
	// enabled for coinjoin.
	ErrUnsupportedNetwork = errors.New("network not supported for coinjoin")
	// ErrRegistrationFailure is returned when the coordinator rejects the
	// client handshake or the registration of an account.
	ErrRegistrationFailure = errors.New("coordinator rejected registration")
	// ErrTransientCoordinator is returned for coordinator errors happening
	// while a round is in progress.
	ErrTransientCoordinator = errors.New("transient coordinator error")
	// ErrValidation is returned when coordinator transaction data can't be
	// turned into a signable request.
	ErrValidation = errors.New("invalid coinjoin transaction data")

	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("coinjoin account not found")
	// ErrAccountAlreadyExists ...
	ErrAccountAlreadyExists = errors.New("coinjoin account already exists")
	// ErrSessionNotFound ...
	ErrSessionNotFound = errors.New("coinjoin session not found")
	// ErrSessionAlreadyExists is returned when trying to start a session for an
	// account that already has one.
	ErrSessionAlreadyExists = errors.New("coinjoin session already exists")
	// ErrSessionInterrupted is returned when a round event targets a session
	// that lost its coordinator registration.
	ErrSessionInterrupted = errors.New("coinjoin session is interrupted")
	// ErrSessionNotPaused ...
	ErrSessionNotPaused = errors.New("coinjoin session is not paused")
	// ErrSessionPaused ...
	ErrSessionPaused = errors.New("coinjoin session is paused")
	// ErrRoundPhaseRegression is returned when a round event would move phase
	// or deadline backwards within the same round.
	ErrRoundPhaseRegression = errors.New("round phase can't move backwards")
	// ErrInvalidRoundPhase ...
	ErrInvalidRoundPhase = errors.New("invalid round phase")
	// ErrInvalidSessionPhase ...
	ErrInvalidSessionPhase = errors.New("invalid session phase")
	// ErrInvalidSession is returned by Validate for sessions breaking the
	// starting/paused/interrupted invariant.
	ErrInvalidSession = errors.New("session without round must be starting, paused or interrupted")
	// ErrWebhookNotFound ...
	ErrWebhookNotFound = errors.New("webhook not found")
	// ErrWebhookAlreadyExists ...
	ErrWebhookAlreadyExists = errors.New("webhook already exists")
	// ErrInvalidWebhook is returned for webhooks without action type or with
	// a malformed endpoint.
	ErrInvalidWebhook = errors.New("webhook must have an action type and a valid endpoint uri")
	// ErrInvalidSessionParameters ...
	ErrInvalidSessionParameters = errors.New("invalid session parameters")
)
