package pubsub

import "errors"

var (
	// ErrNullRepository specifies that a webhook repository is required.
	ErrNullRepository = errors.New("webhook repository must not be null")
	// ErrUnknownAction is returned whenever attempting to subscribe to an
	// unknown action type.
	ErrUnknownAction = errors.New("action type is unknown")
)
