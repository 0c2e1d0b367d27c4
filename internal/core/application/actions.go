package application

// Types of the actions emitted by the coinjoin service.
const (
	ActionClientEnable        = "CLIENT_ENABLE"
	ActionClientEnableSuccess = "CLIENT_ENABLE_SUCCESS"
	ActionClientEnableFailed  = "CLIENT_ENABLE_FAILED"
	ActionClientStatus        = "CLIENT_STATUS"
	ActionClientRemove        = "CLIENT_REMOVE"

	ActionAccountCreate       = "ACCOUNT_CREATE"
	ActionAccountRemove       = "ACCOUNT_REMOVE"
	ActionAccountSyncStart    = "ACCOUNT_SYNC_START"
	ActionAccountUpdateStatus = "ACCOUNT_UPDATE_STATUS"
	ActionAccountUpdate       = "ACCOUNT_UPDATE"

	ActionSessionStarting      = "SESSION_STARTING"
	ActionAuthorizeFailed      = "AUTHORIZE_FAILED"
	ActionSessionStartFailed   = "SESSION_START_FAILED"
	ActionSessionStart         = "SESSION_START"
	ActionSessionStop          = "SESSION_STOP"
	ActionSessionPause         = "SESSION_PAUSE"
	ActionSessionRestore       = "SESSION_RESTORE"
	ActionSessionRoundChanged  = "SESSION_ROUND_CHANGED"
	ActionSessionPhase         = "SESSION_PHASE"
	ActionSessionTxSigned      = "SESSION_TX_SIGNED"
	ActionSessionTxFailed      = "SESSION_TX_FAILED"
	ActionSessionCompleted     = "SESSION_COMPLETED"
	ActionDebugSettingsChanged = "DEBUG_SETTINGS_CHANGED"
)

// ActionTypes is the set of all the action types notified to observers.
var ActionTypes = map[string]struct{}{
	ActionClientEnable:         {},
	ActionClientEnableSuccess:  {},
	ActionClientEnableFailed:   {},
	ActionClientStatus:         {},
	ActionClientRemove:         {},
	ActionAccountCreate:        {},
	ActionAccountRemove:        {},
	ActionAccountSyncStart:     {},
	ActionAccountUpdateStatus:  {},
	ActionAccountUpdate:        {},
	ActionSessionStarting:      {},
	ActionAuthorizeFailed:      {},
	ActionSessionStartFailed:   {},
	ActionSessionStart:         {},
	ActionSessionStop:          {},
	ActionSessionPause:         {},
	ActionSessionRestore:       {},
	ActionSessionRoundChanged:  {},
	ActionSessionPhase:         {},
	ActionSessionTxSigned:      {},
	ActionSessionTxFailed:      {},
	ActionSessionCompleted:     {},
	ActionDebugSettingsChanged: {},
}

// SessionPausePayload ...
type SessionPausePayload struct {
	Interrupt        bool
	InterruptPending bool
}

// SessionFailurePayload ...
type SessionFailurePayload struct {
	Reason string
}

// AccountStatusPayload ...
type AccountStatusPayload struct {
	Status  string
	Syncing bool
}

// RoundChangedPayload ...
type RoundChangedPayload struct {
	RoundID       string
	Phase         string
	PhaseDeadline int64
}

// SessionPhasePayload ...
type SessionPhasePayload struct {
	Phase int
	Round string
	Step  int
}

// TxSignedPayload ...
type TxSignedPayload struct {
	RoundID       string
	SignedInputs  int
	SignedRounds  int
	MaxRounds     int
	SessionPaused bool
}
