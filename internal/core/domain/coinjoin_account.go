package domain

// CoinjoinAccount holds the coinjoin state of a wallet account, identified
// by the same key.
type CoinjoinAccount struct {
	Key              string
	Symbol           string
	DeviceState      string
	Status           AccountStatus
	Syncing          bool
	TargetAnonymity  int
	RawLiquidityClue *uint64
	Session          *CoinjoinSession
	PreviousSessions []CoinjoinSession
	LastRound        *RoundStatus
	CreatedAt        int64
}

// NewCoinjoinAccount ...
func NewCoinjoinAccount(
	account Account, targetAnonymity int, now int64,
) *CoinjoinAccount {
	return &CoinjoinAccount{
		Key:             account.Key,
		Symbol:          account.Symbol,
		DeviceState:     account.DeviceState,
		Status:          AccountStatusInitial,
		TargetAnonymity: targetAnonymity,
		CreatedAt:       now,
	}
}

// StartSession attaches a new session to the account. Only one session per
// account is allowed.
func (a *CoinjoinAccount) StartSession(
	params SessionParameters, sessionDeadline, now int64,
) (*CoinjoinSession, error) {
	if a.Session != nil {
		return nil, ErrSessionAlreadyExists
	}
	session, err := NewCoinjoinSession(params, sessionDeadline, now)
	if err != nil {
		return nil, err
	}
	a.Session = session
	a.TargetAnonymity = params.TargetAnonymity
	return session, nil
}

// StopSession moves the current session, if any, to the history of previous
// sessions.
func (a *CoinjoinAccount) StopSession() {
	if a.Session == nil {
		return
	}
	a.PreviousSessions = append(a.PreviousSessions, *a.Session)
	a.Session = nil
}

// RemoveSession drops the current session without keeping track of it.
// Used when a session failed to start.
func (a *CoinjoinAccount) RemoveSession() {
	a.Session = nil
}

// HasSession ...
func (a *CoinjoinAccount) HasSession() bool {
	return a.Session != nil
}

// IsInCriticalPhase ...
func (a *CoinjoinAccount) IsInCriticalPhase() bool {
	return a.Session != nil && a.Session.IsInCriticalPhase()
}

// HasPausedInterruptedSession returns whether the account has a session
// interrupted and not already being restarted.
func (a *CoinjoinAccount) HasPausedInterruptedSession() bool {
	return a.Session != nil && a.Session.IsPausedInterrupted()
}

// SetRoundStatus records the last known round snapshot of the account.
func (a *CoinjoinAccount) SetRoundStatus(round Round, phaseDeadline, now int64) {
	a.LastRound = &RoundStatus{
		Round:         round,
		PhaseDeadline: phaseDeadline,
		UpdatedAt:     now,
	}
}

// FixLoadedCoinjoinAccount adjusts an account restored from storage.
// Accounts discovered before being stored are out-of-sync until rescanned,
// those that never completed a discovery fall back to initial. A sync in
// progress and coordinator registrations can't survive a restart, therefore
// any session is brought to the paused and interrupted state.
func FixLoadedCoinjoinAccount(account CoinjoinAccount) CoinjoinAccount {
	switch account.Status {
	case AccountStatusReady:
		account.Status = AccountStatusOutOfSync
	case AccountStatusError:
		account.Status = AccountStatusInitial
	}
	account.Syncing = false

	if account.Session != nil {
		session := *account.Session
		session.Paused = true
		session.Interrupted = true
		session.Starting = false
		session.InterruptPending = false
		session.Round = nil
		session.Phase = nil
		session.RoundPhaseDeadline = 0
		account.Session = &session
	}
	return account
}
