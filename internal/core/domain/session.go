package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// SkipRounds is the ratio of rounds a session randomly skips, ie. {4, 5}
// means that 4 rounds out of 5 are skipped.
type SkipRounds struct {
	Numerator   int
	Denominator int
}

// SessionParameters are the user-defined settings of a coinjoin session.
// MaxCoordinatorFeeRate uses the same unit of the coordinator fee rate, a
// fraction scaled by 10^8.
type SessionParameters struct {
	TargetAnonymity       int
	MaxRounds             int
	SkipRounds            *SkipRounds
	MaxFeePerKvbyte       uint64
	MaxCoordinatorFeeRate uint64
}

// Validate ...
func (p SessionParameters) Validate() error {
	if p.TargetAnonymity < 1 {
		return fmt.Errorf("%w: target anonymity must be at least 1", ErrInvalidSessionParameters)
	}
	if p.MaxRounds <= 0 {
		return fmt.Errorf("%w: max rounds must be positive", ErrInvalidSessionParameters)
	}
	if s := p.SkipRounds; s != nil {
		if s.Numerator < 0 || s.Denominator <= 0 || s.Numerator >= s.Denominator {
			return fmt.Errorf("%w: invalid skip rounds ratio", ErrInvalidSessionParameters)
		}
	}
	return nil
}

// CoinjoinSession is the active participation of an account to coinjoin
// rounds. Timestamps and deadlines are unix seconds.
type CoinjoinSession struct {
	ID                 string
	Parameters         SessionParameters
	SessionDeadline    int64
	RoundPhaseDeadline int64
	Round              *Round
	Phase              *SessionPhase
	Paused             bool
	Starting           bool
	Interrupted        bool
	InterruptPending   bool
	SignedRounds       []string
	StartedAt          int64
	PausedAt           int64
}

// NewCoinjoinSession returns a session in starting status, waiting for the
// coordinator registration to complete.
func NewCoinjoinSession(
	params SessionParameters, sessionDeadline, now int64,
) (*CoinjoinSession, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &CoinjoinSession{
		ID:              uuid.New().String(),
		Parameters:      params,
		SessionDeadline: sessionDeadline,
		Starting:        true,
		StartedAt:       now,
	}, nil
}

// Pause suspends the session. With interrupt, the session is also marked as
// having lost its coordinator registration, therefore any round reference is
// dropped.
func (s *CoinjoinSession) Pause(interrupt bool, now int64) {
	if !s.Paused {
		s.PausedAt = now
	}
	s.Paused = true
	s.Starting = false
	if interrupt {
		s.Interrupted = true
		s.InterruptPending = false
		s.Round = nil
		s.Phase = nil
		s.RoundPhaseDeadline = 0
	}
}

// DeferInterrupt pauses the session while keeping its registration until
// the current round leaves the critical phase.
func (s *CoinjoinSession) DeferInterrupt(now int64) {
	s.Pause(false, now)
	s.InterruptPending = true
}

// Resume brings a paused session back to activity. Interrupted sessions, as
// well as those without a round, go back to starting since they need the
// coordinator to (re)assign them a round.
func (s *CoinjoinSession) Resume() error {
	if !s.Paused && !s.Interrupted {
		return ErrSessionNotPaused
	}
	s.Starting = s.Interrupted || s.Round == nil
	s.Paused = false
	s.PausedAt = 0
	s.Interrupted = false
	s.InterruptPending = false
	return nil
}

// SetRound records a round phase change. Within the same round, neither the
// phase nor its deadline can move backwards.
func (s *CoinjoinSession) SetRound(round Round, phaseDeadline int64) error {
	if !round.Phase.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidRoundPhase, int(round.Phase))
	}
	if s.Interrupted {
		return ErrSessionInterrupted
	}

	if s.Round != nil && s.Round.ID == round.ID {
		if round.Phase < s.Round.Phase {
			return fmt.Errorf(
				"%w: %s -> %s", ErrRoundPhaseRegression, s.Round.Phase, round.Phase,
			)
		}
		if phaseDeadline > 0 && phaseDeadline < s.RoundPhaseDeadline {
			return fmt.Errorf(
				"%w: deadline %d before %d",
				ErrRoundPhaseRegression, phaseDeadline, s.RoundPhaseDeadline,
			)
		}
		if phaseDeadline <= 0 {
			phaseDeadline = s.RoundPhaseDeadline
		}
	}

	phase := FirstSessionPhase(round.Phase)
	s.Round = &Round{ID: round.ID, Phase: round.Phase}
	s.Phase = &phase
	s.RoundPhaseDeadline = phaseDeadline
	s.Starting = false
	return nil
}

// SetPhase records a session-internal phase refinement.
func (s *CoinjoinSession) SetPhase(phase SessionPhase) error {
	if !phase.Round.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidSessionPhase, phase.Code())
	}
	s.Phase = &phase
	return nil
}

// AddSignedRound ...
func (s *CoinjoinSession) AddSignedRound(roundID string) {
	for _, id := range s.SignedRounds {
		if id == roundID {
			return
		}
	}
	s.SignedRounds = append(s.SignedRounds, roundID)
}

// IsCompleted returns whether the session signed as many rounds as allowed.
func (s *CoinjoinSession) IsCompleted() bool {
	return s.Parameters.MaxRounds > 0 && len(s.SignedRounds) >= s.Parameters.MaxRounds
}

// IsInCriticalPhase ...
func (s *CoinjoinSession) IsInCriticalPhase() bool {
	return s.Round != nil && s.Round.Phase.IsCritical()
}

// CanSign returns whether the session can sign the transaction of its round.
// A session waiting for its interrupt to take effect keeps signing until the
// round leaves the critical phase.
func (s *CoinjoinSession) CanSign() bool {
	if s.Interrupted {
		return false
	}
	return !s.Paused || (s.InterruptPending && s.IsInCriticalPhase())
}

// IsPausedInterrupted ...
func (s *CoinjoinSession) IsPausedInterrupted() bool {
	return s.Interrupted && !s.Starting
}

// Validate checks that a session without an active round is either
// starting, paused or interrupted.
func (s *CoinjoinSession) Validate() error {
	if s.Round == nil && !s.Starting && !s.Paused && !s.Interrupted {
		return ErrInvalidSession
	}
	return nil
}
