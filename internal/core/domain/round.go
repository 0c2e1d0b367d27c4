package domain

import "fmt"

// RoundPhase is the phase of a coordinator round. Phases are ordered.
type RoundPhase int

const (
	RoundPhaseInputRegistration RoundPhase = iota
	RoundPhaseConnectionConfirmation
	RoundPhaseOutputRegistration
	RoundPhaseTransactionSigning
	RoundPhaseEnded
)

var roundPhases = []RoundPhase{
	RoundPhaseInputRegistration,
	RoundPhaseConnectionConfirmation,
	RoundPhaseOutputRegistration,
	RoundPhaseTransactionSigning,
	RoundPhaseEnded,
}

func (p RoundPhase) String() string {
	switch p {
	case RoundPhaseInputRegistration:
		return "InputRegistration"
	case RoundPhaseConnectionConfirmation:
		return "ConnectionConfirmation"
	case RoundPhaseOutputRegistration:
		return "OutputRegistration"
	case RoundPhaseTransactionSigning:
		return "TransactionSigning"
	case RoundPhaseEnded:
		return "Ended"
	default:
		return fmt.Sprintf("RoundPhase(%d)", int(p))
	}
}

// IsValid ...
func (p RoundPhase) IsValid() bool {
	return p >= RoundPhaseInputRegistration && p <= RoundPhaseEnded
}

// IsCritical returns whether interrupting a participant in this phase risks
// funds or a coordinator penalty.
func (p RoundPhase) IsCritical() bool {
	return p >= RoundPhaseConnectionConfirmation && p <= RoundPhaseTransactionSigning
}

// SessionPhase refines a round phase with a session-internal step. Steps
// start from 1 when entering a round phase.
type SessionPhase struct {
	Round RoundPhase
	Step  int
}

// FirstSessionPhase returns the session phase entered together with the
// given round phase.
func FirstSessionPhase(phase RoundPhase) SessionPhase {
	return SessionPhase{Round: phase, Step: 1}
}

// Code returns the legacy numeric encoding of the session phase, ie. 11 for
// the first step of InputRegistration and 51 for Ended.
func (s SessionPhase) Code() int {
	return (int(s.Round)+1)*10 + s.Step
}

// SessionPhaseFromCode decodes the legacy numeric session phase. Only the
// first step of every round phase is guaranteed to round-trip with the round
// data, other steps are session-internal.
func SessionPhaseFromCode(code int) (SessionPhase, error) {
	index := code/10 - 1
	if code <= 0 || code%10 == 0 || index < 0 || index >= len(roundPhases) {
		return SessionPhase{}, fmt.Errorf("%w: %d", ErrInvalidSessionPhase, code)
	}
	return SessionPhase{Round: roundPhases[index], Step: code % 10}, nil
}

// RoundPhaseFromSessionPhase returns the round phase of a legacy session
// phase code.
func RoundPhaseFromSessionPhase(code int) (RoundPhase, error) {
	phase, err := SessionPhaseFromCode(code)
	if err != nil {
		return 0, err
	}
	return phase.Round, nil
}

// Round identifies a coordinator round and the phase it's currently in.
type Round struct {
	ID    string
	Phase RoundPhase
}

// RoundStatus is the last known snapshot of a round an account took part
// in.
type RoundStatus struct {
	Round
	PhaseDeadline int64
	UpdatedAt     int64
}

// AllowedInputAmounts is the range of input amounts accepted by the
// coordinator.
type AllowedInputAmounts struct {
	Min uint64
	Max uint64
}

// Contains ...
func (a AllowedInputAmounts) Contains(amount uint64) bool {
	if a.Max == 0 {
		return amount >= a.Min
	}
	return amount >= a.Min && amount <= a.Max
}

// CoordinatorStatus holds the coordinator-wide parameters returned by the
// client handshake.
type CoordinatorStatus struct {
	Rounds              []Round
	MaxMiningFee        uint64
	CoordinatorFeeRate  uint64
	AllowedInputAmounts AllowedInputAmounts
}
