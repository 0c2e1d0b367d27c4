package ports

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tdex-network/coinjoind/internal/core/domain"
)

// CoinjoinClient is the client of a coinjoin coordinator for a single
// network. It's shared by all the accounts of that network.
type CoinjoinClient interface {
	// Enable performs the handshake with the coordinator and returns the
	// coordinator-wide parameters.
	Enable(ctx context.Context) (*domain.CoordinatorStatus, error)
	// RegisterAccount registers the account utxos to take part in rounds.
	RegisterAccount(ctx context.Context, params domain.RegisterAccountParams) error
	// UpdateAccount updates the data of a registered account.
	UpdateAccount(
		ctx context.Context, accountKey string, params domain.UpdateAccountParams,
	) error
	// UnregisterAccount removes the account from any round.
	UnregisterAccount(ctx context.Context, accountKey string) error
	// ResolveRequest answers a signing request previously sent through the
	// event channel.
	ResolveRequest(ctx context.Context, resp RequestResponse) error
	// Events returns the channel of events emitted by the coordinator. The
	// channel is closed when the client is closed.
	Events() <-chan CoordinatorEvent
	// Close releases the client resources.
	Close()
}

// CoinjoinBackend scans the chain for the data of coinjoin accounts.
type CoinjoinBackend interface {
	// ScanAccount starts a scan and returns the channel of discovered chunks,
	// closed when the scan is over. Every call starts a new scan.
	ScanAccount(ctx context.Context, req ScanAccountRequest) (<-chan ScanEvent, error)
	// Cancel stops all the scans in progress.
	Cancel()
}

// CoordinatorFactory creates the client and the backend for a network.
type CoordinatorFactory interface {
	NewClient(
		network string, params *chaincfg.Params,
	) (CoinjoinClient, CoinjoinBackend, error)
}

// ScanAccountRequest ...
type ScanAccountRequest struct {
	AccountKey string
	Descriptor string
	Symbol     string
}

// ScanEvent is a chunk of data discovered by the backend. Utxos are added
// to those already known, SpentOutpoints removed. Non-nil Addresses replace
// the account address lists while their anonymity set is merged into the
// known one. Err is set for a failed scan and is always the last event sent.
type ScanEvent struct {
	Progress       int
	Utxos          []domain.Utxo
	SpentOutpoints []string
	Addresses      *domain.Addresses
	Err            error
}

// RequestResponse is the answer to a coordinator signing request. Err is
// set when the account refuses to sign.
type RequestResponse struct {
	RequestID  string
	AccountKey string
	Result     *domain.SignResult
	Err        error
}

// CoordinatorEvent is implemented by all the events sent by a coordinator
// client.
type CoordinatorEvent interface {
	isCoordinatorEvent()
}

func (StatusEvent) isCoordinatorEvent()       {}
func (RoundEvent) isCoordinatorEvent()        {}
func (SessionPhaseEvent) isCoordinatorEvent() {}
func (RequestEvent) isCoordinatorEvent()      {}
func (ErrorEvent) isCoordinatorEvent()        {}

// StatusEvent carries the updated coordinator status.
type StatusEvent struct {
	Status domain.CoordinatorStatus
}

// RoundEvent notifies a round phase change for the given accounts.
type RoundEvent struct {
	Round         domain.Round
	PhaseDeadline int64
	AccountKeys   []string
}

// SessionPhaseEvent carries the legacy numeric session phase for the given
// accounts.
type SessionPhaseEvent struct {
	Phase       int
	AccountKeys []string
}

// RequestEvent asks the given accounts to sign the coinjoin transaction of
// a round.
type RequestEvent struct {
	RequestID   string
	Round       domain.Round
	AccountKeys []string
	Transaction domain.CoinjoinTransactionData
}

// ErrorEvent notifies an error of the coordinator affecting the given
// accounts while a round is in progress.
type ErrorEvent struct {
	AccountKeys []string
	Err         error
}
