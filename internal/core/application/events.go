package application

import (
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
)

// EventKind identifies the type of an event handled by the orchestrator.
type EventKind int

const (
	EventAppReady EventKind = iota
	EventAccountStatusChanged
	EventSelectedAccountChanged
	EventAccountsRemoved
	EventDiscoveryStarted
	EventChainSynced
	EventDeviceConnected
	EventDeviceDisconnected
	EventTorStatusChanged
	EventFeatureFlagsUpdated
	EventOnlineStatusChanged
	EventDebugSettingsChanged
	EventRouteChanged
	EventLocksChanged
	EventModalOpened
	EventModalAcknowledged
	EventCloseWindow
	EventCoordinatorStatusReceived
	EventRoundPhaseChanged
	EventSessionPhaseReceived
	EventCoinjoinRequestReceived
	EventCoordinatorError
)

var eventKinds = map[EventKind]string{
	EventAppReady:                  "AppReady",
	EventAccountStatusChanged:      "AccountStatusChanged",
	EventSelectedAccountChanged:    "SelectedAccountChanged",
	EventAccountsRemoved:           "AccountsRemoved",
	EventDiscoveryStarted:          "DiscoveryStarted",
	EventChainSynced:               "ChainSynced",
	EventDeviceConnected:           "DeviceConnected",
	EventDeviceDisconnected:        "DeviceDisconnected",
	EventTorStatusChanged:          "TorStatusChanged",
	EventFeatureFlagsUpdated:       "FeatureFlagsUpdated",
	EventOnlineStatusChanged:       "OnlineStatusChanged",
	EventDebugSettingsChanged:      "DebugSettingsChanged",
	EventRouteChanged:              "RouteChanged",
	EventLocksChanged:              "LocksChanged",
	EventModalOpened:               "ModalOpened",
	EventModalAcknowledged:         "ModalAcknowledged",
	EventCloseWindow:               "CloseWindow",
	EventCoordinatorStatusReceived: "CoordinatorStatusReceived",
	EventRoundPhaseChanged:         "RoundPhaseChanged",
	EventSessionPhaseReceived:      "SessionPhaseReceived",
	EventCoinjoinRequestReceived:   "CoinjoinRequestReceived",
	EventCoordinatorError:          "CoordinatorError",
}

func (k EventKind) String() string {
	if s, ok := eventKinds[k]; ok {
		return s
	}
	return "Unknown"
}

// Event is anything the orchestrator reacts to.
type Event interface {
	Kind() EventKind
}

// TorStatus ...
type TorStatus string

const (
	TorStatusEnabled   TorStatus = "Enabled"
	TorStatusEnabling  TorStatus = "Enabling"
	TorStatusDisabling TorStatus = "Disabling"
	TorStatusDisabled  TorStatus = "Disabled"
	TorStatusError     TorStatus = "Error"
)

// IsOff returns whether Tor is, or is about to be, unusable.
func (s TorStatus) IsOff() bool {
	return s == TorStatusDisabling || s == TorStatusDisabled || s == TorStatusError
}

type AppReady struct{}

type AccountStatusChanged struct {
	Account domain.Account
	Prev    domain.AccountStatus
}

type SelectedAccountChanged struct {
	AccountKey string
}

type AccountsRemoved struct {
	AccountKeys []string
}

type DiscoveryStarted struct{}

type ChainSynced struct {
	Symbol string
}

type DeviceConnected struct {
	ID string
}

type DeviceDisconnected struct {
	ID string
}

type TorStatusChanged struct {
	Status TorStatus
}

type FeatureFlagsUpdated struct {
	CoinjoinEnabled bool
}

type OnlineStatusChanged struct {
	Online bool
}

type DebugSettingsChanged struct {
	Settings domain.DebugSettings
}

type RouteChanged struct {
	App       string
	Route     string
	BackRoute string
}

type LocksChanged struct {
	DeviceLocked bool
	UILocked     bool
}

type ModalOpened struct {
	Modal string
}

type ModalAcknowledged struct {
	Modal string
}

type CloseWindow struct{}

// CoordinatorStatusReceived, as well as the other coordinator-originated
// events, is produced by the client registry relay.
type CoordinatorStatusReceived struct {
	Network string
	Status  domain.CoordinatorStatus
}

type RoundPhaseChanged struct {
	Network string
	Event   ports.RoundEvent
}

type SessionPhaseReceived struct {
	Network string
	Event   ports.SessionPhaseEvent
}

type CoinjoinRequestReceived struct {
	Network string
	Event   ports.RequestEvent
}

type CoordinatorError struct {
	Network string
	Event   ports.ErrorEvent
}

func (AppReady) Kind() EventKind                  { return EventAppReady }
func (AccountStatusChanged) Kind() EventKind      { return EventAccountStatusChanged }
func (SelectedAccountChanged) Kind() EventKind    { return EventSelectedAccountChanged }
func (AccountsRemoved) Kind() EventKind           { return EventAccountsRemoved }
func (DiscoveryStarted) Kind() EventKind          { return EventDiscoveryStarted }
func (ChainSynced) Kind() EventKind               { return EventChainSynced }
func (DeviceConnected) Kind() EventKind           { return EventDeviceConnected }
func (DeviceDisconnected) Kind() EventKind        { return EventDeviceDisconnected }
func (TorStatusChanged) Kind() EventKind          { return EventTorStatusChanged }
func (FeatureFlagsUpdated) Kind() EventKind       { return EventFeatureFlagsUpdated }
func (OnlineStatusChanged) Kind() EventKind       { return EventOnlineStatusChanged }
func (DebugSettingsChanged) Kind() EventKind      { return EventDebugSettingsChanged }
func (RouteChanged) Kind() EventKind              { return EventRouteChanged }
func (LocksChanged) Kind() EventKind              { return EventLocksChanged }
func (ModalOpened) Kind() EventKind               { return EventModalOpened }
func (ModalAcknowledged) Kind() EventKind         { return EventModalAcknowledged }
func (CloseWindow) Kind() EventKind               { return EventCloseWindow }
func (CoordinatorStatusReceived) Kind() EventKind { return EventCoordinatorStatusReceived }
func (RoundPhaseChanged) Kind() EventKind         { return EventRoundPhaseChanged }
func (SessionPhaseReceived) Kind() EventKind      { return EventSessionPhaseReceived }
func (CoinjoinRequestReceived) Kind() EventKind   { return EventCoinjoinRequestReceived }
func (CoordinatorError) Kind() EventKind          { return EventCoordinatorError }

// coordinatorEvent converts an event emitted by the client of the given
// network into an orchestrator event.
func coordinatorEvent(network string, e ports.CoordinatorEvent) Event {
	switch ev := e.(type) {
	case ports.StatusEvent:
		return CoordinatorStatusReceived{network, TransformCoinjoinStatus(ev.Status)}
	case ports.RoundEvent:
		return RoundPhaseChanged{network, ev}
	case ports.SessionPhaseEvent:
		return SessionPhaseReceived{network, ev}
	case ports.RequestEvent:
		return CoinjoinRequestReceived{network, ev}
	case ports.ErrorEvent:
		return CoordinatorError{network, ev}
	default:
		return nil
	}
}
