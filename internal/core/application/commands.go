package application

import (
	"context"

	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
)

// Command is an operation of the coinjoin service issued by an orchestrator
// rule.
type Command interface {
	Execute(ctx context.Context, svc CoinjoinService) error
}

type RestoreAccountsCommand struct{}

func (RestoreAccountsCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.RestoreCoinjoinAccounts(ctx)
}

type ForgetAccountsCommand struct {
	AccountKeys []string
}

func (c ForgetAccountsCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.ForgetCoinjoinAccounts(ctx, c.AccountKeys)
}

type FetchAccountCommand struct {
	AccountKey string
}

func (c FetchAccountCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.FetchAndUpdateAccount(ctx, c.AccountKey)
}

// PauseSessionCommand pauses the session of an account. BySendRoute marks
// the sessions paused when entering the send route, resumed when leaving
// it.
type PauseSessionCommand struct {
	AccountKey  string
	Interrupt   bool
	BySendRoute bool
}

func (c PauseSessionCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.PauseCoinjoinSession(ctx, c.AccountKey, c.Interrupt)
}

type PauseByDeviceCommand struct {
	DeviceID string
}

func (c PauseByDeviceCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.PauseCoinjoinSessionByDeviceID(ctx, c.DeviceID)
}

type PauseInterruptAllCommand struct{}

func (PauseInterruptAllCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.PauseInterruptAllCoinjoinSessions(ctx)
}

type RestoreSessionCommand struct {
	AccountKey string
}

func (c RestoreSessionCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.RestoreCoinjoinSession(ctx, c.AccountKey)
}

type SaveDebugSettingsCommand struct {
	Settings domain.DebugSettings
}

func (c SaveDebugSettingsCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.SaveDebugSettings(ctx, c.Settings)
}

type CancelScansCommand struct{}

func (CancelScansCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.CancelAllScans(ctx)
}

type CoordinatorStatusCommand struct {
	Network string
	Status  domain.CoordinatorStatus
}

func (c CoordinatorStatusCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	svc.OnCoordinatorStatus(ctx, c.Network, c.Status)
	return nil
}

type RoundChangedCommand struct {
	Network string
	Event   ports.RoundEvent
}

func (c RoundChangedCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.OnRoundChanged(ctx, c.Network, c.Event)
}

type SessionPhaseCommand struct {
	Network string
	Event   ports.SessionPhaseEvent
}

func (c SessionPhaseCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.OnSessionPhase(ctx, c.Network, c.Event)
}

type CoinjoinRequestCommand struct {
	Network string
	Event   ports.RequestEvent
}

func (c CoinjoinRequestCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.OnCoinjoinRequest(ctx, c.Network, c.Event)
}

type CoordinatorErrorCommand struct {
	Network string
	Event   ports.ErrorEvent
}

func (c CoordinatorErrorCommand) Execute(ctx context.Context, svc CoinjoinService) error {
	return svc.OnCoordinatorError(ctx, c.Network, c.Event)
}
