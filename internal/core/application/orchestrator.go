package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
)

const (
	DefaultSendRoute = "wallet-send"
	DefaultWalletApp = "wallet"

	ModalCoinjoinSuccess  = "coinjoin-success"
	ModalMoreRoundsNeeded = "more-rounds-needed"
	ModalCriticalPhase    = "critical-coinjoin-phase"
)

// ProtectedModals can't be dismissed by a CloseWindow event, they require
// explicit acknowledgment.
var ProtectedModals = map[string]struct{}{
	ModalCoinjoinSuccess:  {},
	ModalMoreRoundsNeeded: {},
	ModalCriticalPhase:    {},
}

// Environment is the state of the world outside the coinjoin core, as
// reduced from the events handled by the orchestrator.
type Environment struct {
	DeviceConnected bool
	DeviceID        string
	DeviceLocked    bool
	UILocked        bool
	TorStatus       TorStatus
	TorDisabled     bool
	CoinjoinEnabled bool
	Online          bool
	App             string
	Route           string
	BackRoute       string
	SelectedAccount string
	OpenModal       string
}

// Snapshot is the state rules are evaluated against.
type Snapshot struct {
	Env              Environment
	SendRoute        string
	WalletApp        string
	Accounts         map[string]domain.Account
	CoinjoinAccounts []domain.CoinjoinAccount
	// SendPaused are the accounts whose session was paused when entering the
	// send route.
	SendPaused map[string]struct{}
}

// Rule computes the commands to run in response to an event. Rules never
// have side effects.
type Rule func(event Event, snapshot *Snapshot) []Command

// OrchestratorConfig ...
type OrchestratorConfig struct {
	SendRoute  string
	WalletApp  string
	InitialEnv Environment
}

// Orchestrator reacts to external and coordinator events by issuing session
// commands to the coinjoin service. Events are handled one at a time.
type Orchestrator struct {
	lock sync.Mutex

	svc        CoinjoinService
	wallet     ports.WalletAccountStore
	registry   *ClientRegistry
	rules      map[EventKind][]Rule
	env        Environment
	sendRoute  string
	walletApp  string
	sendPaused map[string]struct{}
}

// NewOrchestrator returns an orchestrator with the default rules. The
// registry is optional, when given its events are processed by Run.
func NewOrchestrator(
	svc CoinjoinService,
	wallet ports.WalletAccountStore,
	registry *ClientRegistry,
	cfg OrchestratorConfig,
) (*Orchestrator, error) {
	if svc == nil {
		return nil, fmt.Errorf("missing coinjoin service")
	}
	if wallet == nil {
		return nil, fmt.Errorf("missing wallet account store")
	}
	sendRoute, walletApp := cfg.SendRoute, cfg.WalletApp
	if sendRoute == "" {
		sendRoute = DefaultSendRoute
	}
	if walletApp == "" {
		walletApp = DefaultWalletApp
	}

	return &Orchestrator{
		svc:        svc,
		wallet:     wallet,
		registry:   registry,
		rules:      defaultRules(),
		env:        cfg.InitialEnv,
		sendRoute:  sendRoute,
		walletApp:  walletApp,
		sendPaused: make(map[string]struct{}),
	}, nil
}

// Environment returns the current environment.
func (o *Orchestrator) Environment() Environment {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.env
}

// Run handles the events received from input and from the registry in
// arrival order, until the context is done or input is closed.
func (o *Orchestrator) Run(ctx context.Context, input <-chan Event) {
	var coordinatorEvents <-chan Event
	if o.registry != nil {
		coordinatorEvents = o.registry.Events()
	}

	for {
		var event Event
		select {
		case <-ctx.Done():
			return
		case e, ok := <-input:
			if !ok {
				return
			}
			event = e
		case e := <-coordinatorEvents:
			event = e
		}
		if err := o.Handle(ctx, event); err != nil {
			log.WithError(err).Warnf("failed to handle event %s", event.Kind())
		}
	}
}

// Handle updates the environment with the given event and runs the
// commands issued by the rules bound to its kind. Failing commands are
// logged and don't prevent the following ones from running.
func (o *Orchestrator) Handle(ctx context.Context, event Event) error {
	if event == nil {
		return nil
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	o.env = reduceEnvironment(o.env, event)

	rules := o.rules[event.Kind()]
	if len(rules) <= 0 {
		return nil
	}

	snapshot, err := o.snapshot(ctx)
	if err != nil {
		return err
	}

	commands := make([]Command, 0)
	for _, rule := range rules {
		commands = append(commands, rule(event, snapshot)...)
	}

	for _, cmd := range commands {
		log.Debugf("event %s: running %T", event.Kind(), cmd)
		if err := cmd.Execute(ctx, o.svc); err != nil {
			log.WithError(err).Warnf("event %s: command %T failed", event.Kind(), cmd)
			continue
		}
		switch c := cmd.(type) {
		case PauseSessionCommand:
			if c.BySendRoute {
				o.sendPaused[c.AccountKey] = struct{}{}
			}
		case RestoreSessionCommand:
			delete(o.sendPaused, c.AccountKey)
		case ForgetAccountsCommand:
			for _, key := range c.AccountKeys {
				delete(o.sendPaused, key)
			}
		}
	}
	return nil
}

func (o *Orchestrator) snapshot(ctx context.Context) (*Snapshot, error) {
	accounts, err := o.wallet.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	cjAccounts, err := o.svc.ListCoinjoinAccounts(ctx)
	if err != nil {
		return nil, err
	}

	accountsByKey := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		accountsByKey[a.Key] = a
	}
	sendPaused := make(map[string]struct{}, len(o.sendPaused))
	for k := range o.sendPaused {
		sendPaused[k] = struct{}{}
	}

	return &Snapshot{
		Env:              o.env,
		SendRoute:        o.sendRoute,
		WalletApp:        o.walletApp,
		Accounts:         accountsByKey,
		CoinjoinAccounts: cjAccounts,
		SendPaused:       sendPaused,
	}, nil
}

// IsSessionBlockedGlobally returns whether sessions can't be started or
// resumed, whatever their state.
func IsSessionBlockedGlobally(env Environment, sendRoute string) bool {
	torBlocked := !env.TorDisabled && env.TorStatus != TorStatusEnabled
	return !env.DeviceConnected ||
		torBlocked ||
		!env.CoinjoinEnabled ||
		env.Route == sendRoute ||
		!env.Online
}

func reduceEnvironment(env Environment, event Event) Environment {
	switch e := event.(type) {
	case DeviceConnected:
		env.DeviceConnected = true
		env.DeviceID = e.ID
	case DeviceDisconnected:
		if env.DeviceID == "" || env.DeviceID == e.ID {
			env.DeviceConnected = false
		}
	case TorStatusChanged:
		env.TorStatus = e.Status
	case FeatureFlagsUpdated:
		env.CoinjoinEnabled = e.CoinjoinEnabled
	case OnlineStatusChanged:
		env.Online = e.Online
	case DebugSettingsChanged:
		env.TorDisabled = e.Settings.DisableTor
	case RouteChanged:
		env.App = e.App
		env.Route = e.Route
		env.BackRoute = e.BackRoute
	case LocksChanged:
		env.DeviceLocked = e.DeviceLocked
		env.UILocked = e.UILocked
	case SelectedAccountChanged:
		env.SelectedAccount = e.AccountKey
	case ModalOpened:
		env.OpenModal = e.Modal
	case ModalAcknowledged:
		if env.OpenModal == e.Modal {
			env.OpenModal = ""
		}
	case CloseWindow:
		if _, ok := ProtectedModals[env.OpenModal]; !ok {
			env.OpenModal = ""
		}
	}
	return env
}

func defaultRules() map[EventKind][]Rule {
	return map[EventKind][]Rule{
		EventAppReady:                  {restoreAccountsRule},
		EventAccountStatusChanged:      {accountStatusRule},
		EventAccountsRemoved:           {forgetAccountsRule},
		EventDiscoveryStarted:          {discoveryRule},
		EventChainSynced:               {chainSyncedRule},
		EventDeviceConnected:           {deviceConnectedRule},
		EventDeviceDisconnected:        {deviceDisconnectedRule},
		EventTorStatusChanged:          {torStatusRule},
		EventFeatureFlagsUpdated:       {featureFlagRule},
		EventDebugSettingsChanged:      {debugSettingsRule},
		EventRouteChanged:              {sendRouteRule, walletAppRule},
		EventLocksChanged:              {sendRouteRule},
		EventCoordinatorStatusReceived: {coordinatorStatusRule},
		EventRoundPhaseChanged:         {roundChangedRule, featureFlagRule},
		EventSessionPhaseReceived:      {sessionPhaseRule},
		EventCoinjoinRequestReceived:   {coinjoinRequestRule},
		EventCoordinatorError:          {coordinatorErrorRule},
	}
}

func restoreAccountsRule(_ Event, _ *Snapshot) []Command {
	return []Command{RestoreAccountsCommand{}}
}

func accountStatusRule(event Event, s *Snapshot) []Command {
	e := event.(AccountStatusChanged)
	if !e.Account.IsCoinjoin() {
		return nil
	}
	cjAccount, ok := s.coinjoinAccount(e.Account.Key)
	if !ok || cjAccount.Session == nil {
		return nil
	}

	status := e.Account.Status
	if e.Prev == domain.AccountStatusReady && status == domain.AccountStatusOutOfSync {
		if !cjAccount.IsInCriticalPhase() && !cjAccount.Session.Interrupted {
			return []Command{PauseSessionCommand{AccountKey: cjAccount.Key, Interrupt: true}}
		}
		return nil
	}
	if e.Prev != domain.AccountStatusReady && status == domain.AccountStatusReady {
		if !s.blocked() && cjAccount.HasPausedInterruptedSession() {
			return []Command{RestoreSessionCommand{AccountKey: cjAccount.Key}}
		}
	}
	return nil
}

func forgetAccountsRule(event Event, _ *Snapshot) []Command {
	e := event.(AccountsRemoved)
	if len(e.AccountKeys) <= 0 {
		return nil
	}
	return []Command{ForgetAccountsCommand{AccountKeys: e.AccountKeys}}
}

func discoveryRule(_ Event, s *Snapshot) []Command {
	commands := make([]Command, 0)
	for _, a := range s.CoinjoinAccounts {
		commands = append(commands, FetchAccountCommand{AccountKey: a.Key})
	}
	return commands
}

// chainSyncedRule refreshes the coinjoin accounts of the synced network and
// then retries the sessions interrupted by a coordinator error.
func chainSyncedRule(event Event, s *Snapshot) []Command {
	e := event.(ChainSynced)
	commands := make([]Command, 0)
	for _, a := range s.CoinjoinAccounts {
		if a.Symbol == e.Symbol {
			commands = append(commands, FetchAccountCommand{AccountKey: a.Key})
		}
	}
	if !s.blocked() {
		commands = append(commands, s.restoreInterrupted(func(a domain.CoinjoinAccount) bool {
			return a.Symbol == e.Symbol
		})...)
	}
	return commands
}

func deviceConnectedRule(event Event, s *Snapshot) []Command {
	e := event.(DeviceConnected)
	if s.blocked() {
		return nil
	}
	return s.restoreInterrupted(func(a domain.CoinjoinAccount) bool {
		return a.DeviceState == e.ID
	})
}

func deviceDisconnectedRule(event Event, _ *Snapshot) []Command {
	e := event.(DeviceDisconnected)
	return []Command{PauseByDeviceCommand{DeviceID: e.ID}}
}

func torStatusRule(event Event, s *Snapshot) []Command {
	e := event.(TorStatusChanged)
	if e.Status.IsOff() {
		return []Command{PauseInterruptAllCommand{}}
	}
	if e.Status == TorStatusEnabled && !s.blocked() {
		return s.restoreInterrupted(nil)
	}
	return nil
}

// featureFlagRule interrupts all sessions while coinjoin is disabled by
// remote config. Sessions in critical phase are left alone until their round
// ends.
func featureFlagRule(event Event, s *Snapshot) []Command {
	if s.Env.CoinjoinEnabled {
		if event.Kind() == EventFeatureFlagsUpdated && !s.blocked() {
			return s.restoreInterrupted(nil)
		}
		return nil
	}

	roundEnded := false
	critical := false
	if e, ok := event.(RoundPhaseChanged); ok {
		roundEnded = e.Event.Round.Phase == domain.RoundPhaseEnded
		involved := make(map[string]struct{})
		for _, k := range e.Event.AccountKeys {
			involved[k] = struct{}{}
		}
		for _, a := range s.CoinjoinAccounts {
			if _, ok := involved[a.Key]; ok {
				if a.Session != nil && !a.Session.Interrupted &&
					e.Event.Round.Phase.IsCritical() {
					critical = true
				}
				continue
			}
			critical = critical || a.IsInCriticalPhase()
		}
	} else {
		critical = s.anyCritical()
	}

	if critical && !roundEnded {
		return nil
	}
	if !s.anySession() {
		return nil
	}
	return []Command{PauseInterruptAllCommand{}}
}

func debugSettingsRule(event Event, _ *Snapshot) []Command {
	e := event.(DebugSettingsChanged)
	return []Command{SaveDebugSettingsCommand{Settings: e.Settings}}
}

func sendRouteRule(_ Event, s *Snapshot) []Command {
	env := s.Env
	if env.DeviceLocked || env.UILocked {
		return nil
	}

	if env.BackRoute == s.SendRoute && env.Route != s.SendRoute {
		if s.blocked() {
			return nil
		}
		commands := s.restoreInterrupted(nil)
		keys := make([]string, 0, len(s.SendPaused))
		for k := range s.SendPaused {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			a, ok := s.coinjoinAccount(k)
			if !ok || a.Session == nil || !a.Session.Paused || a.Session.Interrupted {
				continue
			}
			commands = append(commands, RestoreSessionCommand{AccountKey: k})
		}
		return commands
	}

	if env.Route == s.SendRoute {
		a, ok := s.coinjoinAccount(env.SelectedAccount)
		if !ok || a.Session == nil {
			return nil
		}
		if a.Session.Paused || a.Session.Starting || a.Session.Interrupted {
			return nil
		}
		return []Command{PauseSessionCommand{
			AccountKey: a.Key, BySendRoute: true,
		}}
	}
	return nil
}

func walletAppRule(event Event, s *Snapshot) []Command {
	e := event.(RouteChanged)
	if e.App == s.WalletApp {
		return nil
	}
	return []Command{CancelScansCommand{}}
}

func coordinatorStatusRule(event Event, _ *Snapshot) []Command {
	e := event.(CoordinatorStatusReceived)
	return []Command{CoordinatorStatusCommand{Network: e.Network, Status: e.Status}}
}

func roundChangedRule(event Event, _ *Snapshot) []Command {
	e := event.(RoundPhaseChanged)
	return []Command{RoundChangedCommand{Network: e.Network, Event: e.Event}}
}

func sessionPhaseRule(event Event, _ *Snapshot) []Command {
	e := event.(SessionPhaseReceived)
	return []Command{SessionPhaseCommand{Network: e.Network, Event: e.Event}}
}

func coinjoinRequestRule(event Event, _ *Snapshot) []Command {
	e := event.(CoinjoinRequestReceived)
	return []Command{CoinjoinRequestCommand{Network: e.Network, Event: e.Event}}
}

func coordinatorErrorRule(event Event, _ *Snapshot) []Command {
	e := event.(CoordinatorError)
	return []Command{CoordinatorErrorCommand{Network: e.Network, Event: e.Event}}
}

func (s *Snapshot) blocked() bool {
	return IsSessionBlockedGlobally(s.Env, s.SendRoute)
}

func (s *Snapshot) coinjoinAccount(key string) (domain.CoinjoinAccount, bool) {
	for _, a := range s.CoinjoinAccounts {
		if a.Key == key {
			return a, true
		}
	}
	return domain.CoinjoinAccount{}, false
}

func (s *Snapshot) anyCritical() bool {
	for _, a := range s.CoinjoinAccounts {
		if a.IsInCriticalPhase() {
			return true
		}
	}
	return false
}

func (s *Snapshot) anySession() bool {
	for _, a := range s.CoinjoinAccounts {
		if a.Session != nil && !a.Session.Interrupted {
			return true
		}
	}
	return false
}

// restoreInterrupted returns the commands to restore the interrupted
// sessions of the coinjoin accounts that are not out-of-sync.
func (s *Snapshot) restoreInterrupted(
	filter func(domain.CoinjoinAccount) bool,
) []Command {
	commands := make([]Command, 0)
	for _, a := range s.CoinjoinAccounts {
		if !a.HasPausedInterruptedSession() {
			continue
		}
		if filter != nil && !filter(a) {
			continue
		}
		account, ok := s.Accounts[a.Key]
		if !ok || !account.IsCoinjoin() ||
			account.Status == domain.AccountStatusOutOfSync {
			continue
		}
		commands = append(commands, RestoreSessionCommand{AccountKey: a.Key})
	}
	return commands
}
