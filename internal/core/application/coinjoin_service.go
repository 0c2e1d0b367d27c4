package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	"github.com/tdex-network/coinjoind/pkg/anonymity"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

// CoinjoinService manages the coinjoin accounts and their sessions. Every
// state change is notified to the registered observers as an Action.
type CoinjoinService interface {
	CreateCoinjoinAccount(
		ctx context.Context, account domain.Account, targetAnonymity int,
	) (*domain.CoinjoinAccount, error)
	GetCoinjoinAccount(ctx context.Context, accountKey string) (*domain.CoinjoinAccount, error)
	ListCoinjoinAccounts(ctx context.Context) ([]domain.CoinjoinAccount, error)
	GetAccountSummary(ctx context.Context, accountKey string) (*AccountSummary, error)
	FetchAndUpdateAccount(ctx context.Context, accountKey string) error
	ForgetCoinjoinAccounts(ctx context.Context, accountKeys []string) error
	RestoreCoinjoinAccounts(ctx context.Context) error

	StartCoinjoinSession(
		ctx context.Context, accountKey string, params domain.SessionParameters,
	) error
	StopCoinjoinSession(ctx context.Context, accountKey string) error
	PauseCoinjoinSession(ctx context.Context, accountKey string, interrupt bool) error
	RestoreCoinjoinSession(ctx context.Context, accountKey string) error
	PauseInterruptAllCoinjoinSessions(ctx context.Context) error
	PauseCoinjoinSessionByDeviceID(ctx context.Context, deviceID string) error
	CancelAllScans(ctx context.Context) error

	SaveDebugSettings(ctx context.Context, settings domain.DebugSettings) error

	OnCoordinatorStatus(ctx context.Context, network string, status domain.CoordinatorStatus)
	OnRoundChanged(ctx context.Context, network string, event ports.RoundEvent) error
	OnSessionPhase(ctx context.Context, network string, event ports.SessionPhaseEvent) error
	OnCoinjoinRequest(ctx context.Context, network string, event ports.RequestEvent) error
	OnCoordinatorError(ctx context.Context, network string, event ports.ErrorEvent) error
}

// AccountSummary ...
type AccountSummary struct {
	Account               domain.CoinjoinAccount
	Breakdown             anonymity.Breakdown
	Progress              int
	MaxRounds             int
	EstimatedTimePerRound time.Duration
}

type coinjoinService struct {
	repo      ports.RepoManager
	wallet    ports.WalletAccountStore
	device    ports.Device
	registry  *ClientRegistry
	estimates anonymity.Estimates
	limiter   ratelimit.Limiter

	defaultTargetAnonymity int

	observersLock sync.Mutex
	observers     []ports.ActionObserver
}

// NewCoinjoinService returns the service. A non positive scanRateLimit
// disables the rate limiting of the account scans.
func NewCoinjoinService(
	repo ports.RepoManager,
	wallet ports.WalletAccountStore,
	device ports.Device,
	registry *ClientRegistry,
	estimates anonymity.Estimates,
	scanRateLimit int,
	defaultTargetAnonymity int,
	observers ...ports.ActionObserver,
) (CoinjoinService, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if wallet == nil {
		return nil, fmt.Errorf("missing wallet account store")
	}
	if device == nil {
		return nil, fmt.Errorf("missing device")
	}
	if registry == nil {
		return nil, fmt.Errorf("missing client registry")
	}
	if defaultTargetAnonymity < 1 {
		return nil, fmt.Errorf("default target anonymity must be at least 1")
	}

	limiter := ratelimit.NewUnlimited()
	if scanRateLimit > 0 {
		limiter = ratelimit.New(scanRateLimit)
	}

	return &coinjoinService{
		repo:                   repo,
		wallet:                 wallet,
		device:                 device,
		registry:               registry,
		estimates:              estimates,
		limiter:                limiter,
		defaultTargetAnonymity: defaultTargetAnonymity,
		observers:              observers,
	}, nil
}

func (s *coinjoinService) CreateCoinjoinAccount(
	ctx context.Context, account domain.Account, targetAnonymity int,
) (*domain.CoinjoinAccount, error) {
	network := account.Symbol
	if !s.registry.IsSupported(network) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedNetwork, network)
	}
	if !account.IsCoinjoin() {
		return nil, ErrNotCoinjoinAccount
	}
	if targetAnonymity <= 0 {
		targetAnonymity = s.defaultTargetAnonymity
	}

	if acc, _ := s.repo.CoinjoinAccountRepository().GetAccount(
		ctx, account.Key,
	); acc != nil {
		return nil, domain.ErrAccountAlreadyExists
	}

	if _, err := s.ensureClient(ctx, network); err != nil {
		return nil, err
	}

	cjAccount := domain.NewCoinjoinAccount(account, targetAnonymity, now())
	if err := s.repo.CoinjoinAccountRepository().AddAccount(
		ctx, *cjAccount,
	); err != nil {
		return nil, err
	}
	s.notify(ActionAccountCreate, account.Key, network, *cjAccount)

	if err := s.FetchAndUpdateAccount(ctx, account.Key); err != nil {
		log.WithError(err).Warnf("failed to discover coinjoin account %s", account.Key)
	}

	return s.repo.CoinjoinAccountRepository().GetAccount(ctx, account.Key)
}

func (s *coinjoinService) GetCoinjoinAccount(
	ctx context.Context, accountKey string,
) (*domain.CoinjoinAccount, error) {
	return s.repo.CoinjoinAccountRepository().GetAccount(ctx, accountKey)
}

func (s *coinjoinService) ListCoinjoinAccounts(
	ctx context.Context,
) ([]domain.CoinjoinAccount, error) {
	return s.repo.CoinjoinAccountRepository().GetAllAccounts(ctx)
}

func (s *coinjoinService) GetAccountSummary(
	ctx context.Context, accountKey string,
) (*AccountSummary, error) {
	cjAccount, err := s.repo.CoinjoinAccountRepository().GetAccount(ctx, accountKey)
	if err != nil {
		return nil, err
	}
	account, err := s.walletAccount(ctx, accountKey)
	if err != nil {
		return nil, err
	}

	target := cjAccount.TargetAnonymity
	var numerator, denominator int
	if cjAccount.Session != nil && cjAccount.Session.Parameters.SkipRounds != nil {
		skip := cjAccount.Session.Parameters.SkipRounds
		numerator, denominator = skip.Numerator, skip.Denominator
	}

	return &AccountSummary{
		Account:   *cjAccount,
		Breakdown: AccountBreakdown(*account, target),
		Progress:  AccountProgress(*account, target),
		MaxRounds: anonymity.MaxRounds(
			target, account.Addresses.AnonymitySet, s.estimates,
		),
		EstimatedTimePerRound: anonymity.EstimatedTimePerRound(
			numerator, denominator, s.estimates,
		),
	}, nil
}

func (s *coinjoinService) FetchAndUpdateAccount(
	ctx context.Context, accountKey string,
) error {
	cjAccount, err := s.repo.CoinjoinAccountRepository().GetAccount(ctx, accountKey)
	if err != nil {
		return err
	}
	account, err := s.walletAccount(ctx, accountKey)
	if err != nil {
		return err
	}
	network := cjAccount.Symbol
	instance, ok := s.registry.Get(network)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientNotFound, network)
	}

	s.limiter.Take()

	prevStatus := account.Status
	if err := s.setAccountStatus(ctx, *account, prevStatus, true); err != nil {
		return err
	}
	s.notify(ActionAccountSyncStart, accountKey, network, nil)

	updated, scanErr := s.scanAccount(ctx, instance.Backend, *account)
	if scanErr != nil {
		status := domain.AccountStatusOutOfSync
		if prevStatus == domain.AccountStatusInitial {
			status = domain.AccountStatusError
		}
		if errors.Is(scanErr, context.Canceled) {
			status = prevStatus
		}
		if err := s.setAccountStatus(ctx, *account, status, false); err != nil {
			log.WithError(err).Warnf("failed to update status of account %s", accountKey)
		}
		s.notify(ActionAccountUpdateStatus, accountKey, network, AccountStatusPayload{
			Status: string(status),
		})
		return scanErr
	}

	updated.Status = domain.AccountStatusReady
	updated.Syncing = false
	if err := s.wallet.UpdateAccount(ctx, updated); err != nil {
		return err
	}
	if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
		ctx, accountKey,
		func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
			a.Status = domain.AccountStatusReady
			a.Syncing = false
			return a, nil
		},
	); err != nil {
		return err
	}
	s.notify(ActionAccountUpdateStatus, accountKey, network, AccountStatusPayload{
		Status: string(domain.AccountStatusReady),
	})
	s.notify(ActionAccountUpdate, accountKey, network, updated)

	if session := cjAccount.Session; session != nil && !session.Interrupted {
		params := GetUpdateAccountParams(updated, s.registry.Status(network))
		if err := instance.Client.UpdateAccount(ctx, accountKey, params); err != nil {
			log.WithError(err).Warnf(
				"failed to update coordinator with data of account %s", accountKey,
			)
		}
	}
	return nil
}

func (s *coinjoinService) ForgetCoinjoinAccounts(
	ctx context.Context, accountKeys []string,
) error {
	networks := make(map[string]struct{})
	for _, key := range accountKeys {
		cjAccount, err := s.repo.CoinjoinAccountRepository().GetAccount(ctx, key)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				continue
			}
			return err
		}
		network := cjAccount.Symbol

		if session := cjAccount.Session; session != nil && !session.Interrupted {
			s.unregister(ctx, network, key)
		}
		if err := s.repo.CoinjoinAccountRepository().DeleteAccount(ctx, key); err != nil {
			return err
		}
		networks[network] = struct{}{}
		s.notify(ActionAccountRemove, key, network, nil)
	}

	for network := range networks {
		accounts, err := s.repo.CoinjoinAccountRepository().GetAccountsByNetwork(
			ctx, network,
		)
		if err != nil {
			return err
		}
		if len(accounts) > 0 {
			continue
		}
		if _, ok := s.registry.Get(network); ok {
			s.registry.Remove(network)
			s.notify(ActionClientRemove, "", network, nil)
		}
	}
	return nil
}

func (s *coinjoinService) RestoreCoinjoinAccounts(ctx context.Context) error {
	accounts, err := s.repo.CoinjoinAccountRepository().GetAllAccounts(ctx)
	if err != nil {
		return err
	}

	networks := make(map[string]struct{})
	for _, account := range accounts {
		if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
			ctx, account.Key,
			func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
				fixed := domain.FixLoadedCoinjoinAccount(*a)
				return &fixed, nil
			},
		); err != nil {
			return err
		}
		networks[account.Symbol] = struct{}{}
	}

	g := &errgroup.Group{}
	for network := range networks {
		network := network
		g.Go(func() error {
			if _, err := s.ensureClient(ctx, network); err != nil {
				log.WithError(err).Warnf(
					"failed to restore coordinator client for network %s", network,
				)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *coinjoinService) StartCoinjoinSession(
	ctx context.Context, accountKey string, params domain.SessionParameters,
) error {
	cjAccount, err := s.repo.CoinjoinAccountRepository().GetAccount(ctx, accountKey)
	if err != nil {
		return err
	}
	if cjAccount.Session != nil {
		return domain.ErrSessionAlreadyExists
	}
	if err := params.Validate(); err != nil {
		return err
	}
	account, err := s.walletAccount(ctx, accountKey)
	if err != nil {
		return err
	}

	network := cjAccount.Symbol
	instance, ok := s.registry.Get(network)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientNotFound, network)
	}
	status := s.registry.Status(network)
	if status == nil {
		return fmt.Errorf("%w: %s", ErrClientNotEnabled, network)
	}
	if params.MaxCoordinatorFeeRate < status.CoordinatorFeeRate {
		return fmt.Errorf(
			"%w: %d > %d", ErrCoordinatorFeeTooHigh,
			status.CoordinatorFeeRate, params.MaxCoordinatorFeeRate,
		)
	}
	registerParams := GetRegisterAccountParams(
		*account, params, cjAccount.RawLiquidityClue, status,
	)
	if len(registerParams.Utxos) <= 0 {
		return ErrNoRegistrableUtxos
	}

	var session *domain.CoinjoinSession
	if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
		ctx, accountKey,
		func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
			ts := now()
			deadline := ts + int64(params.MaxRounds)*
				int64(s.timePerRound(params.SkipRounds).Seconds())
			sess, err := a.StartSession(params, deadline, ts)
			if err != nil {
				return nil, err
			}
			session = sess
			return a, nil
		},
	); err != nil {
		return err
	}
	s.notify(ActionSessionStarting, accountKey, network, *session)

	if err := s.device.AuthorizeCoinjoin(ctx, ports.AuthorizeCoinjoinRequest{
		DeviceState:           account.DeviceState,
		Path:                  account.Path,
		ScriptType:            registerParams.ScriptType,
		MaxRounds:             params.MaxRounds,
		MaxCoordinatorFeeRate: params.MaxCoordinatorFeeRate,
		MaxFeePerKvbyte:       params.MaxFeePerKvbyte,
	}); err != nil {
		s.removeSession(ctx, accountKey, session.ID)
		s.notify(ActionAuthorizeFailed, accountKey, network, SessionFailurePayload{
			Reason: err.Error(),
		})
		return err
	}

	return s.register(ctx, instance, accountKey, session.ID, registerParams, true)
}

func (s *coinjoinService) StopCoinjoinSession(
	ctx context.Context, accountKey string,
) error {
	cjAccount, err := s.repo.CoinjoinAccountRepository().GetAccount(ctx, accountKey)
	if err != nil {
		return err
	}
	if cjAccount.Session == nil {
		return domain.ErrSessionNotFound
	}

	if !cjAccount.Session.Interrupted {
		s.unregister(ctx, cjAccount.Symbol, accountKey)
	}
	if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
		ctx, accountKey,
		func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
			a.StopSession()
			return a, nil
		},
	); err != nil {
		return err
	}
	s.notify(ActionSessionStop, accountKey, cjAccount.Symbol, nil)
	return nil
}

func (s *coinjoinService) PauseCoinjoinSession(
	ctx context.Context, accountKey string, interrupt bool,
) error {
	cjAccount, err := s.repo.CoinjoinAccountRepository().GetAccount(ctx, accountKey)
	if err != nil {
		return err
	}
	session := cjAccount.Session
	if session == nil {
		return domain.ErrSessionNotFound
	}
	if session.Interrupted || (!interrupt && session.Paused) {
		return nil
	}
	if interrupt && session.InterruptPending {
		return nil
	}

	deferred := interrupt && session.IsInCriticalPhase()
	if interrupt && !deferred {
		s.unregister(ctx, cjAccount.Symbol, accountKey)
	}

	if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
		ctx, accountKey,
		func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
			if a.Session == nil {
				return nil, domain.ErrSessionNotFound
			}
			if deferred {
				a.Session.DeferInterrupt(now())
			} else {
				a.Session.Pause(interrupt, now())
			}
			return a, nil
		},
	); err != nil {
		return err
	}

	s.notify(ActionSessionPause, accountKey, cjAccount.Symbol, SessionPausePayload{
		Interrupt:        interrupt && !deferred,
		InterruptPending: deferred,
	})
	return nil
}

func (s *coinjoinService) RestoreCoinjoinSession(
	ctx context.Context, accountKey string,
) error {
	cjAccount, err := s.repo.CoinjoinAccountRepository().GetAccount(ctx, accountKey)
	if err != nil {
		return err
	}
	session := cjAccount.Session
	if session == nil {
		return domain.ErrSessionNotFound
	}
	if !session.Paused && !session.Interrupted {
		return domain.ErrSessionNotPaused
	}
	network := cjAccount.Symbol
	interrupted := session.Interrupted

	if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
		ctx, accountKey,
		func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
			if a.Session == nil || a.Session.ID != session.ID {
				return nil, ErrStaleSession
			}
			if err := a.Session.Resume(); err != nil {
				return nil, err
			}
			return a, nil
		},
	); err != nil {
		return err
	}
	s.notify(ActionSessionRestore, accountKey, network, nil)

	if !interrupted {
		return nil
	}

	registerErr := func() error {
		status, err := s.ensureClient(ctx, network)
		if err != nil {
			return err
		}
		account, err := s.walletAccount(ctx, accountKey)
		if err != nil {
			return err
		}
		params := GetRegisterAccountParams(
			*account, session.Parameters, cjAccount.RawLiquidityClue, status,
		)
		if len(params.Utxos) <= 0 {
			return ErrNoRegistrableUtxos
		}
		instance, _ := s.registry.Get(network)
		return s.register(ctx, instance, accountKey, session.ID, params, false)
	}()
	if registerErr != nil && !errors.Is(registerErr, ErrStaleSession) {
		s.interruptSession(ctx, accountKey, session.ID)
	}
	return registerErr
}

func (s *coinjoinService) PauseInterruptAllCoinjoinSessions(ctx context.Context) error {
	accounts, err := s.repo.CoinjoinAccountRepository().GetAllAccounts(ctx)
	if err != nil {
		return err
	}
	return s.pauseInterrupt(ctx, accounts, func(domain.CoinjoinAccount) bool {
		return true
	})
}

func (s *coinjoinService) PauseCoinjoinSessionByDeviceID(
	ctx context.Context, deviceID string,
) error {
	accounts, err := s.repo.CoinjoinAccountRepository().GetAllAccounts(ctx)
	if err != nil {
		return err
	}
	return s.pauseInterrupt(ctx, accounts, func(a domain.CoinjoinAccount) bool {
		return a.DeviceState == deviceID
	})
}

func (s *coinjoinService) CancelAllScans(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, instance := range s.registry.List() {
		backend := instance.Backend
		if backend == nil {
			continue
		}
		g.Go(func() error {
			backend.Cancel()
			return nil
		})
	}
	return g.Wait()
}

func (s *coinjoinService) SaveDebugSettings(
	ctx context.Context, settings domain.DebugSettings,
) error {
	if err := s.repo.DebugSettingsRepository().SaveDebugSettings(
		ctx, settings,
	); err != nil {
		return err
	}
	s.notify(ActionDebugSettingsChanged, "", "", settings)
	return nil
}

func (s *coinjoinService) OnCoordinatorStatus(
	_ context.Context, network string, status domain.CoordinatorStatus,
) {
	status = TransformCoinjoinStatus(status)
	s.registry.SetStatus(network, status)
	s.notify(ActionClientStatus, "", network, status)
}

func (s *coinjoinService) OnRoundChanged(
	ctx context.Context, network string, event ports.RoundEvent,
) error {
	if !event.Round.Phase.IsValid() {
		return fmt.Errorf("%w: %d", domain.ErrInvalidRoundPhase, event.Round.Phase)
	}

	for _, key := range event.AccountKeys {
		var (
			changed   bool
			interrupt bool
			completed bool
		)
		if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
			ctx, key,
			func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
				a.SetRoundStatus(event.Round, event.PhaseDeadline, now())
				session := a.Session
				if session == nil {
					return a, nil
				}
				if err := session.SetRound(event.Round, event.PhaseDeadline); err != nil {
					log.WithError(err).Debugf(
						"ignoring round %s event for account %s", event.Round.ID, key,
					)
					return a, nil
				}
				changed = true
				if session.InterruptPending && !session.IsInCriticalPhase() {
					interrupt = true
					session.Pause(true, now())
				}
				if event.Round.Phase == domain.RoundPhaseEnded &&
					session.IsCompleted() {
					completed = true
					a.StopSession()
				}
				return a, nil
			},
		); err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				continue
			}
			return err
		}

		if !changed {
			continue
		}
		s.notify(ActionSessionRoundChanged, key, network, RoundChangedPayload{
			RoundID:       event.Round.ID,
			Phase:         event.Round.Phase.String(),
			PhaseDeadline: event.PhaseDeadline,
		})
		if interrupt || completed {
			s.unregister(ctx, network, key)
		}
		if interrupt {
			s.notify(ActionSessionPause, key, network, SessionPausePayload{
				Interrupt: true,
			})
		}
		if completed {
			s.notify(ActionSessionCompleted, key, network, nil)
		}
	}
	return nil
}

func (s *coinjoinService) OnSessionPhase(
	ctx context.Context, network string, event ports.SessionPhaseEvent,
) error {
	phase, err := domain.SessionPhaseFromCode(event.Phase)
	if err != nil {
		return err
	}

	for _, key := range event.AccountKeys {
		changed := false
		if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
			ctx, key,
			func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
				if a.Session == nil || a.Session.Interrupted {
					return a, nil
				}
				if err := a.Session.SetPhase(phase); err != nil {
					return nil, err
				}
				changed = true
				return a, nil
			},
		); err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				continue
			}
			return err
		}
		if changed {
			s.notify(ActionSessionPhase, key, network, SessionPhasePayload{
				Phase: event.Phase,
				Round: phase.Round.String(),
				Step:  phase.Step,
			})
		}
	}
	return nil
}

func (s *coinjoinService) OnCoinjoinRequest(
	ctx context.Context, network string, event ports.RequestEvent,
) error {
	instance, ok := s.registry.Get(network)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientNotFound, network)
	}

	for _, key := range event.AccountKeys {
		result, err := s.signRequest(ctx, instance, key, event)

		resp := ports.RequestResponse{
			RequestID:  event.RequestID,
			AccountKey: key,
			Result:     result,
			Err:        err,
		}
		if err := instance.Client.ResolveRequest(ctx, resp); err != nil {
			log.WithError(err).Warnf(
				"failed to resolve coinjoin request %s for account %s",
				event.RequestID, key,
			)
		}
	}
	return nil
}

func (s *coinjoinService) OnCoordinatorError(
	ctx context.Context, network string, event ports.ErrorEvent,
) error {
	for _, key := range event.AccountKeys {
		changed := false
		if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
			ctx, key,
			func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
				if a.Session == nil || a.Session.Interrupted {
					return a, nil
				}
				a.Session.Pause(true, now())
				changed = true
				return a, nil
			},
		); err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				continue
			}
			return err
		}
		if changed {
			log.WithError(event.Err).Warnf(
				"coordinator error, interrupted session of account %s", key,
			)
			s.notify(ActionSessionPause, key, network, SessionPausePayload{
				Interrupt: true,
			})
		}
	}
	return nil
}

// signRequest prepares and signs the coinjoin transaction for the given
// account. Only active sessions, or those with an interrupt deferred to the
// end of the critical phase, are allowed to sign.
func (s *coinjoinService) signRequest(
	ctx context.Context,
	instance *ClientInstance,
	accountKey string,
	event ports.RequestEvent,
) (*domain.SignResult, error) {
	network := instance.Network
	fail := func(err error) (*domain.SignResult, error) {
		s.notify(ActionSessionTxFailed, accountKey, network, SessionFailurePayload{
			Reason: err.Error(),
		})
		return nil, err
	}

	cjAccount, err := s.repo.CoinjoinAccountRepository().GetAccount(ctx, accountKey)
	if err != nil {
		return nil, err
	}
	session := cjAccount.Session
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	if session.Interrupted {
		return nil, domain.ErrSessionInterrupted
	}
	if !session.CanSign() {
		return nil, domain.ErrSessionPaused
	}

	account, err := s.walletAccount(ctx, accountKey)
	if err != nil {
		return fail(err)
	}
	req, err := PrepareCoinjoinTransaction(
		*account, event.Transaction, event.Round.ID, instance.Params,
	)
	if err != nil {
		return fail(err)
	}
	result, err := s.device.SignTransaction(ctx, *req)
	if err != nil {
		return fail(err)
	}

	var signed *domain.CoinjoinSession
	if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
		ctx, accountKey,
		func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
			if a.Session == nil || a.Session.ID != session.ID || !a.Session.CanSign() {
				return nil, ErrStaleSession
			}
			a.Session.AddSignedRound(event.Round.ID)
			signed = a.Session
			return a, nil
		},
	); err != nil {
		return fail(err)
	}

	signedInputs := 0
	for _, in := range req.Inputs {
		if !in.IsExternal() {
			signedInputs++
		}
	}
	s.notify(ActionSessionTxSigned, accountKey, network, TxSignedPayload{
		RoundID:       event.Round.ID,
		SignedInputs:  signedInputs,
		SignedRounds:  len(signed.SignedRounds),
		MaxRounds:     signed.Parameters.MaxRounds,
		SessionPaused: signed.Paused,
	})
	return result, nil
}

// ensureClient creates and enables the client of the given network if not
// already done, and returns the coordinator status.
func (s *coinjoinService) ensureClient(
	ctx context.Context, network string,
) (*domain.CoordinatorStatus, error) {
	if status := s.registry.Status(network); status != nil {
		return status, nil
	}

	s.notify(ActionClientEnable, "", network, nil)
	if _, err := s.registry.Create(network); err != nil {
		s.notify(ActionClientEnableFailed, "", network, SessionFailurePayload{
			Reason: err.Error(),
		})
		return nil, err
	}
	status, err := s.registry.Enable(ctx, network)
	if err != nil {
		s.notify(ActionClientEnableFailed, "", network, SessionFailurePayload{
			Reason: err.Error(),
		})
		accounts, _ := s.repo.CoinjoinAccountRepository().GetAccountsByNetwork(
			ctx, network,
		)
		if len(accounts) <= 0 {
			s.registry.Remove(network)
		}
		return nil, err
	}
	s.notify(ActionClientEnableSuccess, "", network, *status)
	return status, nil
}

// register registers the account with the coordinator on behalf of the
// given session. If the session changed while waiting for the coordinator,
// the registration is reverted.
func (s *coinjoinService) register(
	ctx context.Context,
	instance *ClientInstance,
	accountKey, sessionID string,
	params domain.RegisterAccountParams,
	removeOnFailure bool,
) error {
	network := instance.Network
	if err := instance.Client.RegisterAccount(ctx, params); err != nil {
		err = ClassifyCoordinatorError(err, false)
		if removeOnFailure {
			s.removeSession(ctx, accountKey, sessionID)
		}
		s.notify(ActionSessionStartFailed, accountKey, network, SessionFailurePayload{
			Reason: err.Error(),
		})
		return err
	}

	cjAccount, err := s.repo.CoinjoinAccountRepository().GetAccount(ctx, accountKey)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}
	if cjAccount == nil || cjAccount.Session == nil ||
		cjAccount.Session.ID != sessionID || cjAccount.Session.Interrupted {
		log.Debugf(
			"session %s of account %s changed during registration, reverting",
			sessionID, accountKey,
		)
		if err := instance.Client.UnregisterAccount(ctx, accountKey); err != nil {
			log.WithError(err).Warnf("failed to unregister account %s", accountKey)
		}
		return ErrStaleSession
	}

	s.notify(ActionSessionStart, accountKey, network, nil)
	return nil
}

func (s *coinjoinService) unregister(ctx context.Context, network, accountKey string) {
	instance, ok := s.registry.Get(network)
	if !ok {
		return
	}
	if err := instance.Client.UnregisterAccount(ctx, accountKey); err != nil {
		log.WithError(err).Warnf(
			"failed to unregister account %s from coordinator", accountKey,
		)
	}
}

func (s *coinjoinService) removeSession(
	ctx context.Context, accountKey, sessionID string,
) {
	if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
		ctx, accountKey,
		func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
			if a.Session != nil && a.Session.ID == sessionID {
				a.RemoveSession()
			}
			return a, nil
		},
	); err != nil {
		log.WithError(err).Warnf("failed to remove session of account %s", accountKey)
	}
}

func (s *coinjoinService) interruptSession(
	ctx context.Context, accountKey, sessionID string,
) {
	if err := s.repo.CoinjoinAccountRepository().UpdateAccount(
		ctx, accountKey,
		func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
			if a.Session != nil && a.Session.ID == sessionID {
				a.Session.Pause(true, now())
			}
			return a, nil
		},
	); err != nil {
		log.WithError(err).Warnf(
			"failed to interrupt session of account %s", accountKey,
		)
	}
}

func (s *coinjoinService) pauseInterrupt(
	ctx context.Context,
	accounts []domain.CoinjoinAccount,
	filter func(domain.CoinjoinAccount) bool,
) error {
	for _, account := range accounts {
		session := account.Session
		if session == nil || session.Interrupted || !filter(account) {
			continue
		}
		if err := s.PauseCoinjoinSession(ctx, account.Key, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *coinjoinService) setAccountStatus(
	ctx context.Context,
	account domain.Account,
	status domain.AccountStatus,
	syncing bool,
) error {
	account.Status = status
	account.Syncing = syncing
	if err := s.wallet.UpdateAccount(ctx, account); err != nil {
		return err
	}
	return s.repo.CoinjoinAccountRepository().UpdateAccount(
		ctx, account.Key,
		func(a *domain.CoinjoinAccount) (*domain.CoinjoinAccount, error) {
			a.Status = status
			a.Syncing = syncing
			return a, nil
		},
	)
}

func (s *coinjoinService) scanAccount(
	ctx context.Context, backend ports.CoinjoinBackend, account domain.Account,
) (domain.Account, error) {
	if backend == nil {
		return account, fmt.Errorf("missing coinjoin backend")
	}

	events, err := backend.ScanAccount(ctx, ports.ScanAccountRequest{
		AccountKey: account.Key,
		Descriptor: account.Path,
		Symbol:     account.Symbol,
	})
	if err != nil {
		return account, err
	}

	for {
		select {
		case <-ctx.Done():
			return account, ctx.Err()
		case event, ok := <-events:
			if !ok {
				return account, nil
			}
			if event.Err != nil {
				return account, event.Err
			}
			account = mergeScanEvent(account, event)
		}
	}
}

func (s *coinjoinService) walletAccount(
	ctx context.Context, accountKey string,
) (*domain.Account, error) {
	account, err := s.wallet.GetAccount(ctx, accountKey)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrWalletAccountNotFound, accountKey)
	}
	return account, nil
}

func (s *coinjoinService) timePerRound(skip *domain.SkipRounds) time.Duration {
	if skip == nil {
		return anonymity.EstimatedTimePerRound(0, 0, s.estimates)
	}
	return anonymity.EstimatedTimePerRound(
		skip.Numerator, skip.Denominator, s.estimates,
	)
}

func (s *coinjoinService) notify(
	actionType, accountKey, network string, payload interface{},
) {
	s.observersLock.Lock()
	defer s.observersLock.Unlock()

	action := ports.Action{
		Type:       actionType,
		AccountKey: accountKey,
		Network:    network,
		Payload:    payload,
	}
	for _, o := range s.observers {
		o.Notify(action)
	}
}

func mergeScanEvent(account domain.Account, event ports.ScanEvent) domain.Account {
	spent := make(map[string]struct{}, len(event.SpentOutpoints))
	for _, o := range event.SpentOutpoints {
		spent[o] = struct{}{}
	}

	utxos := make([]domain.Utxo, 0, len(account.Utxos)+len(event.Utxos))
	index := make(map[string]int)
	for _, u := range append(append([]domain.Utxo{}, account.Utxos...), event.Utxos...) {
		outpoint := u.Outpoint()
		if _, ok := spent[outpoint]; ok {
			continue
		}
		if i, ok := index[outpoint]; ok {
			utxos[i] = u
			continue
		}
		index[outpoint] = len(utxos)
		utxos = append(utxos, u)
	}
	account.Utxos = utxos

	if addresses := event.Addresses; addresses != nil {
		set := make(map[string]int)
		for addr, level := range account.Addresses.AnonymitySet {
			set[addr] = level
		}
		for addr, level := range addresses.AnonymitySet {
			set[addr] = level
		}
		account.Addresses = domain.Addresses{
			Change:       addresses.Change,
			Used:         addresses.Used,
			Unused:       addresses.Unused,
			AnonymitySet: set,
		}
	}
	return account
}

func now() int64 {
	return time.Now().Unix()
}
