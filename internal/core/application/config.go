package application

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	"github.com/tdex-network/coinjoind/internal/infrastructure/coordinator"
	dbbadger "github.com/tdex-network/coinjoind/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/coinjoind/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/coinjoind/pkg/anonymity"
	"github.com/tdex-network/coinjoind/pkg/circuitbreaker"
)

const (
	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBInMemory: {},
	}
)

type Config struct {
	DBType   string
	DBConfig interface{}

	Networks           []string
	CoordinatorFactory ports.CoordinatorFactory
	Device             ports.Device
	WalletStore        ports.WalletAccountStore
	Observers          []ports.ActionObserver

	Estimates              anonymity.Estimates
	DefaultTargetAnonymity int
	ScanRateLimit          int
	SendRoute              string
	WalletApp              string
	// BreakerSettings, if not nil, makes every coordinator client go through
	// a circuit breaker.
	BreakerSettings *circuitbreaker.Settings

	repo         ports.RepoManager
	registry     *ClientRegistry
	coinjoin     CoinjoinService
	orchestrator *Orchestrator
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("unsupported db type %s", c.DBType)
	}
	if c.CoordinatorFactory == nil {
		return fmt.Errorf("missing coordinator factory")
	}
	if c.Device == nil {
		return fmt.Errorf("missing device")
	}
	if c.WalletStore == nil {
		return fmt.Errorf("missing wallet account store")
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.clientRegistry(); err != nil {
		return err
	}
	if _, err := c.coinjoinService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) ClientRegistry() *ClientRegistry {
	registry, _ := c.clientRegistry()
	return registry
}

func (c *Config) CoinjoinService() CoinjoinService {
	svc, _ := c.coinjoinService()
	return svc
}

func (c *Config) Orchestrator() *Orchestrator {
	svc, _ := c.orchestratorService()
	return svc
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.StandardLogger())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		case DBInMemory:
			c.repo = inmemory.NewRepoManager()
		default:
			return nil, fmt.Errorf("unsupported db type %s", c.DBType)
		}
	}
	return c.repo, nil
}

func (c *Config) clientRegistry() (*ClientRegistry, error) {
	if c.registry == nil {
		var decorator ClientDecorator
		if c.BreakerSettings != nil {
			settings := *c.BreakerSettings
			decorator = func(
				network string, client ports.CoinjoinClient,
			) ports.CoinjoinClient {
				return coordinator.NewGuardedClient(network, client, settings)
			}
		}
		registry, err := NewClientRegistry(
			c.CoordinatorFactory, c.Networks, decorator,
		)
		if err != nil {
			return nil, err
		}
		c.registry = registry
	}
	return c.registry, nil
}

func (c *Config) coinjoinService() (CoinjoinService, error) {
	if c.coinjoin == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		registry, err := c.clientRegistry()
		if err != nil {
			return nil, err
		}
		estimates := c.Estimates
		if estimates == (anonymity.Estimates{}) {
			estimates = anonymity.DefaultEstimates
		}
		svc, err := NewCoinjoinService(
			repo, c.WalletStore, c.Device, registry, estimates,
			c.ScanRateLimit, c.DefaultTargetAnonymity, c.Observers...,
		)
		if err != nil {
			return nil, err
		}
		c.coinjoin = svc
	}
	return c.coinjoin, nil
}

func (c *Config) orchestratorService() (*Orchestrator, error) {
	if c.orchestrator == nil {
		svc, err := c.coinjoinService()
		if err != nil {
			return nil, err
		}
		registry, _ := c.clientRegistry()
		orchestrator, err := NewOrchestrator(
			svc, c.WalletStore, registry, OrchestratorConfig{
				SendRoute: c.SendRoute,
				WalletApp: c.WalletApp,
			},
		)
		if err != nil {
			return nil, err
		}
		c.orchestrator = orchestrator
	}
	return c.orchestrator, nil
}
