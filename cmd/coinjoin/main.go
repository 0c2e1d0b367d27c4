package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/coinjoind/internal/config"
	"github.com/tdex-network/coinjoind/internal/core/application"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	"github.com/tdex-network/coinjoind/internal/infrastructure/pubsub"
	"github.com/tdex-network/coinjoind/pkg/stats"
	"github.com/urfave/cli/v2"
)

const walletAccountsFile = "accounts.json"

var (
	appConfig *application.Config
	recorder  *stats.Recorder
	webhooks  *pubsub.Service
	stopStats context.CancelFunc
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "coinjoin"
	app.Usage = "Command line interface over the persisted coinjoin state"
	app.Before = initApp
	app.After = closeApp
	app.Commands = append(
		app.Commands,
		&configCmd,
		&accounts,
		&summary,
		&restore,
		&forget,
		&debug,
		&metrics,
		&webhook,
	)

	return app
}

func initApp(*cli.Context) error {
	if err := config.InitConfig(); err != nil {
		return err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx, cancel := context.WithCancel(context.Background())
	stopStats = cancel
	if config.GetBool(config.EnableProfilerKey) {
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		stats.EnableMemoryStatistics(ctx, interval)
	}

	breakerSettings := config.GetBreakerSettings()
	recorder = stats.NewRecorder(application.ActionSessionTxSigned)
	appConfig = &application.Config{
		DBType:                 config.GetString(config.DBTypeKey),
		DBConfig:               config.GetDBDir(),
		Networks:               config.GetNetworks(),
		CoordinatorFactory:     offlineFactory{},
		Device:                 offlineDevice{},
		WalletStore:            newFileWalletStore(filepath.Join(config.GetDatadir(), walletAccountsFile)),
		Observers:              []ports.ActionObserver{recorder},
		Estimates:              config.GetEstimates(),
		DefaultTargetAnonymity: config.GetInt(config.DefaultTargetAnonymityKey),
		ScanRateLimit:          config.GetInt(config.ScanRateLimitKey),
		SendRoute:              config.GetString(config.SendRouteKey),
		WalletApp:              config.GetString(config.WalletAppKey),
		BreakerSettings:        &breakerSettings,
	}

	repo := appConfig.RepoManager()
	if repo == nil {
		return appConfig.Validate()
	}
	svc, err := pubsub.NewService(
		repo.WebhookRepository(),
		time.Duration(config.GetInt(config.WebhookTimeoutKey))*time.Second,
		breakerSettings,
	)
	if err != nil {
		return err
	}
	webhooks = svc
	appConfig.Observers = append(appConfig.Observers, webhooks)

	return appConfig.Validate()
}

func closeApp(*cli.Context) error {
	if stopStats != nil {
		stopStats()
	}
	if webhooks != nil {
		webhooks.Close()
		webhooks = nil
	}
	if appConfig == nil {
		return nil
	}
	if registry := appConfig.ClientRegistry(); registry != nil {
		registry.Close()
	}
	if repo := appConfig.RepoManager(); repo != nil {
		repo.Close()
	}
	appConfig = nil
	return nil
}

func printJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[coinjoin] %v\n", err)
	os.Exit(1)
}
