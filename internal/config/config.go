package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
	"github.com/tdex-network/coinjoind/internal/core/application"
	"github.com/tdex-network/coinjoind/pkg/anonymity"
	"github.com/tdex-network/coinjoind/pkg/circuitbreaker"
)

const (
	// DatadirKey is the local data directory to store the internal state of the daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// NetworksKey is the comma separated list of networks coinjoin is enabled for
	NetworksKey = "NETWORKS"
	// DefaultTargetAnonymityKey is the anonymity level used for new accounts
	DefaultTargetAnonymityKey = "DEFAULT_TARGET_ANONYMITY"
	// AnonymityGainedPerRoundKey is the anonymity level gained on average by every round
	AnonymityGainedPerRoundKey = "ANONYMITY_GAINED_PER_ROUND"
	// RoundsFailRateBufferKey multiplies the number of rounds needed to take failures into account
	RoundsFailRateBufferKey = "ROUNDS_FAIL_RATE_BUFFER"
	// MinRoundsNeededKey is the lower bound of the estimated number of rounds
	MinRoundsNeededKey = "MIN_ROUNDS_NEEDED"
	// HoursPerRoundKey is the estimated duration of a round in hours
	HoursPerRoundKey = "HOURS_PER_ROUND"
	// ScanRateLimitKey is the max number of account scans started per second
	ScanRateLimitKey = "SCAN_RATE_LIMIT"
	// SendRouteKey is the route of the send form, sessions are paused while it's open
	SendRouteKey = "SEND_ROUTE"
	// WalletAppKey is the app name of the wallet routes
	WalletAppKey = "WALLET_APP"
	// BreakerMaxFailingRequestsKey is the number of requests after which the coordinator breaker can trip
	BreakerMaxFailingRequestsKey = "BREAKER_MAX_FAILING_REQUESTS"
	// BreakerFailingRatioKey is the ratio of failing requests that trips the coordinator breaker
	BreakerFailingRatioKey = "BREAKER_FAILING_RATIO"
	// WebhookTimeoutKey is the timeout in seconds of the webhook requests
	WebhookTimeoutKey = "WEBHOOK_TIMEOUT"
	// EnableProfilerKey enables periodic memory statistics
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing memory statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("coinjoind", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("COINJOIN")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(NetworksKey, []string{"btc", "test", "regtest"})
	vip.SetDefault(DefaultTargetAnonymityKey, 5)
	vip.SetDefault(AnonymityGainedPerRoundKey, anonymity.DefaultEstimates.AnonymityGainedPerRound)
	vip.SetDefault(RoundsFailRateBufferKey, anonymity.DefaultEstimates.RoundsFailRateBuffer)
	vip.SetDefault(MinRoundsNeededKey, anonymity.DefaultEstimates.MinRoundsNeeded)
	vip.SetDefault(HoursPerRoundKey, anonymity.DefaultEstimates.HoursPerRound)
	vip.SetDefault(ScanRateLimitKey, 10)
	vip.SetDefault(SendRouteKey, "wallet-send")
	vip.SetDefault(WalletAppKey, "wallet")
	vip.SetDefault(BreakerMaxFailingRequestsKey, circuitbreaker.MaxNumOfFailingRequests)
	vip.SetDefault(BreakerFailingRatioKey, circuitbreaker.FailingRatio)
	vip.SetDefault(WebhookTimeoutKey, 15)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDBDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetNetworks returns the list of enabled networks. Env values can be either
// comma or space separated.
func GetNetworks() []string {
	networks := make([]string, 0)
	for _, v := range GetStringSlice(NetworksKey) {
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				networks = append(networks, n)
			}
		}
	}
	return networks
}

// GetEstimates returns the parameters of the anonymity estimations.
func GetEstimates() anonymity.Estimates {
	return anonymity.Estimates{
		AnonymityGainedPerRound: GetFloat(AnonymityGainedPerRoundKey),
		RoundsFailRateBuffer:    GetFloat(RoundsFailRateBufferKey),
		MinRoundsNeeded:         GetInt(MinRoundsNeededKey),
		HoursPerRound:           GetFloat(HoursPerRoundKey),
	}
}

// GetBreakerSettings returns the settings of the coordinator circuit breaker.
func GetBreakerSettings() circuitbreaker.Settings {
	return circuitbreaker.Settings{
		MaxNumOfFailingRequests: GetInt(BreakerMaxFailingRequestsKey),
		FailingRatio:            GetFloat(BreakerFailingRatioKey),
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	dbType := GetString(DBTypeKey)
	if _, ok := application.SupportedDBType[dbType]; !ok {
		return fmt.Errorf("db type %s not supported", dbType)
	}

	networks := GetNetworks()
	if len(networks) <= 0 {
		return fmt.Errorf("missing networks")
	}
	for _, n := range networks {
		if _, ok := application.NetworkParams[n]; !ok {
			return fmt.Errorf("network %s not supported", n)
		}
	}

	if GetInt(DefaultTargetAnonymityKey) < 1 {
		return fmt.Errorf("default target anonymity must be at least 1")
	}
	if GetFloat(AnonymityGainedPerRoundKey) <= 0 {
		return fmt.Errorf("anonymity gained per round must be positive")
	}
	if GetFloat(RoundsFailRateBufferKey) < 1 {
		return fmt.Errorf("rounds fail rate buffer must be at least 1")
	}
	if GetInt(MinRoundsNeededKey) < 0 {
		return fmt.Errorf("min rounds needed must not be negative")
	}
	if GetFloat(HoursPerRoundKey) <= 0 {
		return fmt.Errorf("hours per round must be positive")
	}
	if GetInt(ScanRateLimitKey) < 0 {
		return fmt.Errorf("scan rate limit must not be negative")
	}

	if GetInt(BreakerMaxFailingRequestsKey) <= 0 {
		return fmt.Errorf("breaker max failing requests must be positive")
	}
	ratio := GetFloat(BreakerFailingRatioKey)
	if ratio <= 0 || ratio > 1 {
		return fmt.Errorf("breaker failing ratio must be in range (0, 1]")
	}

	if GetInt(WebhookTimeoutKey) <= 0 {
		return fmt.Errorf("webhook timeout must be positive")
	}
	if GetInt(StatsIntervalKey) <= 0 {
		return fmt.Errorf("stats interval must be positive")
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return err
	}

	if GetString(DBTypeKey) == application.DBBadger {
		if err := makeDirectoryIfNotExists(GetDBDir()); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
