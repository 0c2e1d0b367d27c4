package main

import (
	"fmt"

	"github.com/tdex-network/coinjoind/internal/config"
	"github.com/urfave/cli/v2"
)

var configCmd = cli.Command{
	Name:   "config",
	Usage:  "print the configuration in use",
	Action: configAction,
}

func configAction(*cli.Context) error {
	estimates := config.GetEstimates()
	breaker := config.GetBreakerSettings()

	fmt.Println("datadir: " + config.GetDatadir())
	fmt.Println("db_type: " + config.GetString(config.DBTypeKey))
	fmt.Printf("networks: %v\n", config.GetNetworks())
	fmt.Printf("default_target_anonymity: %d\n", config.GetInt(config.DefaultTargetAnonymityKey))
	fmt.Printf("anonymity_gained_per_round: %v\n", estimates.AnonymityGainedPerRound)
	fmt.Printf("rounds_fail_rate_buffer: %v\n", estimates.RoundsFailRateBuffer)
	fmt.Printf("min_rounds_needed: %d\n", estimates.MinRoundsNeeded)
	fmt.Printf("hours_per_round: %v\n", estimates.HoursPerRound)
	fmt.Printf("scan_rate_limit: %d\n", config.GetInt(config.ScanRateLimitKey))
	fmt.Println("send_route: " + config.GetString(config.SendRouteKey))
	fmt.Println("wallet_app: " + config.GetString(config.WalletAppKey))
	fmt.Printf("breaker_max_failing_requests: %d\n", breaker.MaxNumOfFailingRequests)
	fmt.Printf("breaker_failing_ratio: %v\n", breaker.FailingRatio)

	return nil
}
