package main

import (
	"context"
	"os"

	"github.com/tdex-network/coinjoind/pkg/stats"
	"github.com/urfave/cli/v2"
)

var metrics = cli.Command{
	Name:   "metrics",
	Usage:  "print the session metrics of the persisted accounts",
	Action: metricsAction,
}

func metricsAction(*cli.Context) error {
	list, err := appConfig.CoinjoinService().ListCoinjoinAccounts(
		context.Background(),
	)
	if err != nil {
		return err
	}

	recorder.ObserveAccounts(list)
	return stats.WriteMetrics(os.Stdout, recorder.Gatherer())
}
