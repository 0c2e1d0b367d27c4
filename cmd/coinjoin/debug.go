package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var (
	coordinatorURLFlag = cli.StringSliceFlag{
		Name:  "coordinator_url",
		Usage: "the coordinator url to use for a network in the form <network>=<url>",
	}
	disableTorFlag = cli.BoolFlag{
		Name:  "disable_tor",
		Usage: "don't block sessions when tor is disabled",
	}
	logRoundsFlag = cli.BoolFlag{
		Name:  "log_rounds",
		Usage: "log every round event",
	}
)

var debug = cli.Command{
	Name:   "debug",
	Usage:  "print the coinjoin debug settings",
	Action: getDebugSettingsAction,
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "update the coinjoin debug settings",
			Action: setDebugSettingsAction,
			Flags: []cli.Flag{
				&coordinatorURLFlag,
				&disableTorFlag,
				&logRoundsFlag,
			},
		},
	},
}

func getDebugSettingsAction(*cli.Context) error {
	settings, err := appConfig.RepoManager().DebugSettingsRepository().
		GetDebugSettings(context.Background())
	if err != nil {
		return err
	}

	printJSON(settings)
	return nil
}

func setDebugSettingsAction(ctx *cli.Context) error {
	repo := appConfig.RepoManager().DebugSettingsRepository()
	current, err := repo.GetDebugSettings(context.Background())
	if err != nil {
		return err
	}

	settings := domain.DebugSettings{
		CoordinatorURLs: make(map[string]string),
		DisableTor:      current.DisableTor,
		LogRounds:       current.LogRounds,
	}
	for k, v := range current.CoordinatorURLs {
		settings.CoordinatorURLs[k] = v
	}
	urls, err := parseCoordinatorURLs(ctx.StringSlice(coordinatorURLFlag.Name))
	if err != nil {
		return err
	}
	for network, url := range urls {
		settings.CoordinatorURLs[network] = url
	}
	if ctx.IsSet(disableTorFlag.Name) {
		settings.DisableTor = ctx.Bool(disableTorFlag.Name)
	}
	if ctx.IsSet(logRoundsFlag.Name) {
		settings.LogRounds = ctx.Bool(logRoundsFlag.Name)
	}

	if err := appConfig.CoinjoinService().SaveDebugSettings(
		context.Background(), settings,
	); err != nil {
		return err
	}

	fmt.Println("debug settings updated")
	return nil
}

func parseCoordinatorURLs(values []string) (map[string]string, error) {
	urls := make(map[string]string)
	for _, v := range values {
		split := strings.SplitN(v, "=", 2)
		if len(split) != 2 || split[0] == "" || split[1] == "" {
			return nil, fmt.Errorf(
				"invalid coordinator url %s, must be in the form <network>=<url>", v,
			)
		}
		urls[split[0]] = split[1]
	}
	return urls, nil
}
