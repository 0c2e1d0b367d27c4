package main

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/coinjoind/internal/core/application"
	"github.com/urfave/cli/v2"
)

var accounts = cli.Command{
	Name:   "accounts",
	Usage:  "list all the coinjoin accounts",
	Action: listAccountsAction,
}

var summary = cli.Command{
	Name:      "summary",
	Usage:     "show the anonymity summary of a coinjoin account",
	ArgsUsage: "<account_key>",
	Action:    summaryAction,
}

var restore = cli.Command{
	Name:   "restore",
	Usage:  "fix the state of the persisted accounts and sessions",
	Action: restoreAction,
}

var forget = cli.Command{
	Name:      "forget",
	Usage:     "remove one or more coinjoin accounts",
	ArgsUsage: "<account_key> [<account_key>...]",
	Action:    forgetAction,
}

func listAccountsAction(*cli.Context) error {
	list, err := appConfig.CoinjoinService().ListCoinjoinAccounts(
		context.Background(),
	)
	if err != nil {
		return err
	}

	printJSON(list)
	return nil
}

func summaryAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("account key is missing")
	}

	res, err := appConfig.CoinjoinService().GetAccountSummary(
		context.Background(), ctx.Args().First(),
	)
	if err != nil {
		return err
	}

	printJSON(map[string]interface{}{
		"account_key":              res.Account.Key,
		"network":                  res.Account.Symbol,
		"target_anonymity":         res.Account.TargetAnonymity,
		"anonymized":               res.Breakdown.Anonymized,
		"not_anonymized":           res.Breakdown.NotAnonymized,
		"progress":                 res.Progress,
		"max_rounds":               res.MaxRounds,
		"estimated_time_per_round": res.EstimatedTimePerRound.String(),
		"has_session":              res.Account.Session != nil,
	})
	return nil
}

func restoreAction(*cli.Context) error {
	if err := appConfig.CoinjoinService().RestoreCoinjoinAccounts(
		context.Background(),
	); err != nil {
		if !errors.Is(err, errCoordinatorOffline) {
			return err
		}
		log.WithError(err).Debug("skipped coordinator clients restoration")
	}

	fmt.Println("accounts restored")
	return nil
}

func forgetAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("account key is missing")
	}

	if err := appConfig.Orchestrator().Handle(
		context.Background(),
		application.AccountsRemoved{AccountKeys: ctx.Args().Slice()},
	); err != nil {
		return err
	}

	fmt.Printf("%d account(s) forgotten\n", ctx.NArg())
	return nil
}
