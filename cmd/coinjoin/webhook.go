package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var (
	actionFlag = cli.StringFlag{
		Name:  "action",
		Usage: "the action type to notify, * for all actions",
		Value: domain.AllActions,
	}
	endpointFlag = cli.StringFlag{
		Name:     "endpoint",
		Usage:    "the endpoint to notify",
		Required: true,
	}
	secretFlag = cli.StringFlag{
		Name:  "secret",
		Usage: "the secret used to sign the notifications",
	}
	listActionFlag = cli.StringFlag{
		Name:  "action",
		Usage: "list only the hooks notified of this action type",
	}
)

var webhook = cli.Command{
	Name:  "webhook",
	Usage: "manage the webhooks notified of the coinjoin actions",
	Subcommands: []*cli.Command{
		{
			Name:   "add",
			Usage:  "add a webhook",
			Action: addWebhookAction,
			Flags:  []cli.Flag{&actionFlag, &endpointFlag, &secretFlag},
		},
		{
			Name:      "remove",
			Usage:     "remove a webhook",
			ArgsUsage: "<hook_id>",
			Action:    removeWebhookAction,
		},
		{
			Name:   "list",
			Usage:  "list the webhooks",
			Action: listWebhooksAction,
			Flags:  []cli.Flag{&listActionFlag},
		},
	},
}

func addWebhookAction(ctx *cli.Context) error {
	id, err := webhooks.Subscribe(
		context.Background(),
		ctx.String(actionFlag.Name),
		ctx.String(endpointFlag.Name),
		ctx.String(secretFlag.Name),
	)
	if err != nil {
		return err
	}

	fmt.Println("webhook added with id " + id)
	return nil
}

func removeWebhookAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("hook id is missing")
	}

	if err := webhooks.Unsubscribe(
		context.Background(), ctx.Args().First(),
	); err != nil {
		return err
	}

	fmt.Println("webhook removed")
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	hooks, err := webhooks.ListSubscriptions(
		context.Background(), ctx.String(listActionFlag.Name),
	)
	if err != nil {
		return err
	}

	list := make([]map[string]string, 0, len(hooks))
	for _, h := range hooks {
		list = append(list, map[string]string{
			"id":       h.ID,
			"action":   h.ActionType,
			"endpoint": h.Endpoint,
			"secured":  fmt.Sprintf("%t", h.IsSecured()),
		})
	}
	printJSON(list)
	return nil
}
