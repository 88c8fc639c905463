package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var broadcastCmd = cli.Command{
	Name:  "broadcast",
	Usage: "publish a signed transaction to the network",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "hex",
			Usage:    "the signed transaction in hex",
			Required: true,
		},
	},
	Action: broadcastAction,
}

func broadcastAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	txid, err := svc.Broadcast(context.Background(), ctx.String("hex"), nil)
	if err != nil {
		return err
	}
	printRespJSON(map[string]string{"txid": txid})
	return nil
}
