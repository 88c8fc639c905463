package main

import (
	"context"

	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/urfave/cli/v2"
)

var addressCmd = cli.Command{
	Name:  "address",
	Usage: "derive a receiving address",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "index",
			Usage: "derive at a specific index instead of the first unused one",
			Value: -1,
		},
	},
	Action: addressAction,
}

var syncCmd = cli.Command{
	Name:   "sync",
	Usage:  "scan the blockchain for wallet activity",
	Action: syncAction,
}

var balanceCmd = cli.Command{
	Name:   "balance",
	Usage:  "get the wallet balance per asset",
	Action: balanceAction,
}

var utxosCmd = cli.Command{
	Name:   "utxos",
	Usage:  "list the unspent wallet outputs",
	Action: utxosAction,
}

var txsCmd = cli.Command{
	Name:  "txs",
	Usage: "list the wallet transaction history, newest first",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "the number of transactions to be listed. If omitted, the entire list is returned",
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "the number of transactions to skip",
		},
	},
	Action: txsAction,
}

var tipCmd = cli.Command{
	Name:   "tip",
	Usage:  "get the best block known to the wallet",
	Action: tipAction,
}

func addressAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if index := ctx.Int64("index"); index >= 0 {
		addr, err := svc.AddressAt(
			context.Background(), descriptor.External, uint32(index),
		)
		if err != nil {
			return err
		}
		printRespJSON(map[string]interface{}{"address": addr, "index": index})
		return nil
	}

	addr, index, err := svc.Address(context.Background())
	if err != nil {
		return err
	}
	printRespJSON(map[string]interface{}{"address": addr, "index": index})
	return nil
}

func syncAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := svc.Sync(context.Background())
	if err != nil {
		return err
	}
	printRespJSON(summary)
	return nil
}

func balanceAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	balance, err := svc.Balance(context.Background())
	if err != nil {
		return err
	}
	printRespJSON(balance)
	return nil
}

func utxosAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	utxos, err := svc.Utxos(context.Background())
	if err != nil {
		return err
	}
	printRespJSON(utxos)
	return nil
}

func txsAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	txs, err := svc.Transactions(
		context.Background(), ctx.Int("limit"), ctx.Int("offset"),
	)
	if err != nil {
		return err
	}
	printRespJSON(txs)
	return nil
}

func tipAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	tip, err := svc.Tip(context.Background())
	if err != nil {
		return err
	}
	printRespJSON(tip)
	return nil
}
