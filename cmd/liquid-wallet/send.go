package main

import (
	"github.com/tdex-network/liquid-wallet/config"
	"github.com/urfave/cli/v2"
)

var sendCmd = cli.Command{
	Name:  "send",
	Usage: "build an unsigned transaction paying an amount of an asset to an address",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "asset",
			Usage:    "the hash of the asset to send",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "amount",
			Usage:    "the amount in satoshis to send",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "to",
			Usage:    "the recipient address",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "fee_rate",
			Usage: "the fee rate in millisatoshis per virtual byte",
		},
	},
	Action: sendAction,
}

var sendAllCmd = cli.Command{
	Name:  "sendall",
	Usage: "build an unsigned transaction draining the whole policy asset balance to an address",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "to",
			Usage:    "the recipient address",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "fee_rate",
			Usage: "the fee rate in millisatoshis per virtual byte",
		},
	},
	Action: sendAllAction,
}

var issueCmd = cli.Command{
	Name:  "issue",
	Usage: "build an unsigned transaction minting a new asset",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:     "asset_amount",
			Usage:    "the number of asset units to mint",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:  "token_amount",
			Usage: "the number of reissuance token units to mint",
		},
		&cli.StringFlag{
			Name:     "asset_to",
			Usage:    "the address receiving the minted asset",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "token_to",
			Usage: "the address receiving the reissuance token",
		},
	},
	Action: issueAction,
}

var burnCmd = cli.Command{
	Name:  "burn",
	Usage: "build an unsigned transaction provably destroying an amount of an asset",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "asset",
			Usage:    "the hash of the asset to burn",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "amount",
			Usage:    "the amount in satoshis to burn",
			Required: true,
		},
	},
	Action: burnAction,
}

func sendAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	builder := svc.NewTransaction().AddRecipient(
		ctx.String("asset"), ctx.Uint64("amount"), ctx.String("to"),
	)
	if feeRate := ctx.Int("fee_rate"); feeRate > 0 {
		builder.WithFeeRate(feeRate)
	}

	unsigned, err := builder.Finish()
	if err != nil {
		return err
	}
	printRespJSON(unsigned)
	return nil
}

func sendAllAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	builder := svc.NewTransaction().SendAll(
		config.GetNetwork().AssetID, ctx.String("to"),
	)
	if feeRate := ctx.Int("fee_rate"); feeRate > 0 {
		builder.WithFeeRate(feeRate)
	}

	unsigned, err := builder.Finish()
	if err != nil {
		return err
	}
	printRespJSON(unsigned)
	return nil
}

func issueAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	tokenAddr := ctx.String("token_to")
	if tokenAddr == "" {
		tokenAddr = ctx.String("asset_to")
	}

	unsigned, err := svc.NewTransaction().
		Issue(
			ctx.Uint64("asset_amount"), ctx.Uint64("token_amount"),
			ctx.String("asset_to"), tokenAddr,
		).
		Finish()
	if err != nil {
		return err
	}
	printRespJSON(unsigned)
	return nil
}

func burnAction(ctx *cli.Context) error {
	svc, err := getWalletService()
	if err != nil {
		return err
	}
	defer svc.Close()

	unsigned, err := svc.NewTransaction().
		Burn(ctx.String("asset"), ctx.Uint64("amount")).
		Finish()
	if err != nil {
		return err
	}
	printRespJSON(unsigned)
	return nil
}
