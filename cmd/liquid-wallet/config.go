package main

import (
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/urfave/cli/v2"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "manage the wallet configuration",
	Subcommands: []*cli.Command{
		{
			Name:  "init",
			Usage: "store the wallet descriptor to watch",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "descriptor",
					Usage:    "the ct() descriptor identifying the wallet",
					Required: true,
				},
			},
			Action: configInitAction,
		},
		{
			Name:   "show",
			Usage:  "print the current configuration",
			Action: configShowAction,
		},
	},
}

func configInitAction(ctx *cli.Context) error {
	desc := ctx.String("descriptor")
	// reject malformed descriptors before persisting anything
	parsed, err := descriptor.Parse(desc)
	if err != nil {
		return err
	}

	if err := setState(map[string]string{"descriptor": parsed.String()}); err != nil {
		return err
	}

	printRespJSON(map[string]string{"descriptor": parsed.String()})
	return nil
}

func configShowAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}
	printRespJSON(state)
	return nil
}
