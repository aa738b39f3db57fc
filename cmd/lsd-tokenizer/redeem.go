package main

import (
	"github.com/urfave/cli/v2"

	"github.com/serfrae/lysergic-tokenizer/pkg/tokenizer"
)

var redeemCMD = &cli.Command{
	Name:      "redeem",
	Usage:     "Redeem principal and claim yield after expiry",
	ArgsUsage: "<position> <amount> <underlying_mint>",
	Subcommands: []*cli.Command{
		{
			Name:      "principal",
			Usage:     "Redeem principal tokens for underlying",
			ArgsUsage: "<position> <amount> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runUserOp(c, tokenizer.RedeemMaturePrincipal)
			},
		},
		{
			Name:      "yield",
			Usage:     "Claim accrued yield against yield tokens",
			ArgsUsage: "<position> <amount> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runUserOp(c, tokenizer.ClaimYield)
			},
		},
		{
			Name:      "principal-yield",
			Usage:     "Redeem principal and claim yield atomically",
			ArgsUsage: "<position> <amount> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runUserOp(c, tokenizer.RedeemPrincipalAndYield)
			},
		},
	},
}
