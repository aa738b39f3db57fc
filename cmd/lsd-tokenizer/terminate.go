package main

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/tokenizer"
)

var terminateCMD = &cli.Command{
	Name:      "terminate",
	Usage:     "Dismantle a matured position and reclaim rent",
	ArgsUsage: "<position> <underlying_mint>",
	Subcommands: []*cli.Command{
		{
			Name:      "terminate",
			Usage:     "Close the mints, the vault and the position account",
			ArgsUsage: "<position> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runTerminate(c, tokenizer.Terminate)
			},
		},
		{
			Name:      "tokenizer",
			Usage:     "Close the vault and the position account",
			ArgsUsage: "<position> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runTerminate(c, tokenizer.TerminatePosition)
			},
		},
		{
			Name:      "mints",
			Usage:     "Close the principal and yield token mints",
			ArgsUsage: "<position> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runTerminate(c, func(authority, position, underlyingMint ed25519.PublicKey) (solana.Instruction, error) {
					return tokenizer.TerminateMints(authority, position)
				})
			},
		},
	},
}

func runTerminate(c *cli.Context, build func(authority, position, underlyingMint ed25519.PublicKey) (solana.Instruction, error)) error {
	if c.Args().Len() != 2 {
		return errors.New("expected arguments: <position> <underlying_mint>")
	}

	position, err := parseKey(c.Args().Get(0))
	if err != nil {
		return err
	}
	underlyingMint, err := parseKey(c.Args().Get(1))
	if err != nil {
		return err
	}

	payer, err := loadPayer()
	if err != nil {
		return err
	}

	instruction, err := build(payer.Public().(ed25519.PublicKey), position, underlyingMint)
	if err != nil {
		return err
	}
	return submit(solana.New(rpcURL), payer, instruction)
}
