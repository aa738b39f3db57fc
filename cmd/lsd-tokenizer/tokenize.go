package main

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/tokenizer"
)

var tokenizeCMD = &cli.Command{
	Name:      "tokenize",
	Usage:     "Deposit underlying and mint principal and yield tokens",
	ArgsUsage: "<position> <amount> <underlying_mint>",
	Subcommands: []*cli.Command{
		{
			Name:      "deposit",
			Usage:     "Deposit underlying into the position's vault",
			ArgsUsage: "<position> <amount> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runUserOp(c, tokenizer.Deposit)
			},
		},
		{
			Name:      "principal",
			Usage:     "Mint principal tokens against deposited underlying",
			ArgsUsage: "<position> <amount> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runUserOp(c, func(user, position, underlyingMint ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
					return tokenizer.TokenizePrincipal(user, position, amount)
				})
			},
		},
		{
			Name:      "yield",
			Usage:     "Mint yield tokens against deposited underlying",
			ArgsUsage: "<position> <amount> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runUserOp(c, func(user, position, underlyingMint ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
					return tokenizer.TokenizeYield(user, position, amount)
				})
			},
		},
		{
			Name:      "principal-yield",
			Usage:     "Deposit underlying and mint both derivative tokens atomically",
			ArgsUsage: "<position> <amount> <underlying_mint>",
			Action: func(c *cli.Context) error {
				return runUserOp(c, tokenizer.DepositAndTokenize)
			},
		},
	},
}

// runUserOp parses the shared <position> <amount> <underlying_mint> argument
// form, builds the instruction and submits it signed by the payer.
func runUserOp(c *cli.Context, build func(user, position, underlyingMint ed25519.PublicKey, amount uint64) (solana.Instruction, error)) error {
	if c.Args().Len() != 3 {
		return errors.New("expected arguments: <position> <amount> <underlying_mint>")
	}

	position, err := parseKey(c.Args().Get(0))
	if err != nil {
		return err
	}
	amount, err := parseAmount(c.Args().Get(1))
	if err != nil {
		return err
	}
	underlyingMint, err := parseKey(c.Args().Get(2))
	if err != nil {
		return err
	}

	payer, err := loadPayer()
	if err != nil {
		return err
	}

	instruction, err := build(payer.Public().(ed25519.PublicKey), position, underlyingMint, amount)
	if err != nil {
		return err
	}
	return submit(solana.New(rpcURL), payer, instruction)
}
