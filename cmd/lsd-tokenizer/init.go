package main

import (
	"crypto/ed25519"
	"fmt"
	"strconv"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/tokenizer"
)

var initCMD = &cli.Command{
	Name:      "init",
	Usage:     "Initialize a position and its derivative mints",
	ArgsUsage: "<underlying_mint> <expiry{12|18|24}>",
	Subcommands: []*cli.Command{
		{
			Name:      "tokenizer",
			Usage:     "Create the position account and its underlying vault",
			ArgsUsage: "<underlying_mint> <expiry{12|18|24}>",
			Action:    initTokenizer,
		},
		{
			Name:      "mints",
			Usage:     "Create the principal and yield token mints",
			ArgsUsage: "<underlying_mint> <expiry{12|18|24}>",
			Action:    initMints,
		},
		{
			Name:      "tokenizer-mints",
			Usage:     "Create the position, vault and both mints atomically",
			ArgsUsage: "<underlying_mint> <expiry{12|18|24}>",
			Action:    initTokenizerMints,
		},
		{
			Name:      "amm",
			Usage:     "Create an AMM for trading principal and yield tokens",
			ArgsUsage: "<underlying_mint> <expiry{12|18|24}>",
			Action: func(c *cli.Context) error {
				return errors.New("amm initialization is not implemented")
			},
		},
	},
}

type initArgs struct {
	underlyingMint ed25519.PublicKey
	expiry         tokenizer.Expiry
}

func parseInitArgs(c *cli.Context) (*initArgs, error) {
	if c.Args().Len() != 2 {
		return nil, errors.New("expected arguments: <underlying_mint> <expiry{12|18|24}>")
	}

	underlyingMint, err := parseKey(c.Args().Get(0))
	if err != nil {
		return nil, err
	}

	months, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid expiry: %s", c.Args().Get(1))
	}
	expiry, ok := tokenizer.ExpiryFromMonths(months)
	if !ok {
		return nil, errors.Errorf("invalid expiry: %d (expected 12, 18 or 24)", months)
	}

	return &initArgs{
		underlyingMint: underlyingMint,
		expiry:         expiry,
	}, nil
}

func initTokenizer(c *cli.Context) error {
	return runInit(c, tokenizer.InitializePosition)
}

func initMints(c *cli.Context) error {
	return runInit(c, func(authority, underlyingMint ed25519.PublicKey, expiry tokenizer.Expiry, anchor int64, fixedAPY uint64) (solana.Instruction, error) {
		return tokenizer.InitializeMints(authority, underlyingMint, expiry, anchor)
	})
}

func initTokenizerMints(c *cli.Context) error {
	return runInit(c, tokenizer.InitializePositionAndMints)
}

func runInit(c *cli.Context, build func(authority, underlyingMint ed25519.PublicKey, expiry tokenizer.Expiry, anchor int64, fixedAPY uint64) (solana.Instruction, error)) error {
	args, err := parseInitArgs(c)
	if err != nil {
		return err
	}

	payer, err := loadPayer()
	if err != nil {
		return err
	}

	client := solana.New(rpcURL)
	anchor, err := blockTime(client)
	if err != nil {
		return err
	}

	expiryDate, _ := args.expiry.ToExpiryDate(anchor)
	position, _, err := tokenizer.GetPositionAddress(&tokenizer.GetPositionAddressArgs{
		UnderlyingMint: args.underlyingMint,
		ExpiryDate:     expiryDate,
	})
	if err != nil {
		return err
	}
	fmt.Printf("position: %s\n", base58.Encode(position))

	instruction, err := build(payer.Public().(ed25519.PublicKey), args.underlyingMint, args.expiry, anchor, 0)
	if err != nil {
		return err
	}
	return submit(client, payer, instruction)
}
