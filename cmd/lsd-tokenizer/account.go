package main

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/tokenizer"
)

var positionCMD = &cli.Command{
	Name:      "position",
	Usage:     "Show a position's on-chain state and vault balance",
	ArgsUsage: "<position>",
	Action:    showPosition,
}

func showPosition(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("expected arguments: <position>")
	}
	position, err := parseKey(c.Args().Get(0))
	if err != nil {
		return err
	}

	client := solana.New(rpcURL)
	info, err := client.GetAccountInfo(position, solana.CommitmentConfirmed)
	if err != nil {
		return errors.Wrap(err, "failed to get position account")
	}
	if !bytes.Equal(info.Owner, tokenizer.ProgramKey) {
		return errors.New("account is not owned by the tokenizer program")
	}

	var state tokenizer.Position
	if !state.Unmarshal(info.Data) {
		return errors.New("account does not hold position state")
	}

	vaultBalance, _, err := client.GetTokenAccountBalance(state.UnderlyingVault)
	if err != nil {
		return errors.Wrap(err, "failed to get vault balance")
	}
	rent, err := client.GetMinimumBalanceForRentExemption(uint64(len(info.Data)))
	if err != nil {
		return errors.Wrap(err, "failed to get rent-exempt minimum")
	}

	fmt.Printf("%-17s %s\n", "authority:", base58.Encode(state.Authority))
	fmt.Printf("%-17s %s\n", "underlying mint:", base58.Encode(state.UnderlyingMint))
	fmt.Printf("%-17s %s\n", "underlying vault:", base58.Encode(state.UnderlyingVault))
	fmt.Printf("%-17s %s\n", "principal mint:", base58.Encode(state.PrincipalTokenMint))
	fmt.Printf("%-17s %s\n", "yield mint:", base58.Encode(state.YieldTokenMint))
	fmt.Printf("%-17s %s\n", "expiry date:", time.Unix(state.ExpiryDate, 0).UTC().Format(time.RFC3339))
	fmt.Printf("%-17s %d\n", "fixed apy:", state.FixedAPY)
	fmt.Printf("%-17s %d\n", "vault balance:", vaultBalance)
	fmt.Printf("%-17s %d (rent-exempt minimum: %d)\n", "lamports:", info.Lamports, rent)
	return nil
}

var airdropCMD = &cli.Command{
	Name:      "airdrop",
	Usage:     "Request lamports from the cluster faucet for the payer",
	ArgsUsage: "<lamports>",
	Action:    requestAirdrop,
}

func requestAirdrop(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("expected arguments: <lamports>")
	}
	lamports, err := parseAmount(c.Args().Get(0))
	if err != nil {
		return err
	}

	payer, err := loadPayer()
	if err != nil {
		return err
	}
	account := payer.Public().(ed25519.PublicKey)

	client := solana.New(rpcURL)
	sig, err := client.RequestAirdrop(account, lamports, solana.CommitmentConfirmed)
	if err != nil {
		return errors.Wrap(err, "failed to request airdrop")
	}
	if _, err := client.GetSignatureStatus(sig, solana.CommitmentConfirmed); err != nil {
		return errors.Wrap(err, "failed to confirm airdrop")
	}

	balance, err := client.GetBalance(account)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}

	fmt.Printf("signature: %s\n", base58.Encode(sig[:]))
	fmt.Printf("balance:   %d\n", balance)
	return nil
}
