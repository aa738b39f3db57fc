package main

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
)

var (
	configPath string
	rpcURL     string
	payerPath  string
)

var configFlag = &cli.StringFlag{
	Name:        "config",
	Aliases:     []string{"c"},
	Destination: &configPath,
	Usage:       "path to the config file",
}

var rpcFlag = &cli.StringFlag{
	Name:        "rpc",
	Destination: &rpcURL,
	Usage:       "rpc endpoint, overrides the config file",
}

var payerFlag = &cli.StringFlag{
	Name:        "payer",
	Destination: &payerPath,
	Usage:       "path to the payer keypair file, overrides the config file",
}

// loadConfig resolves the rpc endpoint and signing key path from flags and
// the config file, flags winning.
func loadConfig() error {
	v := viper.New()
	v.SetDefault("rpc_url", "http://127.0.0.1:8899")
	v.SetDefault("keypair_path", os.ExpandEnv("$HOME/.config/solana/id.json"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrap(err, "failed to read config file")
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(os.ExpandEnv("$HOME/.config/lsd-tokenizer"))
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return errors.Wrap(err, "failed to read config file")
			}
		}
	}

	if rpcURL == "" {
		rpcURL = v.GetString("rpc_url")
	}
	if payerPath == "" {
		payerPath = v.GetString("keypair_path")
	}
	return nil
}

// loadPayer reads a keypair file in the standard JSON byte array format.
func loadPayer() (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(payerPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keypair file")
	}

	var key []byte
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, errors.Wrap(err, "failed to parse keypair file")
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid keypair length: %d", len(key))
	}
	return ed25519.PrivateKey(key), nil
}

func parseKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address: %s", value)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address length: %s", value)
	}
	return decoded, nil
}

func parseAmount(value string) (uint64, error) {
	amount, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid amount: %s", value)
	}
	return amount, nil
}

// blockTime fetches the chain's current block time. Address derivation must
// be anchored to it, not the local clock, to match the processor.
func blockTime(client solana.Client) (int64, error) {
	slot, err := client.GetSlot(solana.CommitmentFinalized)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get slot")
	}
	t, err := client.GetBlockTime(slot)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get block time")
	}
	return t.Unix(), nil
}

func submit(client solana.Client, payer ed25519.PrivateKey, instructions ...solana.Instruction) error {
	txn := solana.NewTransaction(payer.Public().(ed25519.PublicKey), instructions...)

	blockhash, err := client.GetLatestBlockhash()
	if err != nil {
		return errors.Wrap(err, "failed to get latest blockhash")
	}
	txn.SetBlockhash(blockhash)

	if err := txn.Sign(payer); err != nil {
		return errors.Wrap(err, "failed to sign transaction")
	}

	sig, err := client.SubmitTransaction(txn, solana.CommitmentConfirmed)
	if err != nil {
		return errors.Wrap(err, "failed to submit transaction")
	}

	if _, err := client.GetSignatureStatus(sig, solana.CommitmentConfirmed); err != nil {
		return errors.Wrap(err, "failed to confirm transaction")
	}

	fmt.Printf("signature: %s\n", base58.Encode(sig[:]))
	return nil
}
