package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "lsd-tokenizer"
	app.Usage = "Tokenize yield bearing assets into tradable principal and yield tokens"

	app.Flags = []cli.Flag{
		configFlag,
		rpcFlag,
		payerFlag,
	}
	app.Before = func(c *cli.Context) error {
		return loadConfig()
	}

	app.Commands = []*cli.Command{
		initCMD,
		tokenizeCMD,
		redeemCMD,
		terminateCMD,
		positionCMD,
		airdropCMD,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}
