package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/opchan/core/examplewallet"
)

var keystoreFlag = &cli.StringFlag{
	Name:  "keystore",
	Usage: "path to write the generated keyfile to",
	Value: "wallet.json",
}

var commandInit = &cli.Command{
	Name:      "init",
	Usage:     "generate a new demo wallet keyfile",
	ArgsUsage: " ",
	Flags:     []cli.Flag{keystoreFlag},
	Action: func(c *cli.Context) error {
		mnemonic, err := examplewallet.GenerateMnemonic()
		if err != nil {
			return err
		}
		w, err := examplewallet.FromMnemonic(mnemonic, "")
		if err != nil {
			return err
		}
		path := c.String(keystoreFlag.Name)
		if err := w.Save(path); err != nil {
			return err
		}
		fmt.Printf("address:  %s\n", w.Address.Hex())
		fmt.Printf("mnemonic: %s\n", mnemonic)
		fmt.Printf("keyfile:  %s\n", path)
		return nil
	},
}
