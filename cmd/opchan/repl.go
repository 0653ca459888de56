package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"

	"github.com/opchan/core/client"
	"github.com/opchan/core/delegation"
	"github.com/opchan/core/examplewallet"
	"github.com/opchan/core/forum"
	"github.com/opchan/core/internal/metrics"
)

var commandRepl = &cli.Command{
	Name:  "repl",
	Usage: "open an interactive session against a local node (in-memory unless --datadir is set)",
	Flags: []cli.Flag{keystoreFlag, dataDirFlag},
	Action: func(c *cli.Context) error {
		w, err := examplewallet.Load(c.String(keystoreFlag.Name))
		if err != nil {
			return fmt.Errorf("opchan: load wallet (run 'opchan init' first): %w", err)
		}

		cl, err := client.Open(c.Context, client.Config{
			FileConfig: client.FileConfig{
				StoragePath: c.String(dataDirFlag.Name),
				Metrics:     metrics.Config{},
			},
		})
		if err != nil {
			return err
		}
		defer cl.Close()

		if _, err := cl.Delegation.CreateWalletDelegation(w.Address.Hex(), delegation.Duration30Days*time.Millisecond, w.SignWithWallet); err != nil {
			return fmt.Errorf("opchan: create delegation: %w", err)
		}

		return runRepl(cl, w.Address.Hex())
	},
}

func runRepl(cl *client.Client, userAddress string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	green := color.New(color.FgGreen)
	for {
		input, err := line.Prompt("opchan> ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			return nil
		}
		if err != nil {
			return err
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return nil
		case "cells":
			printCells(cl)
		case "posts":
			printPosts(cl)
		case "cell":
			// Creating a cell requires an EnsVerified author (spec.md
			// §4.6); this demo has no NameResolver wired in, so it will
			// fail with ErrNotVerified unless the session's address has
			// been pre-resolved some other way.
			if len(fields) < 2 {
				fmt.Println("usage: cell <name> [description]")
				continue
			}
			desc := ""
			if len(fields) > 2 {
				desc = strings.Join(fields[2:], " ")
			}
			user := forum.CurrentUser{Address: userAddress, Authenticated: true}
			env, err := cl.Forum.CreateCell(context.Background(), user, fields[1], desc, "")
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			green.Printf("created cell %s\n", env.ID)
		case "post":
			if len(fields) < 3 {
				fmt.Println("usage: post <cellID> <title>")
				continue
			}
			user := forum.CurrentUser{Address: userAddress, Authenticated: true}
			env, err := cl.Forum.CreatePost(context.Background(), user, fields[1], strings.Join(fields[2:], " "), "")
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			green.Printf("created post %s\n", env.ID)
		default:
			fmt.Println("commands: cells, posts, cell <name>, post <cellID> <title>, quit")
		}
	}
}

func printCells(cl *client.Client) {
	cells := cl.Replica.Cells()
	table := tablewriter.NewWriter(color.Output)
	table.SetHeader([]string{"ID", "Name", "Description"})
	for _, cell := range cells {
		table.Append([]string{cell.ID, cell.Name, cell.Description})
	}
	table.Render()
}

func printPosts(cl *client.Client) {
	posts := cl.Replica.Posts()
	table := tablewriter.NewWriter(color.Output)
	table.SetHeader([]string{"ID", "Cell", "Title", "Score"})
	for _, post := range posts {
		ep := cl.Replica.EnhancedPostView(post.ID, nil, time.Now().UnixMilli())
		score := "0"
		if ep != nil {
			score = strconv.FormatFloat(ep.Score, 'f', 2, 64)
		}
		table.Append([]string{post.ID, post.CellID, post.Title, score})
	}
	table.Render()
}
