// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// The pact CLI drives the pact service: task lifecycle operations,
// membership queries, and ledger accounts, over the service's Unix
// socket.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/pact/cmd/pact/cli"
	ledgercmd "github.com/bureau-foundation/pact/cmd/pact/ledger"
	membercmd "github.com/bureau-foundation/pact/cmd/pact/member"
	taskcmd "github.com/bureau-foundation/pact/cmd/pact/task"
)

const version = "0.1.0"

func main() {
	if err := root().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func root() *cli.Command {
	return &cli.Command{
		Name: "pact",
		Description: `Pact: group accountability escrow.

Members lock a fixed stake into a shared vault, vote on completion
after the deadline, and either reclaim their stakes or watch the pool
go to charity.`,
		Subcommands: []*cli.Command{
			taskcmd.Command(),
			membercmd.Command(),
			ledgercmd.Command(),
			pingCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("pact %s\n", version)
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check the service is reachable",
				Command:     "pact ping",
			},
			{
				Description: "Create a task and join it",
				Command:     "pact task create spring-cleanup --caller @alice:pact.local --stake 50 --members 3 --join-window 24h --deadline 168h --charity @redcross:pact.local",
			},
			{
				Description: "Inspect a task's phase and vault",
				Command:     "pact task show spring-cleanup",
			},
		},
	}
}

func pingCommand() *cli.Command {
	var connection cli.Connection

	return &cli.Command{
		Name:    "ping",
		Summary: "Check service health",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ping", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			ctx, cancel := cli.CallContext()
			defer cancel()

			var pong map[string]string
			if err := connection.Connect().Call(ctx, "ping", nil, &pong); err != nil {
				return err
			}
			return cli.WriteJSON(pong)
		},
	}
}
