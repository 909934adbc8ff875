// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package member implements the "pact member" subcommand group.
package member

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/pact/cmd/pact/cli"
	"github.com/bureau-foundation/pact/lib/escrow"
)

// Command returns the "member" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "member",
		Summary: "Membership record commands",
		Subcommands: []*cli.Command{
			showCommand(),
		},
	}
}

func showCommand() *cli.Command {
	var connection cli.Connection

	return &cli.Command{
		Name:    "show",
		Summary: "Show one member's record within a task",
		Usage:   "pact member show TASK_ID OWNER [flags]",
		Examples: []cli.Example{
			{
				Description: "Check whether a member has voted",
				Command:     "pact member show spring-cleanup @bob:pact.local",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected TASK_ID and OWNER arguments, got %d", len(args))
			}
			ctx, cancel := cli.CallContext()
			defer cancel()

			var record escrow.Member
			err := connection.Connect().Call(ctx, "member.get", map[string]any{
				"task_id": args[0],
				"owner":   args[1],
			}, &record)
			if err != nil {
				return err
			}
			return cli.WriteJSON(record)
		},
	}
}
