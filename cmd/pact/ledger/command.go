// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger implements the "pact ledger" subcommand group for
// the external balance accounts that stakes are drawn from and
// refunded to.
package ledger

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/pact/cmd/pact/cli"
	"github.com/bureau-foundation/pact/lib/escrow"
)

// Command returns the "ledger" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "ledger",
		Summary: "Ledger account commands",
		Subcommands: []*cli.Command{
			fundCommand(),
			balanceCommand(),
		},
	}
}

type fundParams struct {
	cli.Connection
	Amount int64
}

func fundCommand() *cli.Command {
	var params fundParams

	return &cli.Command{
		Name:    "fund",
		Summary: "Credit an account",
		Usage:   "pact ledger fund OWNER --amount N [flags]",
		Examples: []cli.Example{
			{
				Description: "Give an identity spendable balance",
				Command:     "pact ledger fund @alice:pact.local --amount 500",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("fund", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			flagSet.Int64Var(&params.Amount, "amount", 0, "amount to credit, smallest currency unit")
			return flagSet
		},
		Run: func(args []string) error {
			owner, err := ownerArg(args)
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext()
			defer cancel()

			var account escrow.Account
			err = params.Connect().Call(ctx, "ledger.fund", map[string]any{
				"owner":  owner,
				"amount": params.Amount,
			}, &account)
			if err != nil {
				return err
			}
			return cli.WriteJSON(account)
		},
	}
}

func balanceCommand() *cli.Command {
	var connection cli.Connection

	return &cli.Command{
		Name:    "balance",
		Summary: "Show an account balance",
		Usage:   "pact ledger balance OWNER [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("balance", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			owner, err := ownerArg(args)
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext()
			defer cancel()

			var account escrow.Account
			err = connection.Connect().Call(ctx, "ledger.balance", map[string]any{
				"owner": owner,
			}, &account)
			if err != nil {
				return err
			}
			return cli.WriteJSON(account)
		},
	}
}

func ownerArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one OWNER argument, got %d", len(args))
	}
	return args[0], nil
}
