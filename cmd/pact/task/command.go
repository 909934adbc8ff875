// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package task implements the "pact task" subcommand group: the six
// lifecycle operations plus the status query, all executed against
// the pact service socket.
package task

import "github.com/bureau-foundation/pact/cmd/pact/cli"

// Command returns the "task" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "task",
		Summary: "Task lifecycle commands",
		Description: `Create and drive accountability tasks.

A task pools a fixed stake from every member into an escrow vault.
After the deadline the members vote; a majority of "yes" votes lets
everyone reclaim their stake, anything less sends the pooled funds to
the task's designated charity.`,
		Subcommands: []*cli.Command{
			createCommand(),
			joinCommand(),
			proofCommand(),
			voteCommand(),
			finalizeCommand(),
			claimCommand(),
			showCommand(),
		},
	}
}
