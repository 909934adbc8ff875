// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/pact/cmd/pact/cli"
	"github.com/bureau-foundation/pact/lib/escrow"
)

func showCommand() *cli.Command {
	var connection cli.Connection

	return &cli.Command{
		Name:    "show",
		Summary: "Show a task with its derived phase and vault balance",
		Usage:   "pact task show TASK_ID [flags]",
		Examples: []cli.Example{
			{
				Description: "Inspect a task's progress",
				Command:     "pact task show spring-cleanup",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			taskID, err := taskIDArg(args)
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext()
			defer cancel()

			var status escrow.TaskStatus
			err = connection.Connect().Call(ctx, "task.get", map[string]any{
				"task_id": taskID,
			}, &status)
			if err != nil {
				return err
			}
			return cli.WriteJSON(status)
		},
	}
}
