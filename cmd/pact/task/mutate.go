// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/pact/cmd/pact/cli"
	"github.com/bureau-foundation/pact/lib/escrow"
)

// parseTimeFlag accepts either an RFC 3339 timestamp or a duration
// relative to now ("24h", "30m"). Durations are the common case when
// creating a task by hand.
func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required", name)
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return time.Now().Add(duration), nil
	}
	return time.Time{}, fmt.Errorf("--%s: %q is neither RFC 3339 nor a duration", name, value)
}

// --- create ---

type createParams struct {
	cli.Connection
	Caller         string
	Stake          int64
	Members        int64
	JoinWindow     string
	Deadline       string
	Charity        string
	DescriptionRef string
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create a new task",
		Description: `Create a task. The caller becomes the task's creator (the only
identity allowed to submit proof) but does not join automatically -
run "pact task join" to lock a stake.

--join-window and --deadline accept an RFC 3339 timestamp or a
duration from now.`,
		Usage: "pact task create TASK_ID --caller IDENTITY --stake N --members N --join-window WHEN --deadline WHEN --charity IDENTITY [flags]",
		Examples: []cli.Example{
			{
				Description: "A 3-person task, one day to join, one week to finish",
				Command:     "pact task create spring-cleanup --caller @alice:pact.local --stake 50 --members 3 --join-window 24h --deadline 168h --charity @redcross:pact.local",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			flagSet.StringVar(&params.Caller, "caller", "", "creator identity")
			flagSet.Int64Var(&params.Stake, "stake", 0, "stake per member, smallest currency unit")
			flagSet.Int64Var(&params.Members, "members", 0, "required member count")
			flagSet.StringVar(&params.JoinWindow, "join-window", "", "join window end (RFC 3339 or duration)")
			flagSet.StringVar(&params.Deadline, "deadline", "", "completion deadline (RFC 3339 or duration)")
			flagSet.StringVar(&params.Charity, "charity", "", "charity identity for a failed task")
			flagSet.StringVar(&params.DescriptionRef, "description-ref", "", "content reference for the task description")
			return flagSet
		},
		Run: func(args []string) error {
			taskID, err := taskIDArg(args)
			if err != nil {
				return err
			}
			joinWindowEnd, err := parseTimeFlag("join-window", params.JoinWindow)
			if err != nil {
				return err
			}
			deadline, err := parseTimeFlag("deadline", params.Deadline)
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var created escrow.Task
			err = params.Connect().Call(ctx, "task.create", map[string]any{
				"caller":           params.Caller,
				"task_id":          taskID,
				"stake_per_member": params.Stake,
				"required_members": params.Members,
				"join_window_end":  joinWindowEnd.UTC().Format(time.RFC3339),
				"deadline":         deadline.UTC().Format(time.RFC3339),
				"charity":          params.Charity,
				"description_ref":  params.DescriptionRef,
			}, &created)
			if err != nil {
				return err
			}
			return cli.WriteJSON(created)
		},
	}
}

// --- join ---

type joinParams struct {
	cli.Connection
	Caller       string
	IdentityHash string
}

func joinCommand() *cli.Command {
	var params joinParams

	return &cli.Command{
		Name:    "join",
		Summary: "Join a task and lock the stake",
		Description: `Join a task during its join window. The stake is debited from the
caller's ledger account and locked in the task vault. The identity
hash is an opaque commitment recorded with the membership.`,
		Usage: "pact task join TASK_ID --caller IDENTITY --identity-hash HASH [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("join", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			flagSet.StringVar(&params.Caller, "caller", "", "joining identity")
			flagSet.StringVar(&params.IdentityHash, "identity-hash", "", "opaque identity commitment")
			return flagSet
		},
		Run: func(args []string) error {
			taskID, err := taskIDArg(args)
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext()
			defer cancel()

			var member escrow.Member
			err = params.Connect().Call(ctx, "task.join", map[string]any{
				"caller":        params.Caller,
				"task_id":       taskID,
				"identity_hash": params.IdentityHash,
			}, &member)
			if err != nil {
				return err
			}
			return cli.WriteJSON(member)
		},
	}
}

// --- proof ---

type proofParams struct {
	cli.Connection
	Caller   string
	ProofRef string
}

func proofCommand() *cli.Command {
	var params proofParams

	return &cli.Command{
		Name:    "proof",
		Summary: "Submit completion proof (creator only)",
		Description: `Record a proof-of-completion reference on the creator's membership.
Only the task creator may submit; resubmitting overwrites the
previous reference. Allowed until the task is finalized.`,
		Usage: "pact task proof TASK_ID --caller IDENTITY --proof-ref REF [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("proof", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			flagSet.StringVar(&params.Caller, "caller", "", "creator identity")
			flagSet.StringVar(&params.ProofRef, "proof-ref", "", "content reference for the proof")
			return flagSet
		},
		Run: func(args []string) error {
			taskID, err := taskIDArg(args)
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext()
			defer cancel()

			var member escrow.Member
			err = params.Connect().Call(ctx, "task.proof", map[string]any{
				"caller":    params.Caller,
				"task_id":   taskID,
				"proof_ref": params.ProofRef,
			}, &member)
			if err != nil {
				return err
			}
			return cli.WriteJSON(member)
		},
	}
}

// --- vote ---

type voteParams struct {
	cli.Connection
	Caller string
	Yes    bool
	No     bool
}

func voteCommand() *cli.Command {
	var params voteParams

	return &cli.Command{
		Name:    "vote",
		Summary: "Cast a completion vote",
		Description: `Vote on whether the task was completed. Voting opens after the
deadline and each member votes exactly once. Pass exactly one of
--yes or --no.`,
		Usage: "pact task vote TASK_ID --caller IDENTITY (--yes | --no) [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("vote", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			flagSet.StringVar(&params.Caller, "caller", "", "voting identity")
			flagSet.BoolVar(&params.Yes, "yes", false, "vote that the task was completed")
			flagSet.BoolVar(&params.No, "no", false, "vote that the task was not completed")
			return flagSet
		},
		Run: func(args []string) error {
			taskID, err := taskIDArg(args)
			if err != nil {
				return err
			}
			if params.Yes == params.No {
				return fmt.Errorf("pass exactly one of --yes or --no")
			}
			ctx, cancel := cli.CallContext()
			defer cancel()

			var updated escrow.Task
			err = params.Connect().Call(ctx, "task.vote", map[string]any{
				"caller":   params.Caller,
				"task_id":  taskID,
				"vote_yes": params.Yes,
			}, &updated)
			if err != nil {
				return err
			}
			return cli.WriteJSON(updated)
		},
	}
}

// --- finalize ---

func finalizeCommand() *cli.Command {
	var connection cli.Connection

	return &cli.Command{
		Name:    "finalize",
		Summary: "Settle a fully voted task",
		Description: `Settle a task once every member has voted. Anyone may trigger
settlement; the outcome is determined entirely by the recorded
votes. On failure the vault moves to the charity immediately; on
success members claim their refunds individually.`,
		Usage: "pact task finalize TASK_ID [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("finalize", pflag.ContinueOnError)
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

			var finalized escrow.Task
			err = connection.Connect().Call(ctx, "task.finalize", map[string]any{
				"task_id": taskID,
			}, &finalized)
			if err != nil {
				return err
			}
			return cli.WriteJSON(finalized)
		},
	}
}

// --- claim ---

type claimParams struct {
	cli.Connection
	Caller string
}

func claimCommand() *cli.Command {
	var params claimParams

	return &cli.Command{
		Name:    "claim",
		Summary: "Claim the stake refund after a successful task",
		Usage:   "pact task claim TASK_ID --caller IDENTITY [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("claim", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			flagSet.StringVar(&params.Caller, "caller", "", "claiming identity")
			return flagSet
		},
		Run: func(args []string) error {
			taskID, err := taskIDArg(args)
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext()
			defer cancel()

			var member escrow.Member
			err = params.Connect().Call(ctx, "task.claim", map[string]any{
				"caller":  params.Caller,
				"task_id": taskID,
			}, &member)
			if err != nil {
				return err
			}
			return cli.WriteJSON(member)
		},
	}
}

// taskIDArg extracts the single positional TASK_ID argument.
func taskIDArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one TASK_ID argument, got %d", len(args))
	}
	return args[0], nil
}
