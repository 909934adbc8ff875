// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package escrow

import (
	"fmt"

	"zombiezen.com/go/sqlite"
)

// MajorityThreshold returns the minimum yes-vote count for a success
// outcome: floor(totalVotes/2) + 1. A tie falls below the threshold.
func MajorityThreshold(totalVotes int64) int64 {
	return totalVotes/2 + 1
}

// Settle computes the binary outcome from final tallies. Success
// requires a strict majority of yes votes; a tie is a failure -
// absent a clear majority for success, funds default to the charity
// rather than back to the members.
func Settle(yesVotes, noVotes int64) Outcome {
	if yesVotes >= MajorityThreshold(yesVotes+noVotes) {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// disburse releases the vault according to the settled outcome,
// inside the finalization transaction.
//
// Failure: the entire vault balance moves to the charity's ledger
// account and the vault zeroes, atomically with the finalized flag.
//
// Success: the vault keeps its balance - each member pulls their own
// stake later through ClaimRefund, and the finalized flag plus the
// stored outcome are what authorize those pulls.
func disburse(conn *sqlite.Conn, task *Task, outcome Outcome) error {
	if outcome != OutcomeFailure {
		return nil
	}

	balance, err := loadVaultBalance(conn, task.TaskID)
	if err != nil {
		return err
	}
	if balance == 0 {
		return nil
	}
	if err := adjustVault(conn, task.TaskID, -balance); err != nil {
		return err
	}
	if err := creditAccount(conn, task.Charity, balance); err != nil {
		return fmt.Errorf("diverting vault of task %q: %w", task.TaskID, err)
	}
	return nil
}
