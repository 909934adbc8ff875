// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package escrow

import (
	"errors"
	"fmt"
)

// Code classifies an operation failure. Codes are stable strings that
// cross the wire unchanged, so remote callers branch on the same
// constants as in-process callers.
type Code string

// The full failure taxonomy. Every precondition violation in this
// package maps to exactly one code.
const (
	// CodeInvalidParameters: malformed or contradictory inputs
	// (non-positive stake, deadline before join window, oversized
	// reference strings).
	CodeInvalidParameters Code = "INVALID_PARAMETERS"

	// CodeDuplicateTask: a task record already occupies the derived
	// address for this task ID.
	CodeDuplicateTask Code = "DUPLICATE_TASK"

	// CodeTaskNotFound: no task record exists at the derived address.
	CodeTaskNotFound Code = "TASK_NOT_FOUND"

	// CodeJoinWindowClosed: the join window has ended.
	CodeJoinWindowClosed Code = "JOIN_WINDOW_CLOSED"

	// CodeTaskFull: membership already reached requiredMembers.
	CodeTaskFull Code = "TASK_FULL"

	// CodeAlreadyMember: the caller already holds a member record for
	// this task.
	CodeAlreadyMember Code = "ALREADY_MEMBER"

	// CodeInsufficientFunds: the caller's ledger balance cannot cover
	// the stake.
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"

	// CodeNotCreator: only the task creator may perform this
	// operation.
	CodeNotCreator Code = "NOT_CREATOR"

	// CodeVotingNotOpen: the deadline has not passed yet.
	CodeVotingNotOpen Code = "VOTING_NOT_OPEN"

	// CodeAlreadyVoted: the member's vote is already recorded.
	CodeAlreadyVoted Code = "ALREADY_VOTED"

	// CodeNotAMember: the caller holds no member record for this
	// task.
	CodeNotAMember Code = "NOT_A_MEMBER"

	// CodeVotingIncomplete: not every member has voted yet, so the
	// tally cannot be settled.
	CodeVotingIncomplete Code = "VOTING_INCOMPLETE"

	// CodeAlreadyFinalized: the task's one irreversible settlement
	// has already happened.
	CodeAlreadyFinalized Code = "ALREADY_FINALIZED"

	// CodeNotFinalized: the task has not been finalized yet.
	CodeNotFinalized Code = "NOT_FINALIZED"

	// CodeTaskFailed: refunds are unavailable because the task
	// settled as a failure.
	CodeTaskFailed Code = "TASK_FAILED"

	// CodeAlreadyRefunded: the member already pulled their stake.
	CodeAlreadyRefunded Code = "ALREADY_REFUNDED"
)

// Error is a typed operation failure. Callers use errors.As or
// [IsCode] to branch on the code:
//
//	if escrow.IsCode(err, escrow.CodeTaskFull) { ... }
type Error struct {
	// Code classifies the failure.
	Code Code
	// Op is the operation that failed (e.g., "JoinAndDeposit").
	Op string
	// Message is the human-readable description.
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("escrow: %s: %s: %s", e.Op, e.Code, e.Message)
}

// IsCode checks whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	var escrowErr *Error
	if errors.As(err, &escrowErr) {
		return escrowErr.Code == code
	}
	return false
}

// CodeOf returns the code of err if it is an *Error, or "" otherwise.
// Used by the service layer to put the code on the wire.
func CodeOf(err error) Code {
	var escrowErr *Error
	if errors.As(err, &escrowErr) {
		return escrowErr.Code
	}
	return ""
}

// failf constructs a typed operation failure.
func failf(op string, code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}
