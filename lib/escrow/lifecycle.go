// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package escrow

import (
	"context"
	"time"

	"zombiezen.com/go/sqlite"
)

// CreateTaskParams holds the caller-chosen fields of a new task.
type CreateTaskParams struct {
	// TaskID is the externally chosen unique identifier, at most
	// MaxTaskIDLength bytes.
	TaskID string

	// StakePerMember is the deposit each member locks, in the
	// smallest currency unit. Must be positive.
	StakePerMember int64

	// RequiredMembers is the membership target. Must be positive.
	RequiredMembers int64

	// JoinWindowEnd is the last instant joining is allowed. Must be
	// in the future at creation time.
	JoinWindowEnd time.Time

	// Deadline is the completion deadline. Must be after
	// JoinWindowEnd.
	Deadline time.Time

	// Charity receives the vault on a failure outcome.
	Charity string

	// DescriptionRef is an opaque content-store reference, at most
	// MaxRefLength bytes.
	DescriptionRef string
}

// CreateTask creates a task and its empty vault. The caller becomes
// the creator. Fails with CodeDuplicateTask if the derived task
// address is already occupied, or CodeInvalidParameters for
// malformed or contradictory inputs.
func (s *Store) CreateTask(ctx context.Context, caller string, params CreateTaskParams) (*Task, error) {
	const op = "CreateTask"

	if !validIdentity(caller) {
		return nil, failf(op, CodeInvalidParameters, "invalid caller identity")
	}
	if params.TaskID == "" || len(params.TaskID) > MaxTaskIDLength {
		return nil, failf(op, CodeInvalidParameters, "task ID must be 1-%d bytes", MaxTaskIDLength)
	}
	if params.StakePerMember <= 0 {
		return nil, failf(op, CodeInvalidParameters, "stake per member must be positive, got %d", params.StakePerMember)
	}
	if params.RequiredMembers <= 0 {
		return nil, failf(op, CodeInvalidParameters, "required members must be positive, got %d", params.RequiredMembers)
	}
	if !validIdentity(params.Charity) {
		return nil, failf(op, CodeInvalidParameters, "invalid charity identity")
	}
	if len(params.DescriptionRef) > MaxRefLength {
		return nil, failf(op, CodeInvalidParameters, "description reference exceeds %d bytes", MaxRefLength)
	}

	now := s.clock.Now()
	if !params.JoinWindowEnd.After(now) {
		return nil, failf(op, CodeInvalidParameters, "join window end must be in the future")
	}
	if !params.Deadline.After(params.JoinWindowEnd) {
		return nil, failf(op, CodeInvalidParameters, "deadline must be after join window end")
	}

	task := &Task{
		TaskID:          params.TaskID,
		Creator:         caller,
		StakePerMember:  params.StakePerMember,
		RequiredMembers: params.RequiredMembers,
		JoinWindowEnd:   params.JoinWindowEnd.UTC().Truncate(time.Second),
		Deadline:        params.Deadline.UTC().Truncate(time.Second),
		Charity:         params.Charity,
		DescriptionRef:  params.DescriptionRef,
	}

	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		_, found, err := loadTask(conn, params.TaskID)
		if err != nil {
			return err
		}
		if found {
			return failf(op, CodeDuplicateTask, "task %q already exists", params.TaskID)
		}
		return insertTask(conn, task)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		"task_id", task.TaskID,
		"creator", task.Creator,
		"stake_per_member", task.StakePerMember,
		"required_members", task.RequiredMembers,
	)
	return task, nil
}

// JoinAndDeposit adds the caller to the task's membership, moving
// exactly stakePerMember from the caller's ledger account into the
// vault. The member record, the counter updates, and the balance
// movement commit atomically; two concurrent joins for the last open
// seat produce one member and one CodeTaskFull failure.
func (s *Store) JoinAndDeposit(ctx context.Context, caller, taskID, identityHash string) (*Member, error) {
	const op = "JoinAndDeposit"

	if !validIdentity(caller) {
		return nil, failf(op, CodeInvalidParameters, "invalid caller identity")
	}
	if len(identityHash) > MaxRefLength {
		return nil, failf(op, CodeInvalidParameters, "identity hash exceeds %d bytes", MaxRefLength)
	}

	member := &Member{
		TaskID:       taskID,
		Owner:        caller,
		IdentityHash: identityHash,
		Deposited:    true,
	}

	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		task, found, err := loadTask(conn, taskID)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeTaskNotFound, "task %q does not exist", taskID)
		}
		if task.Finalized {
			return failf(op, CodeAlreadyFinalized, "task %q is finalized", taskID)
		}
		if s.clock.Now().After(task.JoinWindowEnd) {
			return failf(op, CodeJoinWindowClosed, "join window for task %q closed at %s", taskID, task.JoinWindowEnd.Format(time.RFC3339))
		}
		if task.MemberCount >= task.RequiredMembers {
			return failf(op, CodeTaskFull, "task %q already has %d of %d members", taskID, task.MemberCount, task.RequiredMembers)
		}
		if _, exists, err := loadMember(conn, taskID, caller); err != nil {
			return err
		} else if exists {
			return failf(op, CodeAlreadyMember, "%q is already a member of task %q", caller, taskID)
		}

		balance, err := loadAccountBalance(conn, caller)
		if err != nil {
			return err
		}
		if balance < task.StakePerMember {
			return failf(op, CodeInsufficientFunds, "account of %q holds %d, stake is %d", caller, balance, task.StakePerMember)
		}

		if err := debitAccount(conn, caller, task.StakePerMember); err != nil {
			return err
		}
		if err := adjustVault(conn, taskID, task.StakePerMember); err != nil {
			return err
		}
		if err := insertMember(conn, member); err != nil {
			return err
		}
		return applyJoin(conn, &task)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member joined",
		"task_id", taskID,
		"owner", caller,
	)
	return member, nil
}

// SubmitProof attaches an opaque proof reference to the creator's own
// member record. Only the task creator may call it, and the creator
// must have joined like any other member. Resubmission overwrites the
// reference; this is an idempotent update, not a state transition.
func (s *Store) SubmitProof(ctx context.Context, caller, taskID, proofRef string) (*Member, error) {
	const op = "SubmitProof"

	if !validIdentity(caller) {
		return nil, failf(op, CodeInvalidParameters, "invalid caller identity")
	}
	if proofRef == "" || len(proofRef) > MaxRefLength {
		return nil, failf(op, CodeInvalidParameters, "proof reference must be 1-%d bytes", MaxRefLength)
	}

	var member Member
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		task, found, err := loadTask(conn, taskID)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeTaskNotFound, "task %q does not exist", taskID)
		}
		if caller != task.Creator {
			return failf(op, CodeNotCreator, "only the creator of task %q may submit proof", taskID)
		}
		if task.Finalized {
			return failf(op, CodeAlreadyFinalized, "task %q is finalized", taskID)
		}

		member, found, err = loadMember(conn, taskID, caller)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeNotAMember, "creator %q has not joined task %q", caller, taskID)
		}

		member.ProofRef = proofRef
		return updateMember(conn, &member)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("proof submitted",
		"task_id", taskID,
		"proof_ref", proofRef,
	)
	return &member, nil
}

// Vote records the caller's yes/no vote. Voting opens strictly after
// the deadline and each member votes at most once; the vote flag and
// the task tally update atomically.
func (s *Store) Vote(ctx context.Context, caller, taskID string, voteYes bool) (*Task, error) {
	const op = "Vote"

	if !validIdentity(caller) {
		return nil, failf(op, CodeInvalidParameters, "invalid caller identity")
	}

	var task Task
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		var found bool
		var err error
		task, found, err = loadTask(conn, taskID)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeTaskNotFound, "task %q does not exist", taskID)
		}
		if task.Finalized {
			return failf(op, CodeAlreadyFinalized, "task %q is finalized", taskID)
		}
		if !s.clock.Now().After(task.Deadline) {
			return failf(op, CodeVotingNotOpen, "voting on task %q opens after %s", taskID, task.Deadline.Format(time.RFC3339))
		}

		member, exists, err := loadMember(conn, taskID, caller)
		if err != nil {
			return err
		}
		if !exists || !member.Deposited {
			return failf(op, CodeNotAMember, "%q is not a member of task %q", caller, taskID)
		}
		if member.Voted {
			return failf(op, CodeAlreadyVoted, "%q already voted on task %q", caller, taskID)
		}

		member.Voted = true
		member.VoteYes = voteYes
		if err := updateMember(conn, &member); err != nil {
			return err
		}
		if err := applyVote(conn, &task, voteYes); err != nil {
			return err
		}
		if voteYes {
			task.YesVotes++
		} else {
			task.NoVotes++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("vote recorded",
		"task_id", taskID,
		"owner", caller,
		"vote_yes", voteYes,
	)
	return &task, nil
}

// Finalize settles the task. It is a permissionless trigger: there is
// no identity check, only state preconditions, because the outcome is
// fully determined by the recorded votes. Every member must have
// voted. On success the vault stays reserved for per-member refund
// pulls; on failure the entire vault moves to the charity account in
// the same transaction. Exactly one Finalize ever succeeds per task.
func (s *Store) Finalize(ctx context.Context, taskID string) (*Task, error) {
	const op = "Finalize"

	var task Task
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		var found bool
		var err error
		task, found, err = loadTask(conn, taskID)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeTaskNotFound, "task %q does not exist", taskID)
		}
		if task.Finalized {
			return failf(op, CodeAlreadyFinalized, "task %q is already finalized", taskID)
		}
		if !s.clock.Now().After(task.Deadline) {
			return failf(op, CodeVotingNotOpen, "task %q cannot settle before its deadline %s", taskID, task.Deadline.Format(time.RFC3339))
		}
		if task.YesVotes+task.NoVotes != task.MemberCount {
			return failf(op, CodeVotingIncomplete, "task %q has %d of %d votes", taskID, task.YesVotes+task.NoVotes, task.MemberCount)
		}

		outcome := Settle(task.YesVotes, task.NoVotes)
		if err := disburse(conn, &task, outcome); err != nil {
			return err
		}
		if err := applyFinalized(conn, &task, outcome); err != nil {
			return err
		}
		task.Finalized = true
		task.Outcome = outcome
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task finalized",
		"task_id", taskID,
		"outcome", string(task.Outcome),
		"yes_votes", task.YesVotes,
		"no_votes", task.NoVotes,
	)
	return &task, nil
}

// ClaimRefund pulls the caller's stake back from the vault after a
// success finalization. Each member claims at most once; a second
// call fails with CodeAlreadyRefunded and moves no funds.
func (s *Store) ClaimRefund(ctx context.Context, caller, taskID string) (*Member, error) {
	const op = "ClaimRefund"

	if !validIdentity(caller) {
		return nil, failf(op, CodeInvalidParameters, "invalid caller identity")
	}

	var member Member
	var stake int64
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		task, found, err := loadTask(conn, taskID)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeTaskNotFound, "task %q does not exist", taskID)
		}

		member, found, err = loadMember(conn, taskID, caller)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeNotAMember, "%q is not a member of task %q", caller, taskID)
		}
		if !task.Finalized {
			return failf(op, CodeNotFinalized, "task %q is not finalized", taskID)
		}
		if task.Outcome != OutcomeSuccess {
			return failf(op, CodeTaskFailed, "task %q settled as a failure; the vault went to %q", taskID, task.Charity)
		}
		if member.Refunded {
			return failf(op, CodeAlreadyRefunded, "%q already claimed their refund for task %q", caller, taskID)
		}

		stake = task.StakePerMember
		if err := adjustVault(conn, taskID, -stake); err != nil {
			return err
		}
		if err := creditAccount(conn, caller, stake); err != nil {
			return err
		}
		member.Refunded = true
		return updateMember(conn, &member)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund claimed",
		"task_id", taskID,
		"owner", caller,
		"amount", stake,
	)
	return &member, nil
}

// Fund credits a participant's ledger account, creating it on first
// use. This is the operator surface for provisioning balances; the
// lifecycle operations themselves never create money.
func (s *Store) Fund(ctx context.Context, owner string, amount int64) (*Account, error) {
	const op = "Fund"

	if !validIdentity(owner) {
		return nil, failf(op, CodeInvalidParameters, "invalid account owner")
	}
	if amount <= 0 {
		return nil, failf(op, CodeInvalidParameters, "fund amount must be positive, got %d", amount)
	}

	account := &Account{Owner: owner}
	err := s.withTx(ctx, func(conn *sqlite.Conn) error {
		if err := creditAccount(conn, owner, amount); err != nil {
			return err
		}
		balance, err := loadAccountBalance(conn, owner)
		if err != nil {
			return err
		}
		account.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account funded",
		"owner", owner,
		"amount", amount,
		"balance", account.Balance,
	)
	return account, nil
}

// Balance returns a participant's ledger account. Accounts that were
// never funded read as zero.
func (s *Store) Balance(ctx context.Context, owner string) (*Account, error) {
	const op = "Balance"

	if !validIdentity(owner) {
		return nil, failf(op, CodeInvalidParameters, "invalid account owner")
	}

	account := &Account{Owner: owner}
	err := s.withReadConn(ctx, func(conn *sqlite.Conn) error {
		balance, err := loadAccountBalance(conn, owner)
		if err != nil {
			return err
		}
		account.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetTask returns the task record with its derived phase and live
// vault balance.
func (s *Store) GetTask(ctx context.Context, taskID string) (*TaskStatus, error) {
	const op = "GetTask"

	var status TaskStatus
	err := s.withReadConn(ctx, func(conn *sqlite.Conn) error {
		task, found, err := loadTask(conn, taskID)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeTaskNotFound, "task %q does not exist", taskID)
		}
		balance, err := loadVaultBalance(conn, taskID)
		if err != nil {
			return err
		}
		status = TaskStatus{
			Task:         task,
			Phase:        task.DerivePhase(s.clock.Now()),
			VaultBalance: balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetMember returns one participant's member record for a task.
func (s *Store) GetMember(ctx context.Context, taskID, owner string) (*Member, error) {
	const op = "GetMember"

	var member Member
	err := s.withReadConn(ctx, func(conn *sqlite.Conn) error {
		_, found, err := loadTask(conn, taskID)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeTaskNotFound, "task %q does not exist", taskID)
		}
		member, found, err = loadMember(conn, taskID, owner)
		if err != nil {
			return err
		}
		if !found {
			return failf(op, CodeNotAMember, "%q is not a member of task %q", owner, taskID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}
