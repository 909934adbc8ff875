// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package escrow implements the pact accountability core: a group of
// participants each lock a fixed stake into a shared vault, commit to
// a task with a deadline, vote on whether the task succeeded, and
// receive a single irreversible settlement - stakes refunded on
// success, the whole vault diverted to a charity on failure.
//
// The package owns three durable record kinds (Task, Member,
// EscrowVault) plus the ledger of external participant balances, all
// stored in one SQLite database behind lib/sqlitepool. Every record
// is keyed by an address derived from its logical keys via
// lib/address; no operation accepts a caller-supplied address.
//
// # Lifecycle
//
// A task moves through derived phases - Joining, Active, Voting, and
// Finalized - computed from the current time and the stored counters.
// Only the finalized flag and its outcome are stored explicitly.
// Mutations happen through exactly six operations:
//
//	CreateTask     creator opens the task and its empty vault
//	JoinAndDeposit participant locks stakePerMember into the vault
//	SubmitProof    creator attaches a proof reference
//	Vote           member votes yes/no after the deadline
//	Finalize       anyone triggers settlement once all members voted
//	ClaimRefund    member pulls their stake back after a success
//
// Each operation is one SQLite IMMEDIATE transaction: the
// precondition read, the counter updates, and the balance movements
// commit together or not at all. IMMEDIATE transactions serialize all
// writers, so concurrent joins on the last open slot, concurrent
// votes, and racing Finalize calls resolve to exactly one winner with
// the losers receiving typed errors.
//
// # Errors
//
// Every precondition violation surfaces as an *Error with a distinct
// Code, so callers can distinguish "already done" (AlreadyRefunded)
// from "not yet possible" (VotingIncomplete) from "never possible"
// (NotAMember). See errors.go for the full taxonomy.
package escrow
