// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package escrow

import (
	"time"

	"github.com/bureau-foundation/pact/lib/address"
)

// Field size limits, enforced at operation entry. References
// (description, proof) are opaque content-store identifiers; identity
// hashes are opaque commitments. The core never inspects any of them.
const (
	// MaxTaskIDLength bounds the externally chosen task identifier.
	MaxTaskIDLength = 50

	// MaxRefLength bounds descriptionRef, proofRef, and identityHash.
	MaxRefLength = 100

	// MaxIdentityLength bounds caller and charity identity strings.
	MaxIdentityLength = 100
)

// Outcome is the settled result of a finalized task. Empty until
// Finalize runs, then immutable.
type Outcome string

const (
	// OutcomeSuccess: the members voted the task done. Stakes stay
	// reserved in the vault for per-member ClaimRefund pulls.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure: no majority for success (ties included). The
	// entire vault moved to the charity account at finalization.
	OutcomeFailure Outcome = "failure"
)

// Phase is the derived lifecycle state of a task. It is never stored;
// DerivePhase computes it from the stored fields and the current time.
type Phase string

const (
	// PhaseJoining: the join window is open and seats remain.
	PhaseJoining Phase = "joining"

	// PhaseActive: membership is settled (window closed or task
	// full) and the deadline has not passed. The creator works on
	// the task and may submit proof.
	PhaseActive Phase = "active"

	// PhaseVoting: the deadline has passed; members vote until all
	// have voted.
	PhaseVoting Phase = "voting"

	// PhaseFinalizedSuccess and PhaseFinalizedFailure: settlement
	// happened. Terminal.
	PhaseFinalizedSuccess Phase = "finalized-success"
	PhaseFinalizedFailure Phase = "finalized-failure"
)

// Task is one accountability agreement. All fields except the vote
// tallies, the membership counters, and the finalization pair are
// immutable after CreateTask. The record is never deleted - a
// finalized task remains as an audit record.
type Task struct {
	// TaskID is the externally chosen unique identifier. The task
	// record lives at address.Task(TaskID).
	TaskID string `json:"task_id" cbor:"task_id"`

	// Creator is the identity that created the task. Only the
	// creator may submit proof.
	Creator string `json:"creator" cbor:"creator"`

	// StakePerMember is the deposit every member must lock, in the
	// smallest currency unit. Positive.
	StakePerMember int64 `json:"stake_per_member" cbor:"stake_per_member"`

	// RequiredMembers is the membership target. Positive.
	RequiredMembers int64 `json:"required_members" cbor:"required_members"`

	// MemberCount is the current membership. Incremented only by a
	// successful JoinAndDeposit; never exceeds RequiredMembers.
	MemberCount int64 `json:"member_count" cbor:"member_count"`

	// JoinWindowEnd is the last instant at which joining is allowed.
	JoinWindowEnd time.Time `json:"join_window_end" cbor:"join_window_end"`

	// Deadline is the task completion deadline. Voting opens strictly
	// after it. Always after JoinWindowEnd.
	Deadline time.Time `json:"deadline" cbor:"deadline"`

	// Charity is the destination identity for diverted funds on a
	// failure outcome.
	Charity string `json:"charity" cbor:"charity"`

	// DescriptionRef is an opaque content-store reference to the
	// task description.
	DescriptionRef string `json:"description_ref" cbor:"description_ref"`

	// YesVotes and NoVotes are the recorded tallies. Their sum never
	// exceeds MemberCount.
	YesVotes int64 `json:"yes_votes" cbor:"yes_votes"`
	NoVotes  int64 `json:"no_votes" cbor:"no_votes"`

	// TotalDeposited always equals MemberCount * StakePerMember.
	TotalDeposited int64 `json:"total_deposited" cbor:"total_deposited"`

	// Finalized transitions false->true exactly once and is never
	// reset. Outcome is set in the same transaction.
	Finalized bool    `json:"finalized" cbor:"finalized"`
	Outcome   Outcome `json:"outcome,omitempty" cbor:"outcome,omitempty"`
}

// Address returns the task record's derived storage address.
func (t *Task) Address() address.Address {
	return address.Task(t.TaskID)
}

// DerivePhase computes the lifecycle phase at the given instant.
func (t *Task) DerivePhase(now time.Time) Phase {
	if t.Finalized {
		if t.Outcome == OutcomeFailure {
			return PhaseFinalizedFailure
		}
		return PhaseFinalizedSuccess
	}
	if !now.After(t.JoinWindowEnd) && t.MemberCount < t.RequiredMembers {
		return PhaseJoining
	}
	if !now.After(t.Deadline) {
		return PhaseActive
	}
	return PhaseVoting
}

// Member is one participant's record within one task, living at
// address.Member(TaskID, Owner). Created by JoinAndDeposit, never
// deleted.
type Member struct {
	// TaskID is the owning task (back-reference only).
	TaskID string `json:"task_id" cbor:"task_id"`

	// Owner is the participant identity; the authorization key for
	// every mutation of this record.
	Owner string `json:"owner" cbor:"owner"`

	// IdentityHash is an opaque commitment to an off-system identity
	// claim (e.g., an e-mail hash), set at join time. The core never
	// reveals or inspects the underlying claim.
	IdentityHash string `json:"identity_hash" cbor:"identity_hash"`

	// Deposited is set true exactly once, at join.
	Deposited bool `json:"deposited" cbor:"deposited"`

	// ProofRef is the creator's opaque proof reference. Resubmission
	// overwrites.
	ProofRef string `json:"proof_ref,omitempty" cbor:"proof_ref,omitempty"`

	// Voted is set true exactly once; VoteYes is meaningful only
	// when Voted.
	Voted   bool `json:"voted" cbor:"voted"`
	VoteYes bool `json:"vote_yes" cbor:"vote_yes"`

	// Refunded is set true exactly once, and only after a success
	// finalization.
	Refunded bool `json:"refunded" cbor:"refunded"`
}

// Address returns the member record's derived storage address.
func (m *Member) Address() address.Address {
	return address.Member(m.TaskID, m.Owner)
}

// Vault is the custodial balance holding one task's pooled stakes,
// living at address.Vault(TaskID). Only the lifecycle operations
// mutate it; there is no external mutation path.
type Vault struct {
	TaskID  string `json:"task_id" cbor:"task_id"`
	Balance int64  `json:"balance" cbor:"balance"`
}

// Account is a participant's external balance in the ledger, living
// at address.Account(Owner). Join debits it; refunds and diverted
// vaults credit it.
type Account struct {
	Owner   string `json:"owner" cbor:"owner"`
	Balance int64  `json:"balance" cbor:"balance"`
}

// TaskStatus is the read-back view returned by the query surface: the
// task record plus its derived phase and live vault balance.
type TaskStatus struct {
	Task         Task  `json:"task" cbor:"task"`
	Phase        Phase `json:"phase" cbor:"phase"`
	VaultBalance int64 `json:"vault_balance" cbor:"vault_balance"`
}

// validIdentity reports whether an identity string is usable as a
// caller, creator, or charity.
func validIdentity(identity string) bool {
	return identity != "" && len(identity) <= MaxIdentityLength
}
