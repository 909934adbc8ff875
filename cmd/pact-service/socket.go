// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/pact/lib/codec"
	"github.com/bureau-foundation/pact/lib/escrow"
	"github.com/bureau-foundation/pact/lib/service"
)

// EscrowService adapts the escrow store to the socket protocol. Each
// handler decodes its request fields, invokes exactly one store
// operation, and returns the operation's post-state snapshot.
type EscrowService struct {
	store  *escrow.Store
	logger *slog.Logger
}

// Register installs all action handlers on the socket server.
func (es *EscrowService) Register(server *service.SocketServer) {
	server.Handle("ping", es.handlePing)
	server.Handle("task.create", es.handleTaskCreate)
	server.Handle("task.join", es.handleTaskJoin)
	server.Handle("task.proof", es.handleTaskProof)
	server.Handle("task.vote", es.handleTaskVote)
	server.Handle("task.finalize", es.handleTaskFinalize)
	server.Handle("task.claim", es.handleTaskClaim)
	server.Handle("task.get", es.handleTaskGet)
	server.Handle("member.get", es.handleMemberGet)
	server.Handle("ledger.fund", es.handleLedgerFund)
	server.Handle("ledger.balance", es.handleLedgerBalance)
}

func (es *EscrowService) handlePing(ctx context.Context, raw []byte) (any, error) {
	return map[string]string{"service": "pact", "status": "ok"}, nil
}

// parseWireTime parses the RFC 3339 timestamps used on the wire.
func parseWireTime(field, value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return parsed, nil
}

func (es *EscrowService) handleTaskCreate(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Caller          string `cbor:"caller"`
		TaskID          string `cbor:"task_id"`
		StakePerMember  int64  `cbor:"stake_per_member"`
		RequiredMembers int64  `cbor:"required_members"`
		JoinWindowEnd   string `cbor:"join_window_end"`
		Deadline        string `cbor:"deadline"`
		Charity         string `cbor:"charity"`
		DescriptionRef  string `cbor:"description_ref"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding task.create request: %w", err)
	}

	joinWindowEnd, err := parseWireTime("join_window_end", request.JoinWindowEnd)
	if err != nil {
		return nil, err
	}
	deadline, err := parseWireTime("deadline", request.Deadline)
	if err != nil {
		return nil, err
	}

	return es.store.CreateTask(ctx, request.Caller, escrow.CreateTaskParams{
		TaskID:          request.TaskID,
		StakePerMember:  request.StakePerMember,
		RequiredMembers: request.RequiredMembers,
		JoinWindowEnd:   joinWindowEnd,
		Deadline:        deadline,
		Charity:         request.Charity,
		DescriptionRef:  request.DescriptionRef,
	})
}

func (es *EscrowService) handleTaskJoin(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Caller       string `cbor:"caller"`
		TaskID       string `cbor:"task_id"`
		IdentityHash string `cbor:"identity_hash"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding task.join request: %w", err)
	}
	return es.store.JoinAndDeposit(ctx, request.Caller, request.TaskID, request.IdentityHash)
}

func (es *EscrowService) handleTaskProof(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Caller   string `cbor:"caller"`
		TaskID   string `cbor:"task_id"`
		ProofRef string `cbor:"proof_ref"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding task.proof request: %w", err)
	}
	return es.store.SubmitProof(ctx, request.Caller, request.TaskID, request.ProofRef)
}

func (es *EscrowService) handleTaskVote(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Caller  string `cbor:"caller"`
		TaskID  string `cbor:"task_id"`
		VoteYes bool   `cbor:"vote_yes"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding task.vote request: %w", err)
	}
	return es.store.Vote(ctx, request.Caller, request.TaskID, request.VoteYes)
}

func (es *EscrowService) handleTaskFinalize(ctx context.Context, raw []byte) (any, error) {
	// No caller field: settlement is a permissionless trigger. The
	// outcome is fully determined by the recorded votes.
	var request struct {
		TaskID string `cbor:"task_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding task.finalize request: %w", err)
	}
	return es.store.Finalize(ctx, request.TaskID)
}

func (es *EscrowService) handleTaskClaim(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Caller string `cbor:"caller"`
		TaskID string `cbor:"task_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding task.claim request: %w", err)
	}
	return es.store.ClaimRefund(ctx, request.Caller, request.TaskID)
}

func (es *EscrowService) handleTaskGet(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		TaskID string `cbor:"task_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding task.get request: %w", err)
	}
	return es.store.GetTask(ctx, request.TaskID)
}

func (es *EscrowService) handleMemberGet(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		TaskID string `cbor:"task_id"`
		Owner  string `cbor:"owner"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding member.get request: %w", err)
	}
	return es.store.GetMember(ctx, request.TaskID, request.Owner)
}

func (es *EscrowService) handleLedgerFund(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Owner  string `cbor:"owner"`
		Amount int64  `cbor:"amount"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding ledger.fund request: %w", err)
	}
	return es.store.Fund(ctx, request.Owner, request.Amount)
}

func (es *EscrowService) handleLedgerBalance(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Owner string `cbor:"owner"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding ledger.balance request: %w", err)
	}
	return es.store.Balance(ctx, request.Owner)
}
