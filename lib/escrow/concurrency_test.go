// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package escrow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/pact/lib/escrow"
)

// TestConcurrentJoinLastSeat races two joins for the final seat. The
// serialized transactions must produce exactly one member and one
// TaskFull failure - never two members, never two failures.
func TestConcurrentJoinLastSeat(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	mustFund(t, store, alice, 100)
	mustFund(t, store, bob, 100)
	mustFund(t, store, carol, 100)

	params := defaultParams("gym-q3")
	if _, err := store.CreateTask(ctx, alice, params); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := store.JoinAndDeposit(ctx, alice, "gym-q3", "h"); err != nil {
		t.Fatalf("JoinAndDeposit(alice): %v", err)
	}

	// One seat left. Bob and carol race for it.
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, caller := range []string{bob, carol} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.JoinAndDeposit(ctx, caller, "gym-q3", "h")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, fullFailures int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case escrow.IsCode(err, escrow.CodeTaskFull):
			fullFailures++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	if successes != 1 || fullFailures != 1 {
		t.Errorf("race produced %d successes and %d TaskFull failures, want 1 and 1", successes, fullFailures)
	}

	status, err := store.GetTask(ctx, "gym-q3")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if status.Task.MemberCount != 2 {
		t.Errorf("memberCount = %d, want 2", status.Task.MemberCount)
	}
	if status.VaultBalance != 20 {
		t.Errorf("vault = %d, want 20", status.VaultBalance)
	}
	checkTaskInvariants(t, store, "gym-q3")
}

// TestConcurrentFinalize races two Finalize calls: one settles, the
// other observes AlreadyFinalized, and the charity is paid exactly
// once.
func TestConcurrentFinalize(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()
	setupVotingTask(t, store, fake, "gym-q3")

	if _, err := store.Vote(ctx, alice, "gym-q3", false); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if _, err := store.Vote(ctx, bob, "gym-q3", false); err != nil {
		t.Fatalf("Vote: %v", err)
	}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Finalize(ctx, "gym-q3")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, alreadyDone int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case escrow.IsCode(err, escrow.CodeAlreadyFinalized):
			alreadyDone++
		default:
			t.Fatalf("unexpected finalize error: %v", err)
		}
	}
	if successes != 1 || alreadyDone != 1 {
		t.Errorf("race produced %d successes and %d AlreadyFinalized, want 1 and 1", successes, alreadyDone)
	}

	// The vault was diverted exactly once.
	if got := mustBalance(t, store, charity); got != 20 {
		t.Errorf("charity balance = %d, want 20", got)
	}
}

// TestConcurrentClaim races two refund pulls for the same member:
// exactly one transfer happens.
func TestConcurrentClaim(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()
	setupVotingTask(t, store, fake, "gym-q3")

	if _, err := store.Vote(ctx, alice, "gym-q3", true); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if _, err := store.Vote(ctx, bob, "gym-q3", true); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if _, err := store.Finalize(ctx, "gym-q3"); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ClaimRefund(ctx, alice, "gym-q3")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, alreadyRefunded int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case escrow.IsCode(err, escrow.CodeAlreadyRefunded):
			alreadyRefunded++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	if successes != 1 || alreadyRefunded != 1 {
		t.Errorf("race produced %d successes and %d AlreadyRefunded, want 1 and 1", successes, alreadyRefunded)
	}
	if got := mustBalance(t, store, alice); got != 100 {
		t.Errorf("alice balance = %d, want 100 (exactly one refund)", got)
	}
}

// TestManyConcurrentJoins floods a wide task with more joiners than
// seats and checks the accounting identity afterwards.
func TestManyConcurrentJoins(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const seats = 5
	const joiners = 12

	callers := make([]string, joiners)
	for i := range callers {
		callers[i] = "@joiner-" + string(rune('a'+i)) + ":pact.local"
		mustFund(t, store, callers[i], 50)
	}

	params := escrow.CreateTaskParams{
		TaskID:          "wide-task",
		StakePerMember:  10,
		RequiredMembers: seats,
		JoinWindowEnd:   testEpoch.Add(time.Hour),
		Deadline:        testEpoch.Add(2 * time.Hour),
		Charity:         charity,
	}
	if _, err := store.CreateTask(ctx, callers[0], params); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	results := make(chan error, joiners)
	var wg sync.WaitGroup
	for _, caller := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.JoinAndDeposit(ctx, caller, "wide-task", "h")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case escrow.IsCode(err, escrow.CodeTaskFull):
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	if successes != seats {
		t.Errorf("%d joins succeeded, want %d", successes, seats)
	}

	status, err := store.GetTask(ctx, "wide-task")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if status.Task.MemberCount != seats {
		t.Errorf("memberCount = %d, want %d", status.Task.MemberCount, seats)
	}
	if status.VaultBalance != seats*10 {
		t.Errorf("vault = %d, want %d", status.VaultBalance, seats*10)
	}
	checkTaskInvariants(t, store, "wide-task")
}
