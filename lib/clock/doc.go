// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Every escrow lifecycle decision (join window open, deadline passed,
// voting open) is a comparison against the current time. Production
// code accepts a Clock parameter instead of calling time.Now directly;
// Real() provides standard library behavior, Fake() provides a
// deterministic clock that advances only when Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that make time-based decisions:
//
//	store, err := escrow.Open(escrow.Config{
//	    Clock: clock.Real(),
//	    // ...
//	})
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	// ... create a task with deadline now+2h ...
//	c.Advance(3 * time.Hour) // deadline passes, voting opens
package clock
