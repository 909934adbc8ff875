// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the pact-standard SQLite connection pool.
//
// The escrow store and ledger live in a single SQLite database; this
// package wraps zombiezen.com/go/sqlite with the defaults that
// database needs: WAL journal mode, FULL synchronous (escrow balances
// are the source of truth - a power failure must not lose a committed
// deposit), foreign keys on, and a busy timeout to absorb write
// contention gracefully.
//
// The pool is built on zombiezen's sqlitex.Pool, which manages a
// fixed-size set of connections. Callers [Pool.Take] a connection,
// perform work, and [Pool.Put] it back. Connections are NOT safe for
// concurrent use - each goroutine must hold its own connection for the
// duration of its work.
//
// # Pragmas
//
// Every connection in the pool is initialized with these pragmas:
//
//   - journal_mode=WAL: write-ahead logging for concurrent readers and
//     a single writer. Reads never block writes; writes never block
//     reads.
//   - synchronous=FULL: committed transactions survive OS crashes and
//     power failure. Financial records have no upstream source of
//     truth to rebuild from, so the fsync-per-commit cost is accepted.
//   - busy_timeout=5000: wait up to 5 seconds for a write lock instead
//     of returning SQLITE_BUSY immediately.
//   - foreign_keys=ON: member rows reference their task row; the
//     database enforces that a member can never outlive its task.
//   - temp_store=MEMORY: temporary tables and indexes in memory.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:     "/var/pact/escrow.db",
//	    PoolSize: 4,
//	    Logger:   logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
// # Design
//
// This package is intentionally thin: it applies standard pragmas and
// exposes the underlying zombiezen types directly. There is no attempt
// to abstract away SQLite's connection model or invent a query
// builder. The escrow store writes SQL, uses sqlitex.Execute for
// cached statements, and manages transactions with
// sqlitex.ImmediateTransaction.
package sqlitepool
