// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package escrow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/pact/lib/address"
	"github.com/bureau-foundation/pact/lib/clock"
	"github.com/bureau-foundation/pact/lib/sqlitepool"
)

// schema creates the four record tables. Rows are keyed by derived
// address TEXT; the task_id / owner columns exist for read-back, not
// lookup - every lookup recomputes the address from logical keys.
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	address          TEXT PRIMARY KEY,
	task_id          TEXT NOT NULL,
	creator          TEXT NOT NULL,
	stake_per_member INTEGER NOT NULL CHECK (stake_per_member > 0),
	required_members INTEGER NOT NULL CHECK (required_members > 0),
	member_count     INTEGER NOT NULL DEFAULT 0,
	join_window_end  INTEGER NOT NULL,
	deadline         INTEGER NOT NULL,
	charity          TEXT NOT NULL,
	description_ref  TEXT NOT NULL DEFAULT '',
	yes_votes        INTEGER NOT NULL DEFAULT 0,
	no_votes         INTEGER NOT NULL DEFAULT 0,
	total_deposited  INTEGER NOT NULL DEFAULT 0,
	finalized        INTEGER NOT NULL DEFAULT 0,
	outcome          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS members (
	address       TEXT PRIMARY KEY,
	task_address  TEXT NOT NULL REFERENCES tasks(address),
	owner         TEXT NOT NULL,
	identity_hash TEXT NOT NULL,
	deposited     INTEGER NOT NULL DEFAULT 0,
	proof_ref     TEXT NOT NULL DEFAULT '',
	voted         INTEGER NOT NULL DEFAULT 0,
	vote_yes      INTEGER NOT NULL DEFAULT 0,
	refunded      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS vaults (
	address      TEXT PRIMARY KEY,
	task_address TEXT NOT NULL UNIQUE REFERENCES tasks(address),
	balance      INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS accounts (
	address TEXT PRIMARY KEY,
	owner   TEXT NOT NULL,
	balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0)
);
`

// Store is the durable state of the escrow core: tasks, members,
// vaults, and the participant ledger, in one SQLite database. All
// mutations go through the six lifecycle operations plus Fund; each
// runs as a single IMMEDIATE transaction, which serializes writers
// and makes every read-modify-write atomic.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Config holds the parameters for opening a store.
type Config struct {
	// Path is the SQLite database file. Created if absent. Use
	// ":memory:" with PoolSize 1 in tests.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Clock provides the current time for join-window and deadline
	// decisions. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives operational messages. Defaults to a no-op
	// logger.
	Logger *slog.Logger
}

// Open creates the store, applying the schema on every new
// connection. The caller must Close it.
func Open(cfg Config) (*Store, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("escrow store: %w", err)
	}

	return &Store{
		pool:   pool,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// withTx runs fn inside one IMMEDIATE transaction. The write lock is
// taken up front, so every operation observes and mutates a
// serialized view: concurrent joins on the last open seat and racing
// finalizations resolve in commit order with no lost updates. On
// error the transaction rolls back and no partial mutation survives.
func (s *Store) withTx(ctx context.Context, fn func(conn *sqlite.Conn) error) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("escrow store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = fn(conn)
	return err
}

// withReadConn runs fn on a plain connection, outside any explicit
// transaction. Queries see the last committed state.
func (s *Store) withReadConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

// --- Task rows ---

// loadTask reads the task row at the derived address. Returns
// found=false when the address is unoccupied.
func loadTask(conn *sqlite.Conn, taskID string) (task Task, found bool, err error) {
	err = sqlitex.Execute(conn, `
		SELECT task_id, creator, stake_per_member, required_members,
		       member_count, join_window_end, deadline, charity,
		       description_ref, yes_votes, no_votes, total_deposited,
		       finalized, outcome
		FROM tasks WHERE address = ?`,
		&sqlitex.ExecOptions{
			Args: []any{address.Task(taskID).String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				task = Task{
					TaskID:          stmt.ColumnText(0),
					Creator:         stmt.ColumnText(1),
					StakePerMember:  stmt.ColumnInt64(2),
					RequiredMembers: stmt.ColumnInt64(3),
					MemberCount:     stmt.ColumnInt64(4),
					JoinWindowEnd:   time.Unix(stmt.ColumnInt64(5), 0).UTC(),
					Deadline:        time.Unix(stmt.ColumnInt64(6), 0).UTC(),
					Charity:         stmt.ColumnText(7),
					DescriptionRef:  stmt.ColumnText(8),
					YesVotes:        stmt.ColumnInt64(9),
					NoVotes:         stmt.ColumnInt64(10),
					TotalDeposited:  stmt.ColumnInt64(11),
					Finalized:       stmt.ColumnInt64(12) != 0,
					Outcome:         Outcome(stmt.ColumnText(13)),
				}
				return nil
			},
		})
	if err != nil {
		return Task{}, false, fmt.Errorf("loading task %q: %w", taskID, err)
	}
	return task, found, nil
}

// insertTask writes a fresh task row and its empty vault.
func insertTask(conn *sqlite.Conn, task *Task) error {
	err := sqlitex.Execute(conn, `
		INSERT INTO tasks (address, task_id, creator, stake_per_member,
			required_members, member_count, join_window_end, deadline,
			charity, description_ref, yes_votes, no_votes,
			total_deposited, finalized, outcome)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, 0, 0, 0, 0, '')`,
		&sqlitex.ExecOptions{
			Args: []any{
				task.Address().String(), task.TaskID, task.Creator,
				task.StakePerMember, task.RequiredMembers,
				task.JoinWindowEnd.Unix(), task.Deadline.Unix(),
				task.Charity, task.DescriptionRef,
			},
		})
	if err != nil {
		return fmt.Errorf("inserting task %q: %w", task.TaskID, err)
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO vaults (address, task_address, balance)
		VALUES (?, ?, 0)`,
		&sqlitex.ExecOptions{
			Args: []any{
				address.Vault(task.TaskID).String(),
				task.Address().String(),
			},
		})
	if err != nil {
		return fmt.Errorf("inserting vault for task %q: %w", task.TaskID, err)
	}
	return nil
}

// applyJoin records one successful join on the task row.
func applyJoin(conn *sqlite.Conn, task *Task) error {
	err := sqlitex.Execute(conn, `
		UPDATE tasks
		SET member_count = member_count + 1,
		    total_deposited = total_deposited + stake_per_member
		WHERE address = ?`,
		&sqlitex.ExecOptions{Args: []any{task.Address().String()}},
	)
	if err != nil {
		return fmt.Errorf("updating task %q counters: %w", task.TaskID, err)
	}
	return nil
}

// applyVote records one vote on the task row.
func applyVote(conn *sqlite.Conn, task *Task, voteYes bool) error {
	column := "no_votes"
	if voteYes {
		column = "yes_votes"
	}
	err := sqlitex.Execute(conn,
		"UPDATE tasks SET "+column+" = "+column+" + 1 WHERE address = ?",
		&sqlitex.ExecOptions{Args: []any{task.Address().String()}},
	)
	if err != nil {
		return fmt.Errorf("recording vote on task %q: %w", task.TaskID, err)
	}
	return nil
}

// applyFinalized marks the task settled with the given outcome.
func applyFinalized(conn *sqlite.Conn, task *Task, outcome Outcome) error {
	err := sqlitex.Execute(conn,
		"UPDATE tasks SET finalized = 1, outcome = ? WHERE address = ?",
		&sqlitex.ExecOptions{Args: []any{string(outcome), task.Address().String()}},
	)
	if err != nil {
		return fmt.Errorf("finalizing task %q: %w", task.TaskID, err)
	}
	return nil
}

// --- Member rows ---

// loadMember reads the member row at the derived address.
func loadMember(conn *sqlite.Conn, taskID, owner string) (member Member, found bool, err error) {
	err = sqlitex.Execute(conn, `
		SELECT owner, identity_hash, deposited, proof_ref, voted,
		       vote_yes, refunded
		FROM members WHERE address = ?`,
		&sqlitex.ExecOptions{
			Args: []any{address.Member(taskID, owner).String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				member = Member{
					TaskID:       taskID,
					Owner:        stmt.ColumnText(0),
					IdentityHash: stmt.ColumnText(1),
					Deposited:    stmt.ColumnInt64(2) != 0,
					ProofRef:     stmt.ColumnText(3),
					Voted:        stmt.ColumnInt64(4) != 0,
					VoteYes:      stmt.ColumnInt64(5) != 0,
					Refunded:     stmt.ColumnInt64(6) != 0,
				}
				return nil
			},
		})
	if err != nil {
		return Member{}, false, fmt.Errorf("loading member %q of task %q: %w", owner, taskID, err)
	}
	return member, found, nil
}

// insertMember writes a fresh member row with deposited already set -
// a member record only exists once its stake is in the vault.
func insertMember(conn *sqlite.Conn, member *Member) error {
	err := sqlitex.Execute(conn, `
		INSERT INTO members (address, task_address, owner,
			identity_hash, deposited, proof_ref, voted, vote_yes,
			refunded)
		VALUES (?, ?, ?, ?, 1, '', 0, 0, 0)`,
		&sqlitex.ExecOptions{
			Args: []any{
				member.Address().String(),
				address.Task(member.TaskID).String(),
				member.Owner, member.IdentityHash,
			},
		})
	if err != nil {
		return fmt.Errorf("inserting member %q of task %q: %w", member.Owner, member.TaskID, err)
	}
	return nil
}

// updateMember writes back the mutable member flags.
func updateMember(conn *sqlite.Conn, member *Member) error {
	err := sqlitex.Execute(conn, `
		UPDATE members
		SET proof_ref = ?, voted = ?, vote_yes = ?, refunded = ?
		WHERE address = ?`,
		&sqlitex.ExecOptions{
			Args: []any{
				member.ProofRef, boolToInt(member.Voted),
				boolToInt(member.VoteYes), boolToInt(member.Refunded),
				member.Address().String(),
			},
		})
	if err != nil {
		return fmt.Errorf("updating member %q of task %q: %w", member.Owner, member.TaskID, err)
	}
	return nil
}

// --- Vault rows ---

// loadVaultBalance reads the vault balance for a task.
func loadVaultBalance(conn *sqlite.Conn, taskID string) (balance int64, err error) {
	found := false
	err = sqlitex.Execute(conn,
		"SELECT balance FROM vaults WHERE address = ?",
		&sqlitex.ExecOptions{
			Args: []any{address.Vault(taskID).String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				balance = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("loading vault of task %q: %w", taskID, err)
	}
	if !found {
		return 0, fmt.Errorf("vault of task %q missing", taskID)
	}
	return balance, nil
}

// adjustVault moves the vault balance by delta. The balance CHECK
// constraint rejects any adjustment that would overdraw the vault.
func adjustVault(conn *sqlite.Conn, taskID string, delta int64) error {
	err := sqlitex.Execute(conn,
		"UPDATE vaults SET balance = balance + ? WHERE address = ?",
		&sqlitex.ExecOptions{
			Args: []any{delta, address.Vault(taskID).String()},
		})
	if err != nil {
		return fmt.Errorf("adjusting vault of task %q by %d: %w", taskID, delta, err)
	}
	return nil
}

// --- Ledger rows ---

// loadAccountBalance reads a ledger balance. Missing accounts read as
// zero - an account springs into existence on first credit.
func loadAccountBalance(conn *sqlite.Conn, owner string) (balance int64, err error) {
	err = sqlitex.Execute(conn,
		"SELECT balance FROM accounts WHERE address = ?",
		&sqlitex.ExecOptions{
			Args: []any{address.Account(owner).String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				balance = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("loading account %q: %w", owner, err)
	}
	return balance, nil
}

// creditAccount adds amount to an account, creating it if needed.
func creditAccount(conn *sqlite.Conn, owner string, amount int64) error {
	err := sqlitex.Execute(conn, `
		INSERT INTO accounts (address, owner, balance) VALUES (?, ?, ?)
		ON CONFLICT (address) DO UPDATE SET balance = balance + excluded.balance`,
		&sqlitex.ExecOptions{
			Args: []any{address.Account(owner).String(), owner, amount},
		})
	if err != nil {
		return fmt.Errorf("crediting account %q by %d: %w", owner, amount, err)
	}
	return nil
}

// debitAccount removes amount from an account. The caller has already
// verified the balance inside the same transaction, so the CHECK
// constraint firing here would indicate a bug, not user error.
func debitAccount(conn *sqlite.Conn, owner string, amount int64) error {
	err := sqlitex.Execute(conn,
		"UPDATE accounts SET balance = balance - ? WHERE address = ?",
		&sqlitex.ExecOptions{
			Args: []any{amount, address.Account(owner).String()},
		})
	if err != nil {
		return fmt.Errorf("debiting account %q by %d: %w", owner, amount, err)
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
