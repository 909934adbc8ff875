// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// pact-service is the escrow core daemon. It owns the SQLite store of
// tasks, members, vaults, and ledger accounts, and serves the pact
// socket protocol: the six lifecycle operations (task.create,
// task.join, task.proof, task.vote, task.finalize, task.claim), the
// read-back queries (task.get, member.get), and the ledger surface
// (ledger.fund, ledger.balance).
//
// The daemon is the only process that touches the database. Clients -
// the pact CLI, or any platform component that fronts the socket -
// speak CBOR over the Unix socket and branch on the typed error codes
// in failure responses.
package main
