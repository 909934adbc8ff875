// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package address derives the storage address of every escrow record
// from its logical keys.
//
// A task, its vault, each of its member records, and each ledger
// account all live at addresses computed from (namespace, keys...)
// with BLAKE3 keyed hashing. Identical inputs always produce the
// identical address, so any party can locate a record without a side
// index; distinct inputs collide only with negligible probability.
//
// Two properties carry the security weight:
//
//   - Namespace separation. Each record kind hashes under its own
//     fixed 32-byte BLAKE3 key, so a task address can never equal a
//     member or vault address, even for adversarially chosen IDs.
//   - Key framing. Every key part is length-prefixed before hashing,
//     so ("ab", "c") and ("a", "bc") derive different addresses. An
//     attacker cannot shift bytes between the task ID and the owner
//     identity to land on someone else's member record.
//
// No operation in the repository accepts a caller-supplied record
// address. Handlers recompute addresses from logical keys on every
// call, which forecloses address-confusion attacks entirely.
package address
