// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration for
// pact wire traffic.
//
// All socket protocol messages use Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. The same logical request always produces
// identical bytes, which keeps request logging and replay diagnosis
// sane.
//
// Consumers import only this package, never fxamacker/cbor directly,
// so the encoder configuration cannot drift between callers.
package codec
