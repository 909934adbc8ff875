// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the pact socket protocol: CBOR
// request-response over a Unix socket, one request per connection.
//
// A client connects, writes one CBOR map containing at least an
// "action" field plus action-specific fields, reads one CBOR response
// envelope, and disconnects. The envelope carries ok/error/code plus
// an optional data payload; the code field is the escrow error code,
// so remote callers branch on the same taxonomy as in-process
// callers.
//
// Authentication is the surrounding platform's job. The "caller"
// field on mutating requests names the acting identity and is trusted
// as delivered; deployments front the socket with whatever
// authenticating transport they already run.
package service
