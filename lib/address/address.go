// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Namespace identifies the record kind an address belongs to. The
// namespace is part of the canonical text form, so addresses are
// self-describing in logs and database rows.
type Namespace string

// Record namespaces. Adding a namespace requires a matching domain
// key below.
const (
	NamespaceTask    Namespace = "task"
	NamespaceMember  Namespace = "member"
	NamespaceVault   Namespace = "vault"
	NamespaceAccount Namespace = "acct"
)

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// digests in different namespaces, preventing cross-namespace
// collisions.
type domainKey [32]byte

// Domain separation keys. These are fixed constants - changing them
// moves every existing record to a new address. The byte values are
// the ASCII encoding of the domain name, zero-padded to 32 bytes.
// Readable ASCII keeps them inspectable in hex dumps without
// sacrificing any cryptographic property (BLAKE3 keyed mode treats
// the key as an opaque 32-byte value).
var (
	taskDomainKey = domainKey{
		'p', 'a', 'c', 't', '.', 'a', 'd', 'd', 'r', '.', 't', 'a', 's', 'k',
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	memberDomainKey = domainKey{
		'p', 'a', 'c', 't', '.', 'a', 'd', 'd', 'r', '.', 'm', 'e', 'm', 'b', 'e', 'r',
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	vaultDomainKey = domainKey{
		'p', 'a', 'c', 't', '.', 'a', 'd', 'd', 'r', '.', 'v', 'a', 'u', 'l', 't',
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	accountDomainKey = domainKey{
		'p', 'a', 'c', 't', '.', 'a', 'd', 'd', 'r', '.', 'a', 'c', 'c', 'o', 'u', 'n', 't',
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Address is the derived storage address of one escrow record: a
// namespace plus a 32-byte BLAKE3 keyed digest of the record's
// logical keys.
//
// The zero Address is invalid and reports IsZero.
type Address struct {
	namespace Namespace
	digest    [32]byte
}

// Task returns the address of the task record for taskID.
func Task(taskID string) Address {
	return derive(NamespaceTask, taskDomainKey, taskID)
}

// Vault returns the address of the escrow vault owned by taskID's
// task. One vault per task.
func Vault(taskID string) Address {
	return derive(NamespaceVault, vaultDomainKey, taskID)
}

// Member returns the address of the membership record for the given
// participant within taskID's task. One member record per
// (task, owner) pair.
func Member(taskID, owner string) Address {
	return derive(NamespaceMember, memberDomainKey, taskID, owner)
}

// Account returns the address of the ledger account holding the
// participant's external balance.
func Account(owner string) Address {
	return derive(NamespaceAccount, accountDomainKey, owner)
}

// derive computes the keyed digest of the length-framed key parts.
func derive(namespace Namespace, key domainKey, parts ...string) Address {
	// NewKeyed only fails for a wrong key length, which domainKey
	// makes impossible.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("address: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	// Frame each part with a uvarint length prefix so part
	// boundaries are unambiguous.
	var frame [binary.MaxVarintLen64]byte
	for _, part := range parts {
		n := binary.PutUvarint(frame[:], uint64(len(part)))
		hasher.Write(frame[:n])
		hasher.Write([]byte(part))
	}

	addr := Address{namespace: namespace}
	copy(addr.digest[:], hasher.Sum(nil))
	return addr
}

// Namespace returns the record kind this address belongs to.
func (a Address) Namespace() Namespace { return a.namespace }

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool { return a.namespace == "" }

// String returns the canonical text form: the namespace, a dash, and
// 64 lowercase hex characters. This is the form stored in database
// keys and printed in logs.
func (a Address) String() string {
	return string(a.namespace) + "-" + hex.EncodeToString(a.digest[:])
}

// MarshalText implements encoding.TextMarshaler. Addresses serialize
// as their canonical string form in CBOR and JSON.
func (a Address) MarshalText() ([]byte, error) {
	if a.IsZero() {
		return nil, fmt.Errorf("address: marshaling zero address")
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Parse parses the canonical text form produced by String.
func Parse(s string) (Address, error) {
	namespace, digestHex, found := strings.Cut(s, "-")
	if !found {
		return Address{}, fmt.Errorf("address: %q has no namespace separator", s)
	}

	switch Namespace(namespace) {
	case NamespaceTask, NamespaceMember, NamespaceVault, NamespaceAccount:
	default:
		return Address{}, fmt.Errorf("address: unknown namespace %q", namespace)
	}

	decoded, err := hex.DecodeString(digestHex)
	if err != nil {
		return Address{}, fmt.Errorf("address: parsing digest of %q: %w", s, err)
	}
	if len(decoded) != 32 {
		return Address{}, fmt.Errorf("address: digest of %q is %d bytes, want 32", s, len(decoded))
	}

	addr := Address{namespace: Namespace(namespace)}
	copy(addr.digest[:], decoded)
	return addr, nil
}
