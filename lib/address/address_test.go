// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"testing"
)

func TestDeterminism(t *testing.T) {
	first := Member("gym-q3", "@alice:pact.local")
	second := Member("gym-q3", "@alice:pact.local")
	if first != second {
		t.Errorf("same inputs derived %s and %s", first, second)
	}
}

func TestDistinctInputsDistinctAddresses(t *testing.T) {
	seen := make(map[string]string)
	record := func(label string, addr Address) {
		t.Helper()
		if prior, dup := seen[addr.String()]; dup {
			t.Errorf("%s collides with %s at %s", label, prior, addr)
		}
		seen[addr.String()] = label
	}

	record("task gym-q3", Task("gym-q3"))
	record("task gym-q4", Task("gym-q4"))
	record("vault gym-q3", Vault("gym-q3"))
	record("member alice", Member("gym-q3", "@alice:pact.local"))
	record("member bob", Member("gym-q3", "@bob:pact.local"))
	record("member alice other task", Member("gym-q4", "@alice:pact.local"))
	record("account alice", Account("@alice:pact.local"))
}

func TestNamespaceSeparation(t *testing.T) {
	// The same input string must land at different addresses in
	// different namespaces - keyed domains, not prefix tags, carry
	// this guarantee.
	task := Task("shared-id")
	vault := Vault("shared-id")
	account := Account("shared-id")

	if task.digest == vault.digest {
		t.Error("task and vault digests equal for identical input")
	}
	if task.digest == account.digest {
		t.Error("task and account digests equal for identical input")
	}
}

func TestKeyFraming(t *testing.T) {
	// Byte-shifting between key parts must not produce the same
	// address.
	first := Member("ab", "c")
	second := Member("a", "bc")
	if first == second {
		t.Errorf("boundary shift produced identical address %s", first)
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := Member("gym-q3", "@alice:pact.local")
	parsed, err := Parse(original.String())
	if err != nil {
		t.Fatalf("Parse(%q): %v", original.String(), err)
	}
	if parsed != original {
		t.Errorf("round trip = %s, want %s", parsed, original)
	}
	if parsed.Namespace() != NamespaceMember {
		t.Errorf("Namespace() = %q, want %q", parsed.Namespace(), NamespaceMember)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"task",
		"task-",
		"task-zz",
		"task-abcd",
		"bogus-0000000000000000000000000000000000000000000000000000000000000000",
	}
	for _, input := range cases {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", input)
		}
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	original := Vault("gym-q3")
	text, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var decoded Address
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip = %s, want %s", decoded, original)
	}

	var zero Address
	if _, err := zero.MarshalText(); err == nil {
		t.Error("MarshalText of zero address succeeded, want error")
	}
}
