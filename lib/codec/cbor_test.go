// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestDeterministicEncoding(t *testing.T) {
	// Map encoding must be byte-identical regardless of insertion
	// order - the whole point of Core Deterministic Encoding.
	first, err := Marshal(map[string]any{"alpha": 1, "beta": 2, "gamma": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(map[string]any{"gamma": 3, "alpha": 1, "beta": 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("encodings differ: %x vs %x", first, second)
	}
}

func TestAnyMapDecodesToStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"outer": map[string]any{"inner": 42}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	outer, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if _, ok := outer["outer"].(map[string]any); !ok {
		t.Errorf("nested type = %T, want map[string]any", outer["outer"])
	}
}

func TestStreamRoundTrip(t *testing.T) {
	type payload struct {
		Action string `cbor:"action"`
		Amount int64  `cbor:"amount"`
	}

	var buf bytes.Buffer
	encoder := NewEncoder(&buf)
	if err := encoder.Encode(payload{Action: "task.join", Amount: 10}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got payload
	if err := NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Action != "task.join" || got.Amount != 10 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(map[string]any{"action": "ping", "future_field": true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got struct {
		Action string `cbor:"action"`
	}
	if err := Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Action != "ping" {
		t.Errorf("Action = %q, want %q", got.Action, "ping")
	}
}
