// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNow(t *testing.T) {
	c := Fake(testEpoch)
	if got := c.Now(); !got.Equal(testEpoch) {
		t.Errorf("Now() = %v, want %v", got, testEpoch)
	}

	c.Advance(90 * time.Minute)
	want := testEpoch.Add(90 * time.Minute)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	c := Fake(testEpoch)
	ch := c.After(time.Hour)

	select {
	case <-ch:
		t.Fatal("After fired before Advance")
	default:
	}

	c.Advance(time.Hour)
	select {
	case got := <-ch:
		if !got.Equal(testEpoch.Add(time.Hour)) {
			t.Errorf("fire time = %v, want %v", got, testEpoch.Add(time.Hour))
		}
	default:
		t.Fatal("After did not fire after Advance")
	}
}

func TestFakeAfterImmediate(t *testing.T) {
	c := Fake(testEpoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeSet(t *testing.T) {
	c := Fake(testEpoch)
	target := testEpoch.Add(48 * time.Hour)
	c.Set(target)
	if got := c.Now(); !got.Equal(target) {
		t.Errorf("Now() after Set = %v, want %v", got, target)
	}
}
