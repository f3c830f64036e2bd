// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package clockx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClockAdvances(t *testing.T) {
	var c Real
	first := c.Now()
	time.Sleep(time.Millisecond)
	second := c.Now()
	assert.True(t, second.After(first) || second.Equal(first))
}

func TestFakeClockIsPinned(t *testing.T) {
	pinned := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewFake(pinned)
	assert.Equal(t, pinned, c.Now())
	assert.Equal(t, pinned, c.Now())
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)
	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())
}

func TestFakeClockSet(t *testing.T) {
	c := NewFake(time.Time{})
	want := time.Date(2030, 5, 5, 0, 0, 0, 0, time.UTC)
	c.Set(want)
	assert.Equal(t, want, c.Now())
}
