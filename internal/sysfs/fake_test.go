// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package sysfs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeWriteToUnknownPathErrors(t *testing.T) {
	fs := NewFake()
	err := fs.Write("/sys/class/never/seen", "value")
	assert.Error(t, err)
}

func TestFakeWriteUpdatesExistingPath(t *testing.T) {
	fs := NewFake().Set("/sys/governor", "powersave")
	require.NoError(t, fs.Write("/sys/governor", "performance"))

	value, ok, err := fs.Read("/sys/governor")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "performance", value)
}

func TestFakeFailForcesErrorOnEveryOperation(t *testing.T) {
	fs := NewFake().Set("/flaky", "value").Fail("/flaky", errors.New("simulated I/O error"))

	_, _, err := fs.Read("/flaky")
	assert.Error(t, err)

	err = fs.Write("/flaky", "x")
	assert.Error(t, err)
}

func TestFakeExists(t *testing.T) {
	fs := NewFake().Set("/present", "x")
	assert.True(t, fs.Exists("/present"))
	assert.False(t, fs.Exists("/absent"))
}
