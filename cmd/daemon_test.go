// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockFilePathPrefersXdgRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/watt.pid", lockFilePath())
}

func TestLockFilePathFallsBackWithoutXdgRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.Equal(t, "/run/watt.pid", lockFilePath())
}
