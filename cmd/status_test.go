// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionalStringReportsUnsetForNil(t *testing.T) {
	assert.Equal(t, "(unset)", optionalString(nil))
	value := "performance"
	assert.Equal(t, "performance", optionalString(&value))
}

func TestOptionalIntReportsUnsetForNil(t *testing.T) {
	assert.Equal(t, "(unset)", optionalInt(nil))
	value := int64(3200)
	assert.Equal(t, "3200", optionalInt(&value))
}
