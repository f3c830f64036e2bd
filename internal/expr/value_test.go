// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAccessors(t *testing.T) {
	n := NumberValue(3.5)
	got, err := n.AsNumber()
	require.NoError(t, err)
	assert.Equal(t, 3.5, got)

	_, err = n.AsBoolean()
	assert.Error(t, err)
	_, err = n.AsString()
	assert.Error(t, err)
	_, err = n.AsList()
	assert.Error(t, err)

	b := BooleanValue(true)
	bv, err := b.AsBoolean()
	require.NoError(t, err)
	assert.True(t, bv)

	s := StringValue("powersave")
	sv, err := s.AsString()
	require.NoError(t, err)
	assert.Equal(t, "powersave", sv)

	l := ListValue([]Value{NumberValue(1), NumberValue(2)})
	lv, err := l.AsList()
	require.NoError(t, err)
	assert.Len(t, lv, 2)
}

func TestValueIsUndefined(t *testing.T) {
	assert.True(t, Undefined.IsUndefined())
	assert.True(t, Value{}.IsUndefined())
	assert.False(t, NumberValue(0).IsUndefined())
}

func TestTypeErrorMessage(t *testing.T) {
	_, err := BooleanValue(true).AsNumber()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a number")
	assert.Contains(t, err.Error(), "boolean")
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"undefined equals undefined", Undefined, Undefined, true},
		{"undefined not equal to number", Undefined, NumberValue(0), false},
		{"equal numbers", NumberValue(1), NumberValue(1), true},
		{"unequal numbers", NumberValue(1), NumberValue(2), false},
		{"equal booleans", BooleanValue(true), BooleanValue(true), true},
		{"equal strings", StringValue("a"), StringValue("a"), true},
		{"unequal strings", StringValue("a"), StringValue("b"), false},
		{
			"equal lists",
			ListValue([]Value{NumberValue(1), StringValue("a")}),
			ListValue([]Value{NumberValue(1), StringValue("a")}),
			true,
		},
		{
			"lists of different length",
			ListValue([]Value{NumberValue(1)}),
			ListValue([]Value{NumberValue(1), NumberValue(2)}),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}
