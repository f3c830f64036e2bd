// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package expr implements the three-valued expression language rules are
// written in: every expression evaluates to a Number, Boolean, String,
// List, or Undefined. Undefined propagates through every operator except
// the four non-strict ones (is-unset, if, all, any), which can observe
// and short-circuit on it. Grounded on the original watt source's
// config.rs Expression/EvalState/eval and system.rs's per-target
// EvalContext usage.
package expr

import "fmt"

// Kind tags which variant a Value holds.
type Kind int

const (
	KindUndefined Kind = iota
	KindNumber
	KindBoolean
	KindString
	KindList
)

// Value is the tagged result of evaluating an Expression. The zero Value
// is Undefined.
type Value struct {
	Kind    Kind
	Number  float64
	Boolean bool
	String  string
	List    []Value
}

// Undefined is the canonical Undefined value.
var Undefined = Value{Kind: KindUndefined}

// NumberValue wraps n as a Number Value.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Number: n} }

// BooleanValue wraps b as a Boolean Value.
func BooleanValue(b bool) Value { return Value{Kind: KindBoolean, Boolean: b} }

// StringValue wraps s as a String Value.
func StringValue(s string) Value { return Value{Kind: KindString, String: s} }

// ListValue wraps items as a List Value.
func ListValue(items []Value) Value { return Value{Kind: KindList, List: items} }

// IsUndefined reports whether v is the Undefined value.
func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }

// AsNumber type-checks v as a Number, returning a TypeError otherwise.
func (v Value) AsNumber() (float64, error) {
	if v.Kind != KindNumber {
		return 0, &TypeError{Wanted: "number", Got: v}
	}
	return v.Number, nil
}

// AsBoolean type-checks v as a Boolean, returning a TypeError otherwise.
func (v Value) AsBoolean() (bool, error) {
	if v.Kind != KindBoolean {
		return false, &TypeError{Wanted: "boolean", Got: v}
	}
	return v.Boolean, nil
}

// AsString type-checks v as a String, returning a TypeError otherwise.
func (v Value) AsString() (string, error) {
	if v.Kind != KindString {
		return "", &TypeError{Wanted: "string", Got: v}
	}
	return v.String, nil
}

// AsList type-checks v as a List, returning a TypeError otherwise.
func (v Value) AsList() ([]Value, error) {
	if v.Kind != KindList {
		return nil, &TypeError{Wanted: "list", Got: v}
	}
	return v.List, nil
}

// TypeError is returned when an expression's concrete value does not
// match the type an operator required.
type TypeError struct {
	Wanted string
	Got    Value
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected a %s, got %s", e.Wanted, e.Got.describe())
}

func (v Value) describe() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNumber:
		return fmt.Sprintf("number %v", v.Number)
	case KindBoolean:
		return fmt.Sprintf("boolean %v", v.Boolean)
	case KindString:
		return fmt.Sprintf("string %q", v.String)
	case KindList:
		return fmt.Sprintf("list of %d", len(v.List))
	default:
		return "unknown"
	}
}

// Equal reports whether two Values are structurally identical: same kind
// and, for the scalar kinds, the same payload. Lists compare
// element-wise.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindUndefined:
		return true
	case KindNumber:
		return v.Number == other.Number
	case KindBoolean:
		return v.Boolean == other.Boolean
	case KindString:
		return v.String == other.String
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
