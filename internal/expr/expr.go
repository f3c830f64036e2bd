// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package expr

import "math"

// OpKind enumerates every expression node. Go has no tagged unions, so
// Expression is a single struct with an OpKind discriminant and the
// fields relevant to that kind populated; the shape mirrors the
// original's #[serde(untagged)] enum one arm at a time.
type OpKind int

const (
	OpFrequencyAvailable OpKind = iota
	OpTurboAvailable

	OpIsGovernorAvailable
	OpIsEPPAvailable
	OpIsEPBAvailable
	OpIsPlatformProfileAvailable
	OpIsDriverLoaded

	OpCpuUsage
	OpCpuUsageVolatility
	OpCpuTemperature
	OpCpuTemperatureVolatility
	OpCpuIdleSeconds
	OpCpuFrequencyMinimum
	OpCpuFrequencyMaximum
	OpCpuScalingMaximum
	OpCpuCoreCount
	OpCpuUsageSince

	OpLoadAverage1m
	OpLoadAverage5m
	OpLoadAverage15m
	OpHourOfDay

	OpPowerSupplyCharge
	OpPowerSupplyDischargeRate
	OpBatteryHealth
	OpBatteryCycles
	OpDischarging
	OpLidClosed

	OpLiteralBoolean
	OpLiteralNumber
	OpLiteralString
	OpLiteralList

	OpPlus
	OpMinus
	OpMultiply
	OpPower
	OpDivide

	OpLessThan
	OpMoreThan
	OpEqual
	OpMinimum
	OpMaximum

	OpIfElse
	OpIsUnset
	OpAnd
	OpAll
	OpOr
	OpAny
	OpNot
)

// Expression is one node of the rule condition/delta-value tree.
type Expression struct {
	Op OpKind

	LiteralBoolean bool
	LiteralNumber  float64
	LiteralString  string
	LiteralList    []Expression

	A, B Expression // binary operators; B unused by unary ones

	// Value holds the argument expression for the single-argument
	// operators: is-*-available/is-driver-loaded (must evaluate to a
	// String) and cpu-usage-since (must evaluate to a Number of seconds).
	Value *Expression

	Condition   *Expression // IfElse
	Consequence *Expression
	Alternative *Expression // nil means "no else"

	Leeway *Expression // Equal

	Not *Expression // Not
	All []Expression
	Any []Expression

	// Minimum/Maximum operands; reuses All's shape as a plain expression list.
	List []Expression
}

// try_ok! in the original: evaluating a sub-expression that turns out
// Undefined makes the whole strict expression Undefined too. evalStrict
// centralizes that by returning a sentinel ok=false.
func evalStrict(state State, e Expression) (Value, bool, error) {
	v, err := Eval(state, e)
	if err != nil {
		return Value{}, false, err
	}
	if v.IsUndefined() {
		return Value{}, false, nil
	}
	return v, true, nil
}

// Eval evaluates e against state using three-valued semantics: every
// operator except IsUnset/IfElse/All/Any propagates Undefined from any
// operand directly to its own result. Grounded on config.rs's
// Expression::eval.
func Eval(state State, e Expression) (Value, error) {
	switch e.Op {
	case OpFrequencyAvailable:
		return state.frequencyAvailable(), nil
	case OpTurboAvailable:
		return state.turboAvailable(), nil

	case OpIsGovernorAvailable, OpIsEPPAvailable, OpIsEPBAvailable, OpIsPlatformProfileAvailable, OpIsDriverLoaded:
		return evalIsAvailable(state, e)

	case OpCpuUsage:
		return NumberValue(state.CpuUsage), nil
	case OpCpuUsageVolatility:
		if !state.HasCpuUsageVolatility {
			return Undefined, nil
		}
		return NumberValue(state.CpuUsageVolatility), nil
	case OpCpuTemperature:
		return NumberValue(state.CpuTemperature), nil
	case OpCpuTemperatureVolatility:
		if !state.HasCpuTemperatureVolatility {
			return Undefined, nil
		}
		return NumberValue(state.CpuTemperatureVolatility), nil
	case OpCpuIdleSeconds:
		return NumberValue(state.CpuIdleSeconds), nil
	case OpCpuFrequencyMinimum:
		if !state.HasCpuFrequencyMinimumMHz {
			return Undefined, nil
		}
		return NumberValue(state.CpuFrequencyMinimumMHz), nil
	case OpCpuFrequencyMaximum:
		if !state.HasCpuFrequencyMaximumMHz {
			return Undefined, nil
		}
		return NumberValue(state.CpuFrequencyMaximumMHz), nil
	case OpCpuScalingMaximum:
		if !state.HasCpuScalingMaximumMHz {
			return Undefined, nil
		}
		return NumberValue(state.CpuScalingMaximumMHz), nil
	case OpCpuCoreCount:
		return NumberValue(float64(state.CpuCoreCount)), nil
	case OpCpuUsageSince:
		window, ok, err := evalStrict(state, *e.Value)
		if err != nil || !ok {
			return Undefined, err
		}
		seconds, err := window.AsNumber()
		if err != nil {
			return Value{}, err
		}
		if state.UsageMeanSince == nil {
			return Undefined, nil
		}
		mean, meanOk := state.UsageMeanSince(seconds)
		if !meanOk {
			return Undefined, nil
		}
		return NumberValue(mean), nil

	case OpLoadAverage1m:
		if !state.HasLoadAverage {
			return NumberValue(0), nil
		}
		return NumberValue(state.LoadAverage1m), nil
	case OpLoadAverage5m:
		if !state.HasLoadAverage {
			return NumberValue(0), nil
		}
		return NumberValue(state.LoadAverage5m), nil
	case OpLoadAverage15m:
		if !state.HasLoadAverage {
			return NumberValue(0), nil
		}
		return NumberValue(state.LoadAverage15m), nil
	case OpHourOfDay:
		return NumberValue(float64(state.HourOfDay)), nil

	case OpPowerSupplyCharge:
		return NumberValue(state.PowerSupplyCharge), nil
	case OpPowerSupplyDischargeRate:
		if !state.HasPowerSupplyDischargeRate {
			return Undefined, nil
		}
		return NumberValue(state.PowerSupplyDischargeRate), nil
	case OpBatteryHealth:
		return state.batteryHealth(), nil
	case OpBatteryCycles:
		return state.batteryCycles(), nil
	case OpDischarging:
		return BooleanValue(state.Discharging), nil
	case OpLidClosed:
		if !state.HasLidState {
			return BooleanValue(false), nil
		}
		return BooleanValue(state.LidClosed), nil

	case OpLiteralBoolean:
		return BooleanValue(e.LiteralBoolean), nil
	case OpLiteralNumber:
		return NumberValue(e.LiteralNumber), nil
	case OpLiteralString:
		return StringValue(e.LiteralString), nil
	case OpLiteralList:
		items := make([]Value, len(e.LiteralList))
		for i, item := range e.LiteralList {
			v, ok, err := evalStrict(state, item)
			if err != nil {
				return Value{}, err
			}
			if !ok {
				return Undefined, nil
			}
			items[i] = v
		}
		return ListValue(items), nil

	case OpPlus, OpMinus, OpMultiply, OpPower, OpDivide:
		return evalArithmetic(state, e)

	case OpLessThan, OpMoreThan:
		return evalComparison(state, e)

	case OpEqual:
		return evalEqual(state, e)

	case OpMinimum:
		return evalMinMax(state, e, false)
	case OpMaximum:
		return evalMinMax(state, e, true)

	case OpIfElse:
		return evalIfElse(state, e)

	case OpIsUnset:
		v, err := Eval(state, e.A)
		if err != nil {
			return Value{}, err
		}
		return BooleanValue(v.IsUndefined()), nil

	case OpAnd:
		return evalAnd(state, e)
	case OpAll:
		return evalAll(state, e)
	case OpOr:
		return evalOr(state, e)
	case OpAny:
		return evalAny(state, e)
	case OpNot:
		v, ok, err := evalStrict(state, *e.Not)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return Undefined, nil
		}
		b, err := v.AsBoolean()
		if err != nil {
			return Value{}, err
		}
		return BooleanValue(!b), nil

	default:
		return Value{}, &TypeError{Wanted: "known operator", Got: Undefined}
	}
}

// evalIsAvailable dispatches the five value-parameterized availability
// operators: each evaluates its Value child strictly to a String and asks
// the current EvalContext whether that concrete value is offered.
func evalIsAvailable(state State, e Expression) (Value, error) {
	if e.Value == nil {
		return Value{}, &TypeError{Wanted: "availability check argument", Got: Undefined}
	}
	v, ok, err := evalStrict(state, *e.Value)
	if err != nil || !ok {
		return Undefined, err
	}
	value, err := v.AsString()
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case OpIsGovernorAvailable:
		return state.isGovernorAvailable(value), nil
	case OpIsEPPAvailable:
		return state.isEPPAvailable(value), nil
	case OpIsEPBAvailable:
		return state.isEPBAvailable(value), nil
	case OpIsPlatformProfileAvailable:
		return state.isPlatformProfileAvailable(value), nil
	case OpIsDriverLoaded:
		return state.isDriverLoaded(value), nil
	default:
		return Value{}, &TypeError{Wanted: "availability operator", Got: Undefined}
	}
}

// evalMinMax requires at least one element (a TypeError, not Undefined, on
// an empty list) per the spec's "≥1 element required" rule.
func evalMinMax(state State, e Expression, wantMax bool) (Value, error) {
	if len(e.List) == 0 {
		return Value{}, &TypeError{Wanted: "non-empty list", Got: Undefined}
	}

	var result float64
	for i, item := range e.List {
		v, ok, err := evalStrict(state, item)
		if err != nil || !ok {
			return Undefined, err
		}
		n, err := v.AsNumber()
		if err != nil {
			return Value{}, err
		}
		if i == 0 {
			result = n
			continue
		}
		if wantMax && n > result {
			result = n
		}
		if !wantMax && n < result {
			result = n
		}
	}
	return NumberValue(result), nil
}

func evalArithmetic(state State, e Expression) (Value, error) {
	a, ok, err := evalStrict(state, e.A)
	if err != nil || !ok {
		return Undefined, err
	}
	b, ok, err := evalStrict(state, e.B)
	if err != nil || !ok {
		return Undefined, err
	}
	an, err := a.AsNumber()
	if err != nil {
		return Value{}, err
	}
	bn, err := b.AsNumber()
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case OpPlus:
		return NumberValue(an + bn), nil
	case OpMinus:
		return NumberValue(an - bn), nil
	case OpMultiply:
		return NumberValue(an * bn), nil
	case OpDivide:
		return NumberValue(an / bn), nil
	case OpPower:
		return NumberValue(math.Pow(an, bn)), nil
	default:
		return Value{}, &TypeError{Wanted: "arithmetic operator", Got: Undefined}
	}
}

func evalComparison(state State, e Expression) (Value, error) {
	a, ok, err := evalStrict(state, e.A)
	if err != nil || !ok {
		return Undefined, err
	}
	b, ok, err := evalStrict(state, e.B)
	if err != nil || !ok {
		return Undefined, err
	}
	an, err := a.AsNumber()
	if err != nil {
		return Value{}, err
	}
	bn, err := b.AsNumber()
	if err != nil {
		return Value{}, err
	}
	if e.Op == OpLessThan {
		return BooleanValue(an < bn), nil
	}
	return BooleanValue(an > bn), nil
}

func evalEqual(state State, e Expression) (Value, error) {
	a, ok, err := evalStrict(state, e.A)
	if err != nil || !ok {
		return Undefined, err
	}
	b, ok, err := evalStrict(state, e.B)
	if err != nil || !ok {
		return Undefined, err
	}
	leeway, ok, err := evalStrict(state, *e.Leeway)
	if err != nil || !ok {
		return Undefined, err
	}

	an, err := a.AsNumber()
	if err != nil {
		return Value{}, err
	}
	bn, err := b.AsNumber()
	if err != nil {
		return Value{}, err
	}
	ln, err := leeway.AsNumber()
	if err != nil {
		return Value{}, err
	}

	minimum, maximum := an-ln, an+ln
	return BooleanValue(minimum < bn && bn < maximum), nil
}

// evalIfElse is non-strict: an Undefined condition is not propagated
// blindly, it simply makes the whole if-expression Undefined (matching
// eval!(condition) returning early with Ok(None)), while the branch not
// taken is never evaluated at all.
func evalIfElse(state State, e Expression) (Value, error) {
	cond, ok, err := evalStrict(state, *e.Condition)
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Undefined, nil
	}
	b, err := cond.AsBoolean()
	if err != nil {
		return Value{}, err
	}

	if b {
		return Eval(state, *e.Consequence)
	}
	if e.Alternative != nil {
		return Eval(state, *e.Alternative)
	}
	return Undefined, nil
}

func evalAnd(state State, e Expression) (Value, error) {
	a, ok, err := evalStrict(state, e.A)
	if err != nil || !ok {
		return Undefined, err
	}
	b, ok, err := evalStrict(state, e.B)
	if err != nil || !ok {
		return Undefined, err
	}
	ab, err := a.AsBoolean()
	if err != nil {
		return Value{}, err
	}
	bb, err := b.AsBoolean()
	if err != nil {
		return Value{}, err
	}
	return BooleanValue(ab && bb), nil
}

func evalOr(state State, e Expression) (Value, error) {
	a, ok, err := evalStrict(state, e.A)
	if err != nil || !ok {
		return Undefined, err
	}
	b, ok, err := evalStrict(state, e.B)
	if err != nil || !ok {
		return Undefined, err
	}
	ab, err := a.AsBoolean()
	if err != nil {
		return Value{}, err
	}
	bb, err := b.AsBoolean()
	if err != nil {
		return Value{}, err
	}
	return BooleanValue(ab || bb), nil
}

// evalAll short-circuits to Boolean(false) on the first false member.
// An Undefined member reached before any short-circuiting false
// propagates Undefined for the whole expression, matching the
// original's eval!/try_ok! behavior. An empty list is vacuously true.
func evalAll(state State, e Expression) (Value, error) {
	for _, member := range e.All {
		v, err := Eval(state, member)
		if err != nil {
			return Value{}, err
		}
		if v.IsUndefined() {
			return Undefined, nil
		}
		b, err := v.AsBoolean()
		if err != nil {
			return Value{}, err
		}
		if !b {
			return BooleanValue(false), nil
		}
	}
	return BooleanValue(true), nil
}

// evalAny short-circuits to Boolean(true) on the first true member. An
// Undefined member reached before any short-circuiting true propagates
// Undefined for the whole expression. An empty list is vacuously false.
func evalAny(state State, e Expression) (Value, error) {
	for _, member := range e.Any {
		v, err := Eval(state, member)
		if err != nil {
			return Value{}, err
		}
		if v.IsUndefined() {
			return Undefined, nil
		}
		b, err := v.AsBoolean()
		if err != nil {
			return Value{}, err
		}
		if b {
			return BooleanValue(true), nil
		}
	}
	return BooleanValue(false), nil
}

