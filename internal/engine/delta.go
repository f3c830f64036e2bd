// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package engine folds priority-ordered rules into concrete per-target
// deltas and applies them to hardware. Grounded on system.rs's run_daemon
// fold loop (descending-priority iteration, Delta::or accumulator-wins
// merge, the deltas_some && turbo.is_some() saturation short-circuit) and
// cpu.rs's set_turbo four-path fallback order.
package engine

import (
	"log/slog"
	"math"

	"github.com/NotAShelf/watt/internal/expr"
)

// CpuDelta is a per-CPU accumulator: each field starts unset and is
// filled, at most once, by the first (highest-priority) rule that
// supplies it — later (lower-priority) rules never overwrite an
// already-set field. This is the Go rendering of the original's
// Delta::or "accumulator wins" merge.
type CpuDelta struct {
	Governor            *string
	EPP                 *string
	EPB                 *string
	FrequencyMinimumMHz *int64
	FrequencyMaximumMHz *int64
}

// IsSaturated reports whether every governed field has been set. Turbo is
// tracked separately (it is system-wide, not per-CPU) per the original's
// `deltas_some && cpu_turbo.is_some()` short-circuit condition.
func (d CpuDelta) IsSaturated() bool {
	return d.Governor != nil && d.EPP != nil && d.EPB != nil &&
		d.FrequencyMinimumMHz != nil && d.FrequencyMaximumMHz != nil
}

// Or merges lo into d, keeping d's already-set fields and filling only
// the ones still nil.
func (d CpuDelta) Or(lo CpuDelta) CpuDelta {
	if d.Governor == nil {
		d.Governor = lo.Governor
	}
	if d.EPP == nil {
		d.EPP = lo.EPP
	}
	if d.EPB == nil {
		d.EPB = lo.EPB
	}
	if d.FrequencyMinimumMHz == nil {
		d.FrequencyMinimumMHz = lo.FrequencyMinimumMHz
	}
	if d.FrequencyMaximumMHz == nil {
		d.FrequencyMaximumMHz = lo.FrequencyMaximumMHz
	}
	return d
}

// PowerDelta is the power-supply analogue of CpuDelta.
type PowerDelta struct {
	ChargeThresholdStart *int64
	ChargeThresholdEnd   *int64
}

// IsSaturated reports whether every governed field has been set.
// PlatformProfile is tracked separately (system-wide, like turbo).
func (d PowerDelta) IsSaturated() bool {
	return d.ChargeThresholdStart != nil && d.ChargeThresholdEnd != nil
}

// Or merges lo into d, keeping d's already-set fields.
func (d PowerDelta) Or(lo PowerDelta) PowerDelta {
	if d.ChargeThresholdStart == nil {
		d.ChargeThresholdStart = lo.ChargeThresholdStart
	}
	if d.ChargeThresholdEnd == nil {
		d.ChargeThresholdEnd = lo.ChargeThresholdEnd
	}
	return d
}

// evalOptionalString evaluates e (if non-nil) and type-checks it as a
// string; nil or an Undefined result both mean "this rule contributed
// nothing for this field".
func evalOptionalString(state expr.State, e *expr.Expression) (*string, error) {
	if e == nil {
		return nil, nil
	}
	v, err := expr.Eval(state, *e)
	if err != nil {
		return nil, err
	}
	if v.IsUndefined() {
		return nil, nil
	}
	s, err := v.AsString()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// evalOptionalInt evaluates e (if non-nil) and type-checks it as a
// number, rounding to the nearest integer. A warning is logged when the
// evaluated value has a non-zero fractional part, since rounding changes
// the value the rule author wrote.
func evalOptionalInt(state expr.State, e *expr.Expression, fieldName string) (*int64, error) {
	if e == nil {
		return nil, nil
	}
	v, err := expr.Eval(state, *e)
	if err != nil {
		return nil, err
	}
	if v.IsUndefined() {
		return nil, nil
	}
	n, err := v.AsNumber()
	if err != nil {
		return nil, err
	}
	rounded := math.Round(n)
	if rounded != n {
		slog.Warn("rounding non-integer value to nearest integer", "field", fieldName, "value", n, "rounded", rounded)
	}
	i := int64(rounded)
	return &i, nil
}

// evalOptionalBool evaluates e (if non-nil) and type-checks it as a
// boolean.
func evalOptionalBool(state expr.State, e *expr.Expression) (*bool, error) {
	if e == nil {
		return nil, nil
	}
	v, err := expr.Eval(state, *e)
	if err != nil {
		return nil, err
	}
	if v.IsUndefined() {
		return nil, nil
	}
	b, err := v.AsBoolean()
	if err != nil {
		return nil, err
	}
	return &b, nil
}
