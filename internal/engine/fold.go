// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/expr"
	"github.com/NotAShelf/watt/internal/hwmodel"
	"github.com/NotAShelf/watt/internal/ruleset"
)

// Result is the final, saturated-or-not set of deltas the fold produced
// for one tick, plus the two system-scope scalars (turbo, platform
// profile) that are not per-target.
type Result struct {
	CpuDeltas      map[int]CpuDelta
	Turbo          *bool
	PowerDeltas    map[string]PowerDelta
	PlatformProfile *string
}

// Fold walks rules from highest to lowest priority (config.Rules is
// sorted ascending, so iteration runs in reverse), evaluating each rule's
// condition against a WidestPossibleContext, and merging its cpu/power
// deltas into running per-target accumulators. It stops as soon as every
// CPU delta, every power-supply delta, and both scalars are saturated,
// or after the last rule either way. Grounded on system.rs's run_daemon
// fold loop.
func Fold(config *ruleset.Config, cpus []hwmodel.Cpu, powerSupplies []hwmodel.PowerSupply, baseState expr.State) (Result, error) {
	result := Result{
		CpuDeltas:   make(map[int]CpuDelta, len(cpus)),
		PowerDeltas: make(map[string]PowerDelta, len(powerSupplies)),
	}
	for _, cpu := range cpus {
		result.CpuDeltas[cpu.Number] = CpuDelta{}
	}
	for _, ps := range powerSupplies {
		result.PowerDeltas[ps.Name] = PowerDelta{}
	}

	widest := baseState
	widest.Context = expr.WidestPossibleContext{Cpus: cpus, PowerSupplies: powerSupplies}

	for i := len(config.Rules) - 1; i >= 0; i-- {
		rule := config.Rules[i]

		conditionValue, err := expr.Eval(widest, rule.Condition)
		if err != nil {
			return Result{}, errors.Wrapf(err, "failed to evaluate condition for rule %q", rule.Name)
		}
		if conditionValue.IsUndefined() {
			continue
		}
		conditionTrue, err := conditionValue.AsBoolean()
		if err != nil {
			return Result{}, errors.Wrapf(err, "rule %q condition did not evaluate to a boolean", rule.Name)
		}
		if !conditionTrue {
			continue
		}

		cpuSaturated, err := foldCpuRule(rule, cpus, baseState, &result)
		if err != nil {
			return Result{}, err
		}

		powerSaturated, err := foldPowerRule(rule, powerSupplies, baseState, &result)
		if err != nil {
			return Result{}, err
		}

		if cpuSaturated && powerSaturated {
			break
		}
	}

	return result, nil
}

func foldCpuRule(rule ruleset.Rule, cpus []hwmodel.Cpu, baseState expr.State, result *Result) (bool, error) {
	allSaturated := true

	for _, cpu := range cpus {
		if !ruleAppliesToCpu(rule.Cpu.For, cpu.Number) {
			if !result.CpuDeltas[cpu.Number].IsSaturated() {
				allSaturated = false
			}
			continue
		}

		cpuState := baseState
		cpuState.Context = expr.CpuContext{Cpu: &cpu}

		lo, err := evalCpuDeltaSpec(rule.Cpu, cpuState)
		if err != nil {
			return false, errors.Wrapf(err, "rule %q", rule.Name)
		}

		merged := result.CpuDeltas[cpu.Number].Or(lo)
		result.CpuDeltas[cpu.Number] = merged
		if !merged.IsSaturated() {
			allSaturated = false
		}
	}

	if rule.Cpu.Turbo != nil && result.Turbo == nil {
		turboState := baseState
		turboState.Context = expr.WidestPossibleContext{Cpus: cpus}
		turbo, err := evalOptionalBool(turboState, rule.Cpu.Turbo)
		if err != nil {
			return false, errors.Wrapf(err, "rule %q turbo", rule.Name)
		}
		if turbo != nil {
			result.Turbo = turbo
		}
	}

	return allSaturated && result.Turbo != nil, nil
}

func foldPowerRule(rule ruleset.Rule, powerSupplies []hwmodel.PowerSupply, baseState expr.State, result *Result) (bool, error) {
	allSaturated := true

	for _, ps := range powerSupplies {
		if !ruleAppliesToPowerSupply(rule.Power.For, ps.Name) {
			if !result.PowerDeltas[ps.Name].IsSaturated() {
				allSaturated = false
			}
			continue
		}

		psState := baseState
		psState.Context = expr.PowerSupplyContext{PowerSupply: &ps}

		lo, err := evalPowerDeltaSpec(rule.Power, psState)
		if err != nil {
			return false, errors.Wrapf(err, "rule %q", rule.Name)
		}

		merged := result.PowerDeltas[ps.Name].Or(lo)
		result.PowerDeltas[ps.Name] = merged
		if !merged.IsSaturated() {
			allSaturated = false
		}
	}

	if rule.Power.PlatformProfile != nil && result.PlatformProfile == nil {
		ppState := baseState
		ppState.Context = expr.WidestPossibleContext{PowerSupplies: powerSupplies}
		profile, err := evalOptionalString(ppState, rule.Power.PlatformProfile)
		if err != nil {
			return false, errors.Wrapf(err, "rule %q platform profile", rule.Name)
		}
		if profile != nil {
			result.PlatformProfile = profile
		}
	}

	return allSaturated && result.PlatformProfile != nil, nil
}

func evalCpuDeltaSpec(spec ruleset.CpuDeltaSpec, state expr.State) (CpuDelta, error) {
	var delta CpuDelta
	var err error

	if delta.Governor, err = evalOptionalString(state, spec.Governor); err != nil {
		return CpuDelta{}, err
	}
	if delta.EPP, err = evalOptionalString(state, spec.EPP); err != nil {
		return CpuDelta{}, err
	}
	if delta.EPB, err = evalOptionalString(state, spec.EPB); err != nil {
		return CpuDelta{}, err
	}
	if delta.FrequencyMinimumMHz, err = evalOptionalInt(state, spec.FrequencyMinimumMHz, "frequency-mhz-minimum"); err != nil {
		return CpuDelta{}, err
	}
	if delta.FrequencyMaximumMHz, err = evalOptionalInt(state, spec.FrequencyMaximumMHz, "frequency-mhz-maximum"); err != nil {
		return CpuDelta{}, err
	}

	return delta, nil
}

func evalPowerDeltaSpec(spec ruleset.PowerDeltaSpec, state expr.State) (PowerDelta, error) {
	var delta PowerDelta
	var err error

	if delta.ChargeThresholdStart, err = evalOptionalInt(state, spec.ChargeThresholdStart, "charge-threshold-start"); err != nil {
		return PowerDelta{}, err
	}
	if delta.ChargeThresholdEnd, err = evalOptionalInt(state, spec.ChargeThresholdEnd, "charge-threshold-end"); err != nil {
		return PowerDelta{}, err
	}

	return delta, nil
}

func ruleAppliesToCpu(forList []int, number int) bool {
	if len(forList) == 0 {
		return true
	}
	for _, n := range forList {
		if n == number {
			return true
		}
	}
	return false
}

func ruleAppliesToPowerSupply(forList []string, name string) bool {
	if len(forList) == 0 {
		return true
	}
	for _, n := range forList {
		if n == name {
			return true
		}
	}
	return false
}
