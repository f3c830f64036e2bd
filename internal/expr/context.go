// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package expr

import "github.com/NotAShelf/watt/internal/hwmodel"

// EvalContext picks which hardware target availability sensor terms
// (is-governor-available and friends) are evaluated against. It is a
// closed tagged union: CpuContext and PowerSupplyContext narrow
// evaluation to one concrete target (used while folding a rule's cpu/
// power delta against that specific target), WidestPossible asks "is
// this available on ANY managed target" (used for the rule's shared
// top-level condition). Grounded on system.rs's EvalContext::
// WidestPossible usage alongside per-target CpuDelta/PowerDelta folding.
type EvalContext interface {
	isEvalContext()
}

// CpuContext narrows availability queries to one CPU.
type CpuContext struct {
	Cpu *hwmodel.Cpu
}

func (CpuContext) isEvalContext() {}

// PowerSupplyContext narrows availability queries to one power supply.
type PowerSupplyContext struct {
	PowerSupply *hwmodel.PowerSupply
}

func (PowerSupplyContext) isEvalContext() {}

// WidestPossibleContext asks whether a capability exists anywhere in the
// currently-managed fleet of CPUs and power supplies.
type WidestPossibleContext struct {
	Cpus          []hwmodel.Cpu
	PowerSupplies []hwmodel.PowerSupply
}

func (WidestPossibleContext) isEvalContext() {}

// State bundles the sensor readings and the EvalContext an Expression
// sees while it is being evaluated. Grounded on config.rs's EvalState,
// extended with the fields system.rs populates from hwmodel/telemetry
// (hardware frequency bounds) and the EvalContext this module adds.
type State struct {
	Context EvalContext

	CpuUsage                    float64
	HasCpuUsageVolatility       bool
	CpuUsageVolatility          float64
	CpuTemperature              float64
	HasCpuTemperatureVolatility bool
	CpuTemperatureVolatility    float64
	CpuIdleSeconds              float64

	// CpuFrequencyMinimumMHz/MaximumMHz are the hardware-fixed cpuinfo
	// bounds ($cpu-frequency-minimum/maximum); CpuScalingMaximumMHz is the
	// currently configured, writable scaling_max_freq bound
	// ($cpu-scaling-maximum).
	CpuFrequencyMinimumMHz    float64
	HasCpuFrequencyMinimumMHz bool
	CpuFrequencyMaximumMHz    float64
	HasCpuFrequencyMaximumMHz bool
	CpuScalingMaximumMHz      float64
	HasCpuScalingMaximumMHz   bool

	CpuCoreCount int

	HasLoadAverage  bool
	LoadAverage1m   float64
	LoadAverage5m   float64
	LoadAverage15m  float64

	HourOfDay int

	PowerSupplyCharge           float64
	HasPowerSupplyDischargeRate bool
	PowerSupplyDischargeRate    float64

	Discharging bool
	HasLidState bool
	LidClosed   bool

	// TurboAvailable is computed once by the caller (turbo is a
	// system-wide capability, not per-CPU) and simply surfaced here.
	TurboAvailable bool

	// UsageMeanSince backs cpu-usage-since: the mean CPU usage over
	// samples within the given lookback window, and whether at least two
	// samples fell within it. Supplied as a closure rather than a raw
	// sample slice so this package stays independent of the telemetry
	// ring's storage shape.
	UsageMeanSince func(windowSeconds float64) (mean float64, ok bool)
}

func (s State) availability(
	checkCpu func(hwmodel.Cpu, string) bool,
	checkPS func(hwmodel.PowerSupply, string) bool,
	value string,
) Value {
	switch ctx := s.Context.(type) {
	case CpuContext:
		if ctx.Cpu == nil || checkCpu == nil {
			return BooleanValue(false)
		}
		return BooleanValue(checkCpu(*ctx.Cpu, value))
	case PowerSupplyContext:
		if ctx.PowerSupply == nil || checkPS == nil {
			return BooleanValue(false)
		}
		return BooleanValue(checkPS(*ctx.PowerSupply, value))
	case WidestPossibleContext:
		if checkCpu != nil {
			for _, cpu := range ctx.Cpus {
				if checkCpu(cpu, value) {
					return BooleanValue(true)
				}
			}
		}
		if checkPS != nil {
			for _, ps := range ctx.PowerSupplies {
				if checkPS(ps, value) {
					return BooleanValue(true)
				}
			}
		}
		return BooleanValue(false)
	default:
		return BooleanValue(false)
	}
}

func (s State) isGovernorAvailable(value string) Value {
	return s.availability(func(c hwmodel.Cpu, v string) bool {
		return c.AvailableGovernors != nil && c.AvailableGovernors.Contains(v)
	}, nil, value)
}

func (s State) isEPPAvailable(value string) Value {
	return s.availability(func(c hwmodel.Cpu, v string) bool {
		return c.AvailableEPPs != nil && c.AvailableEPPs.Contains(v)
	}, nil, value)
}

func (s State) isEPBAvailable(value string) Value {
	return s.availability(func(c hwmodel.Cpu, v string) bool {
		return c.AvailableEPBs != nil && c.AvailableEPBs.Contains(v)
	}, nil, value)
}

func (s State) isPlatformProfileAvailable(value string) Value {
	return s.availability(nil, func(ps hwmodel.PowerSupply, v string) bool {
		for _, p := range ps.AvailablePlatformProfiles {
			if p == v {
				return true
			}
		}
		return false
	}, value)
}

func (s State) isDriverLoaded(value string) Value {
	return s.availability(func(c hwmodel.Cpu, v string) bool {
		return c.HasScalingDriver && c.ScalingDriver == v
	}, nil, value)
}

func (s State) frequencyAvailable() Value {
	switch ctx := s.Context.(type) {
	case CpuContext:
		if ctx.Cpu == nil {
			return BooleanValue(false)
		}
		return BooleanValue(ctx.Cpu.HasFrequency)
	case WidestPossibleContext:
		for _, cpu := range ctx.Cpus {
			if cpu.HasFrequency {
				return BooleanValue(true)
			}
		}
		return BooleanValue(false)
	default:
		return BooleanValue(false)
	}
}

func (s State) turboAvailable() Value {
	return BooleanValue(s.TurboAvailable)
}

func (s State) batteryHealth() Value {
	ps, ok := s.Context.(PowerSupplyContext)
	if !ok || ps.PowerSupply == nil || !ps.PowerSupply.HasEnergyFull {
		return Undefined
	}
	return NumberValue(ps.PowerSupply.EnergyFullUWh / ps.PowerSupply.EnergyFullDesignUWh)
}

func (s State) batteryCycles() Value {
	ps, ok := s.Context.(PowerSupplyContext)
	if !ok || ps.PowerSupply == nil || !ps.PowerSupply.HasCycleCount {
		return Undefined
	}
	return NumberValue(float64(ps.PowerSupply.CycleCount))
}
