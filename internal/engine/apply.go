// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/hwmodel"
	"github.com/NotAShelf/watt/internal/sysfs"
)

// Apply writes result to hardware: per-CPU governor/EPP/EPB/frequency
// bounds in that fixed order, then the system-wide turbo toggle, then
// per-power-supply charge thresholds, then the system-wide platform
// profile. Grounded on cmd/config/set.go's "validate against available
// set, then write" shape (teacher) and system.rs's per-target delta
// application loop, with cpu.rs's four-path turbo fallback reused from
// hwmodel.SetTurbo.
func Apply(fs sysfs.Interface, cpus []hwmodel.Cpu, powerSupplies []hwmodel.PowerSupply, result Result) error {
	cpuByNumber := make(map[int]*hwmodel.Cpu, len(cpus))
	for i := range cpus {
		cpuByNumber[cpus[i].Number] = &cpus[i]
	}

	for number, delta := range result.CpuDeltas {
		cpu, ok := cpuByNumber[number]
		if !ok {
			continue
		}
		if err := applyCpuDelta(fs, cpu, delta); err != nil {
			return errors.Wrapf(err, "failed to apply delta to cpu %d", number)
		}
	}

	if result.Turbo != nil {
		numbers := make([]int, 0, len(cpus))
		for _, cpu := range cpus {
			numbers = append(numbers, cpu.Number)
		}
		if err := hwmodel.SetTurbo(fs, *result.Turbo, numbers); err != nil {
			return errors.Wrap(err, "failed to set turbo")
		}
	}

	powerSupplyByName := make(map[string]*hwmodel.PowerSupply, len(powerSupplies))
	for i := range powerSupplies {
		powerSupplyByName[powerSupplies[i].Name] = &powerSupplies[i]
	}

	for name, delta := range result.PowerDeltas {
		ps, ok := powerSupplyByName[name]
		if !ok {
			continue
		}
		if err := applyPowerDelta(fs, ps, delta); err != nil {
			return errors.Wrapf(err, "failed to apply delta to power supply %q", name)
		}
	}

	if result.PlatformProfile != nil {
		for i := range powerSupplies {
			if !powerSupplies[i].HasPlatformProfile {
				continue
			}
			if err := powerSupplies[i].SetPlatformProfile(fs, *result.PlatformProfile); err != nil {
				return errors.Wrap(err, "failed to set platform profile")
			}
			break
		}
	}

	return nil
}

func applyCpuDelta(fs sysfs.Interface, cpu *hwmodel.Cpu, delta CpuDelta) error {
	if delta.Governor != nil {
		if err := cpu.SetGovernor(fs, *delta.Governor); err != nil {
			return err
		}
	}
	if delta.EPP != nil {
		if err := cpu.SetEPP(fs, *delta.EPP); err != nil {
			return err
		}
	}
	if delta.EPB != nil {
		if err := cpu.SetEPB(fs, *delta.EPB); err != nil {
			return err
		}
	}
	if delta.FrequencyMinimumMHz != nil {
		if err := cpu.SetFrequencyMHzMinimum(fs, *delta.FrequencyMinimumMHz); err != nil {
			return err
		}
	}
	if delta.FrequencyMaximumMHz != nil {
		if err := cpu.SetFrequencyMHzMaximum(fs, *delta.FrequencyMaximumMHz); err != nil {
			return err
		}
	}
	return nil
}

func applyPowerDelta(fs sysfs.Interface, ps *hwmodel.PowerSupply, delta PowerDelta) error {
	if delta.ChargeThresholdStart == nil && delta.ChargeThresholdEnd == nil {
		return nil
	}

	start := ps.ThresholdStart
	if delta.ChargeThresholdStart != nil {
		start = *delta.ChargeThresholdStart
	}
	end := ps.ThresholdEnd
	if delta.ChargeThresholdEnd != nil {
		end = *delta.ChargeThresholdEnd
	}

	return ps.SetChargeThresholds(fs, int(start), int(end))
}
