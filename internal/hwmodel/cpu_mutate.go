// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package hwmodel

import (
	"fmt"
	"path"
	"strconv"

	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/sysfs"
)

// SetGovernor validates value against the CPU's available-governors set and
// writes it. It errors without writing when the governor is not offered by
// this CPU.
func (cpu *Cpu) SetGovernor(fs sysfs.Interface, value string) error {
	if cpu.AvailableGovernors == nil || !cpu.AvailableGovernors.Contains(value) {
		return errors.Errorf("governor %q is not available on cpu %d", value, cpu.Number)
	}
	return fs.Write(cpu.freqPath("scaling_governor"), value)
}

// SetEPP validates value against the CPU's available-EPP set and writes it.
func (cpu *Cpu) SetEPP(fs sysfs.Interface, value string) error {
	if cpu.AvailableEPPs == nil || !cpu.AvailableEPPs.Contains(value) {
		return errors.Errorf("energy performance preference %q is not available on cpu %d", value, cpu.Number)
	}
	return fs.Write(cpu.freqPath("energy_performance_preference"), value)
}

// SetEPB validates value against the fixed 1..=15 plus named-alias EPB set
// and writes it.
func (cpu *Cpu) SetEPB(fs sysfs.Interface, value string) error {
	if cpu.AvailableEPBs == nil || !cpu.AvailableEPBs.Contains(value) {
		return errors.Errorf("energy performance bias %q is not available on cpu %d", value, cpu.Number)
	}
	return fs.Write(cpu.freqPath("energy_performance_bias"), value)
}

// SetFrequencyMHzMinimum writes the cpufreq scaling minimum, after a
// best-effort bound check against the hardware-reported minimum/maximum:
// if that bound cannot be read, the check is skipped rather than
// blocking the whole rule application on an unrelated read failure, but
// when the bound IS readable, a value outside it is rejected without
// writing.
func (cpu *Cpu) SetFrequencyMHzMinimum(fs sysfs.Interface, mhz int64) error {
	if err := cpu.validateFrequencyBound(fs, mhz); err != nil {
		return err
	}
	return fs.Write(cpu.freqPath("scaling_min_freq"), strconv.FormatInt(mhz*1000, 10))
}

// SetFrequencyMHzMaximum writes the cpufreq scaling maximum, with the same
// best-effort bound check as SetFrequencyMHzMinimum.
func (cpu *Cpu) SetFrequencyMHzMaximum(fs sysfs.Interface, mhz int64) error {
	if err := cpu.validateFrequencyBound(fs, mhz); err != nil {
		return err
	}
	return fs.Write(cpu.freqPath("scaling_max_freq"), strconv.FormatInt(mhz*1000, 10))
}

// validateFrequencyBound checks mhz against the hardware-reported
// cpuinfo_min_freq/cpuinfo_max_freq bounds (both in kHz). A failed read
// is not treated as a validation failure, only as "skip this bound"
// (this module's resolution of the frequency-validation open question) —
// but a bound that IS readable is enforced: a value outside it is
// rejected rather than silently written.
func (cpu *Cpu) validateFrequencyBound(fs sysfs.Interface, mhz int64) error {
	minKHz, ok, err := sysfs.ReadInt(fs, cpu.freqPath("cpuinfo_min_freq"))
	if err == nil && ok && mhz*1000 < minKHz {
		return errors.Errorf("frequency %d MHz is below hardware minimum %d MHz on cpu %d", mhz, minKHz/1000, cpu.Number)
	}

	maxKHz, ok, err := sysfs.ReadInt(fs, cpu.freqPath("cpuinfo_max_freq"))
	if err == nil && ok && mhz*1000 > maxKHz {
		return errors.Errorf("frequency %d MHz exceeds hardware maximum %d MHz on cpu %d", mhz, maxKHz/1000, cpu.Number)
	}

	return nil
}

func (cpu *Cpu) freqPath(attr string) string {
	return path.Join(fmt.Sprintf("%s/cpu%d/cpufreq", cpuRootPath, cpu.Number), attr)
}

// turboWritePath is one sysfs attribute that can globally enable/disable
// turbo boost; globalTurboWritePaths lists them in trial order. Some take
// "inverted" semantics (writing 1 disables turbo); Invert captures that.
type turboWritePath struct {
	Path   string
	Invert bool
}

var globalTurboWritePaths = []turboWritePath{
	{Path: "/sys/devices/system/cpu/intel_pstate/no_turbo", Invert: true},
	{Path: "/sys/devices/system/cpu/amd_pstate/cpufreq/boost", Invert: false},
	{Path: "/sys/devices/system/cpu/cpufreq/amd_pstate_enable_boost", Invert: false},
	{Path: "/sys/devices/system/cpu/cpufreq/boost", Invert: false},
}

// SetTurbo enables or disables turbo boost system-wide, trying each known
// sysfs interface in turn until one accepts the write and falling back to
// the per-core cpuN/cpufreq/boost attribute if none of the global ones
// does. It returns an error when no interface exists, when every existing
// global interface rejected the write and no per-core one exists, or when
// a per-core write fails.
func SetTurbo(fs sysfs.Interface, enabled bool, cpuNumbers []int) error {
	var globalErr error
	for _, p := range globalTurboWritePaths {
		if !fs.Exists(p.Path) {
			continue
		}
		if err := fs.Write(p.Path, boolToWriteValue(enabled, p.Invert)); err != nil {
			globalErr = err
			continue
		}
		return nil
	}

	wrote := false
	for _, n := range cpuNumbers {
		p := fmt.Sprintf("%s/cpu%d/cpufreq/boost", cpuRootPath, n)
		if !fs.Exists(p) {
			continue
		}
		if err := fs.Write(p, boolToWriteValue(enabled, false)); err != nil {
			return err
		}
		wrote = true
	}
	if !wrote {
		if globalErr != nil {
			return globalErr
		}
		return errors.New("no turbo boost control interface found")
	}
	return nil
}

// Turbo reports the current system-wide turbo boost state, trying the
// same interfaces SetTurbo writes, in the same order.
func Turbo(fs sysfs.Interface, cpuNumbers []int) (enabled bool, ok bool, err error) {
	for _, p := range globalTurboWritePaths {
		value, exists, err := fs.Read(p.Path)
		if err != nil {
			return false, false, errors.Wrapf(err, "failed to read %q", p.Path)
		}
		if !exists {
			continue
		}
		on := value == "1"
		if p.Invert {
			on = !on
		}
		return on, true, nil
	}

	for _, n := range cpuNumbers {
		p := fmt.Sprintf("%s/cpu%d/cpufreq/boost", cpuRootPath, n)
		value, exists, err := fs.Read(p)
		if err != nil {
			return false, false, errors.Wrapf(err, "failed to read %q", p)
		}
		if !exists {
			continue
		}
		return value == "1", true, nil
	}

	return false, false, nil
}

func boolToWriteValue(enabled bool, invert bool) string {
	write := enabled
	if invert {
		write = !enabled
	}
	if write {
		return "1"
	}
	return "0"
}
