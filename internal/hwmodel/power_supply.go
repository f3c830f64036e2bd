// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package hwmodel

import (
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/sysfs"
)

const powerSupplyRootPath = "/sys/class/power_supply"

// ThresholdPaths names the pair of sysfs attributes a vendor exposes for
// start/end battery charge thresholds.
type ThresholdPaths struct {
	Vendor    string
	StartAttr string
	EndAttr   string
}

// thresholdProfiles lists vendor-specific threshold attribute pairs in the
// order they are probed; the first pair whose both files exist wins.
var thresholdProfiles = []ThresholdPaths{
	{Vendor: "standard", StartAttr: "charge_control_start_threshold", EndAttr: "charge_control_end_threshold"},
	{Vendor: "asus", StartAttr: "charge_control_start_percentage", EndAttr: "charge_control_end_percentage"},
	{Vendor: "thinkpad-huawei", StartAttr: "charge_start_threshold", EndAttr: "charge_stop_threshold"},
	{Vendor: "framework", StartAttr: "charge_behaviour_start_threshold", EndAttr: "charge_behaviour_end_threshold"},
}

var peripheralNameSubstrings = []string{
	"mouse", "keyboard", "trackpad", "gamepad", "controller", "headset", "headphone",
}

// ChargeState is the power supply's reported status string, normalized.
type ChargeState int

const (
	ChargeStateUnknown ChargeState = iota
	ChargeStateCharging
	ChargeStateDischarging
	ChargeStateNotCharging
	ChargeStateFull
)

// PowerSupply is a snapshot of one /sys/class/power_supply entry.
type PowerSupply struct {
	Name string
	Path string

	IsAC         bool
	IsPeripheral bool

	ChargeState    ChargeState
	HasChargeState bool

	ChargePercent    float64
	HasChargePercent bool

	Threshold      *ThresholdPaths
	ThresholdStart int64
	ThresholdEnd   int64
	HasThreshold   bool

	DrainRateWatts    float64
	HasDrainRateWatts bool

	EnergyFullUWh        float64
	EnergyFullDesignUWh  float64
	HasEnergyFull        bool

	CycleCount    int64
	HasCycleCount bool

	AvailablePlatformProfiles []string
	PlatformProfile           string
	HasPlatformProfile        bool
}

// ScanAllPowerSupplies enumerates every entry under /sys/class/power_supply.
func ScanAllPowerSupplies(fs sysfs.Interface) ([]PowerSupply, error) {
	entries, ok, err := fs.ReadDir(powerSupplyRootPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read power supply entries")
	}
	if !ok {
		return nil, nil
	}

	supplies := make([]PowerSupply, 0, len(entries))
	for _, name := range entries {
		ps, err := ScanPowerSupply(fs, name)
		if err != nil {
			return nil, err
		}
		supplies = append(supplies, ps)
	}

	return supplies, nil
}

// ScanPowerSupply rescans a single power supply by name.
func ScanPowerSupply(fs sysfs.Interface, name string) (PowerSupply, error) {
	dir := path.Join(powerSupplyRootPath, name)
	ps := PowerSupply{Name: name, Path: dir}

	typeStr, ok, err := fs.Read(path.Join(dir, "type"))
	if err != nil {
		return PowerSupply{}, errors.Wrapf(err, "failed to read type for %q", name)
	}
	if ok {
		ps.IsAC = isACType(typeStr, name)
	}

	ps.IsPeripheral = scanIsPeripheral(fs, dir, name)

	if status, ok, err := fs.Read(path.Join(dir, "status")); err != nil {
		return PowerSupply{}, errors.Wrapf(err, "failed to read status for %q", name)
	} else if ok {
		ps.ChargeState = parseChargeState(status)
		ps.HasChargeState = true
	}

	if capacity, ok, err := sysfs.ReadFloat(fs, path.Join(dir, "capacity")); err != nil {
		return PowerSupply{}, errors.Wrapf(err, "failed to read capacity for %q", name)
	} else if ok {
		ps.ChargePercent = capacity
		ps.HasChargePercent = true
	}

	for i := range thresholdProfiles {
		profile := thresholdProfiles[i]
		startPath := path.Join(dir, profile.StartAttr)
		endPath := path.Join(dir, profile.EndAttr)
		if fs.Exists(startPath) && fs.Exists(endPath) {
			ps.Threshold = &profile
			start, startOk, err := sysfs.ReadInt(fs, startPath)
			if err != nil {
				return PowerSupply{}, errors.Wrapf(err, "failed to read threshold start for %q", name)
			}
			end, endOk, err := sysfs.ReadInt(fs, endPath)
			if err != nil {
				return PowerSupply{}, errors.Wrapf(err, "failed to read threshold end for %q", name)
			}
			if startOk && endOk {
				ps.ThresholdStart = start
				ps.ThresholdEnd = end
				ps.HasThreshold = true
			}
			break
		}
	}

	if rate, ok := scanDrainRateWatts(fs, dir); ok {
		ps.DrainRateWatts = rate
		ps.HasDrainRateWatts = true
	}

	energyFull, fullOk, err := sysfs.ReadFloat(fs, path.Join(dir, "energy_full"))
	if err != nil {
		return PowerSupply{}, errors.Wrapf(err, "failed to read energy_full for %q", name)
	}
	energyFullDesign, designOk, err := sysfs.ReadFloat(fs, path.Join(dir, "energy_full_design"))
	if err != nil {
		return PowerSupply{}, errors.Wrapf(err, "failed to read energy_full_design for %q", name)
	}
	if fullOk && designOk && energyFullDesign > 0 {
		ps.EnergyFullUWh = energyFull
		ps.EnergyFullDesignUWh = energyFullDesign
		ps.HasEnergyFull = true
	}

	if cycles, ok, err := sysfs.ReadInt(fs, path.Join(dir, "cycle_count")); err != nil {
		return PowerSupply{}, errors.Wrapf(err, "failed to read cycle_count for %q", name)
	} else if ok {
		ps.CycleCount = cycles
		ps.HasCycleCount = true
	}

	if profiles, ok, err := fs.Read("/sys/firmware/acpi/platform_profile_choices"); err != nil {
		return PowerSupply{}, errors.Wrap(err, "failed to read available platform profiles")
	} else if ok {
		ps.AvailablePlatformProfiles = strings.Fields(profiles)
	}
	if profile, ok, err := fs.Read("/sys/firmware/acpi/platform_profile"); err != nil {
		return PowerSupply{}, errors.Wrap(err, "failed to read platform profile")
	} else if ok {
		ps.PlatformProfile = profile
		ps.HasPlatformProfile = true
	}

	return ps, nil
}

func isACType(typeStr, name string) bool {
	t := strings.ToLower(typeStr)
	if t == "mains" || t == "ac" || t == "usb" || t == "wireless" {
		return true
	}
	n := strings.ToLower(name)
	return strings.HasPrefix(n, "ac") || strings.Contains(n, "adp") || strings.Contains(n, "adapter")
}

func scanIsPeripheral(fs sysfs.Interface, dir, name string) bool {
	lowerName := strings.ToLower(name)
	for _, substr := range peripheralNameSubstrings {
		if strings.Contains(lowerName, substr) {
			return true
		}
	}

	if modelName, ok, _ := fs.Read(path.Join(dir, "model_name")); ok {
		lowerModel := strings.ToLower(modelName)
		if strings.Contains(lowerModel, "bluetooth") || strings.Contains(lowerModel, "wireless") {
			return true
		}
	}

	if energyFull, ok, _ := sysfs.ReadUint(fs, path.Join(dir, "energy_full")); ok {
		if energyFull > 0 && energyFull < 10_000_000 {
			return true
		}
	}

	return false
}

func parseChargeState(status string) ChargeState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "charging":
		return ChargeStateCharging
	case "discharging":
		return ChargeStateDischarging
	case "not charging":
		return ChargeStateNotCharging
	case "full":
		return ChargeStateFull
	default:
		return ChargeStateUnknown
	}
}

func scanDrainRateWatts(fs sysfs.Interface, dir string) (float64, bool) {
	if powerNowUW, ok, _ := sysfs.ReadFloat(fs, path.Join(dir, "power_now")); ok {
		return powerNowUW / 1_000_000, true
	}

	currentUA, ok1, _ := sysfs.ReadFloat(fs, path.Join(dir, "current_now"))
	voltageUV, ok2, _ := sysfs.ReadFloat(fs, path.Join(dir, "voltage_now"))
	if ok1 && ok2 {
		return (currentUA * voltageUV) / 1_000_000_000_000, true
	}

	return 0, false
}
