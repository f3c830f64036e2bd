// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package hwmodel

import (
	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/sysfs"
)

// desktopChassisTypes and laptopChassisTypes are DMI chassis_type codes,
// per the SMBIOS spec's System Enclosure Types table.
var desktopChassisTypes = map[int64]bool{
	3: true, 4: true, 5: true, 6: true, 7: true, 15: true, 16: true, 17: true,
}

var laptopChassisTypes = map[int64]bool{
	9: true, 10: true, 14: true, 31: true,
}

// IsDesktop infers whether this machine is a desktop (no battery to
// manage, turbo/EPP rules aimed at sustained performance rather than
// battery life) rather than a laptop. It checks, in order: DMI chassis
// type, the presence of a battery power supply, and the presence of
// power-saving-oriented cpufreq drivers. It defaults to true (treat as
// desktop) only when every signal is inconclusive.
func IsDesktop(fs sysfs.Interface, powerSupplyNames []string) (bool, error) {
	chassisType, ok, err := sysfs.ReadInt(fs, "/sys/class/dmi/id/chassis_type")
	if err != nil {
		return false, errors.Wrap(err, "failed to read chassis type")
	}
	if ok {
		if desktopChassisTypes[chassisType] {
			return true, nil
		}
		if laptopChassisTypes[chassisType] {
			return false, nil
		}
	}

	for _, name := range powerSupplyNames {
		if name == "BAT0" || name == "BAT1" {
			return false, nil
		}
	}
	if ok, _, _ := readAny(fs, "/sys/class/power_supply/BAT0", "/sys/class/power_supply/BAT1", "/sys/class/power_supply/acpi"); ok {
		return false, nil
	}

	hasPowerSavingDriver := fs.Exists("/sys/devices/system/cpu/intel_pstate/no_hwp") ||
		fs.Exists("/sys/devices/system/cpu/cpu0/cpufreq/conservative")
	if !hasPowerSavingDriver {
		return true, nil
	}

	return false, nil
}

func readAny(fs sysfs.Interface, paths ...string) (bool, string, error) {
	for _, p := range paths {
		if fs.Exists(p) {
			return true, p, nil
		}
	}
	return false, "", nil
}
