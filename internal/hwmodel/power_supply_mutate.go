// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package hwmodel

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/sysfs"
)

// SetChargeThresholds writes both ends of the battery charge threshold
// using whichever vendor attribute pair ScanPowerSupply detected. The
// values are clamped to [0, 100] percent and written as integer strings,
// matching the original's "value as u8" truncation.
func (ps *PowerSupply) SetChargeThresholds(fs sysfs.Interface, startPercent, endPercent int) error {
	if ps.Threshold == nil {
		return errors.Errorf("power supply %q does not expose a charge threshold interface", ps.Name)
	}
	start := clampPercent(startPercent)
	end := clampPercent(endPercent)

	if err := fs.Write(ps.Path+"/"+ps.Threshold.StartAttr, strconv.Itoa(start)); err != nil {
		return errors.Wrapf(err, "failed to set charge start threshold for %q", ps.Name)
	}
	if err := fs.Write(ps.Path+"/"+ps.Threshold.EndAttr, strconv.Itoa(end)); err != nil {
		return errors.Wrapf(err, "failed to set charge end threshold for %q", ps.Name)
	}
	return nil
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// SetPlatformProfile validates value against the ACPI-reported available
// profiles and writes it.
func (ps *PowerSupply) SetPlatformProfile(fs sysfs.Interface, value string) error {
	available := false
	for _, p := range ps.AvailablePlatformProfiles {
		if p == value {
			available = true
			break
		}
	}
	if !available {
		return errors.Errorf("platform profile %q is not available", value)
	}
	return fs.Write("/sys/firmware/acpi/platform_profile", value)
}
