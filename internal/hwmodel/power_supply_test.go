// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package hwmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAShelf/watt/internal/sysfs"
)

func TestScanPowerSupplyDetectsACByType(t *testing.T) {
	fs := sysfs.NewFake().Set("/sys/class/power_supply/ADP1/type", "Mains")
	ps, err := ScanPowerSupply(fs, "ADP1")
	require.NoError(t, err)
	assert.True(t, ps.IsAC)
}

func TestScanPowerSupplyDetectsChargeStateAndPercent(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/class/power_supply/BAT0/status", "Discharging").
		Set("/sys/class/power_supply/BAT0/capacity", "57")
	ps, err := ScanPowerSupply(fs, "BAT0")
	require.NoError(t, err)
	assert.Equal(t, ChargeStateDischarging, ps.ChargeState)
	assert.True(t, ps.HasChargeState)
	assert.InDelta(t, 57, ps.ChargePercent, 0.0001)
}

func TestScanPowerSupplyDetectsStandardThresholdVendorFirst(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/class/power_supply/BAT0/charge_control_start_threshold", "20").
		Set("/sys/class/power_supply/BAT0/charge_control_end_threshold", "80").
		Set("/sys/class/power_supply/BAT0/charge_start_threshold", "0").
		Set("/sys/class/power_supply/BAT0/charge_stop_threshold", "100")

	ps, err := ScanPowerSupply(fs, "BAT0")
	require.NoError(t, err)
	require.NotNil(t, ps.Threshold)
	assert.Equal(t, "standard", ps.Threshold.Vendor, "standard attrs are probed first and must win when both pairs exist")
	assert.Equal(t, int64(20), ps.ThresholdStart)
	assert.Equal(t, int64(80), ps.ThresholdEnd)
}

func TestScanPowerSupplyFallsBackToThinkpadVendorThreshold(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/class/power_supply/BAT0/charge_start_threshold", "40").
		Set("/sys/class/power_supply/BAT0/charge_stop_threshold", "90")

	ps, err := ScanPowerSupply(fs, "BAT0")
	require.NoError(t, err)
	require.NotNil(t, ps.Threshold)
	assert.Equal(t, "thinkpad-huawei", ps.Threshold.Vendor)
	assert.Equal(t, int64(40), ps.ThresholdStart)
}

func TestScanPowerSupplyBatteryHealthRequiresBothEnergyFields(t *testing.T) {
	fs := sysfs.NewFake().Set("/sys/class/power_supply/BAT0/energy_full", "45000000")
	ps, err := ScanPowerSupply(fs, "BAT0")
	require.NoError(t, err)
	assert.False(t, ps.HasEnergyFull, "energy_full_design missing must leave HasEnergyFull false")

	fs2 := sysfs.NewFake().
		Set("/sys/class/power_supply/BAT0/energy_full", "45000000").
		Set("/sys/class/power_supply/BAT0/energy_full_design", "50000000")
	ps2, err := ScanPowerSupply(fs2, "BAT0")
	require.NoError(t, err)
	assert.True(t, ps2.HasEnergyFull)
	assert.InDelta(t, 45000000, ps2.EnergyFullUWh, 0.0001)
}

func TestScanPowerSupplyCycleCountAbsentLeavesFlagFalse(t *testing.T) {
	ps, err := ScanPowerSupply(sysfs.NewFake(), "BAT0")
	require.NoError(t, err)
	assert.False(t, ps.HasCycleCount)
}

func TestScanPowerSupplyDrainRatePrefersPowerNow(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/class/power_supply/BAT0/power_now", "15000000").
		Set("/sys/class/power_supply/BAT0/current_now", "999999999").
		Set("/sys/class/power_supply/BAT0/voltage_now", "999999999")

	ps, err := ScanPowerSupply(fs, "BAT0")
	require.NoError(t, err)
	require.True(t, ps.HasDrainRateWatts)
	assert.InDelta(t, 15, ps.DrainRateWatts, 0.0001)
}

func TestScanPowerSupplyDrainRateFallsBackToCurrentTimesVoltage(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/class/power_supply/BAT0/current_now", "2000000").
		Set("/sys/class/power_supply/BAT0/voltage_now", "12000000")

	ps, err := ScanPowerSupply(fs, "BAT0")
	require.NoError(t, err)
	require.True(t, ps.HasDrainRateWatts)
	assert.InDelta(t, 24, ps.DrainRateWatts, 0.0001)
}

func TestScanPowerSupplyDetectsPeripheralByName(t *testing.T) {
	ps, err := ScanPowerSupply(sysfs.NewFake(), "hid-bluetooth-mouse-battery")
	require.NoError(t, err)
	assert.True(t, ps.IsPeripheral)
}

func TestScanPowerSupplyDetectsPeripheralBySmallEnergyFullCapacity(t *testing.T) {
	fs := sysfs.NewFake().Set("/sys/class/power_supply/hid-0/energy_full", "500000")
	ps, err := ScanPowerSupply(fs, "hid-0")
	require.NoError(t, err)
	assert.True(t, ps.IsPeripheral)
}

func TestScanPowerSupplyPlatformProfileFields(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/firmware/acpi/platform_profile_choices", "quiet balanced performance").
		Set("/sys/firmware/acpi/platform_profile", "balanced")

	ps, err := ScanPowerSupply(fs, "BAT0")
	require.NoError(t, err)
	assert.Equal(t, []string{"quiet", "balanced", "performance"}, ps.AvailablePlatformProfiles)
	assert.True(t, ps.HasPlatformProfile)
	assert.Equal(t, "balanced", ps.PlatformProfile)
}

func TestScanAllPowerSuppliesMissingDirReturnsEmptyWithoutError(t *testing.T) {
	supplies, err := ScanAllPowerSupplies(sysfs.NewFake())
	require.NoError(t, err)
	assert.Empty(t, supplies)
}

func TestScanAllPowerSuppliesEnumeratesEachEntry(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/class/power_supply/AC0", "").
		Set("/sys/class/power_supply/BAT0", "")

	supplies, err := ScanAllPowerSupplies(fs)
	require.NoError(t, err)
	assert.Len(t, supplies, 2)
}
