// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAShelf/watt/internal/hwmodel"
	"github.com/NotAShelf/watt/internal/sysfs"
)

func TestApplyWritesCpuDeltaFields(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_governor", "powersave").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/energy_performance_preference", "balance_power").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/energy_performance_bias", "6").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_min_freq", "800000").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_max_freq", "2400000").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_min_freq", "800000").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq", "4800000")

	cpus := []hwmodel.Cpu{{
		Number:             0,
		AvailableGovernors: mapset.NewThreadUnsafeSet("powersave", "performance"),
		AvailableEPPs:      mapset.NewThreadUnsafeSet("balance_power", "performance"),
		AvailableEPBs:      mapset.NewThreadUnsafeSet("6", "0"),
	}}

	governor := "performance"
	epp := "performance"
	epb := "0"
	freqMin := int64(1000)
	freqMax := int64(4800)
	result := Result{CpuDeltas: map[int]CpuDelta{
		0: {Governor: &governor, EPP: &epp, EPB: &epb, FrequencyMinimumMHz: &freqMin, FrequencyMaximumMHz: &freqMax},
	}}

	require.NoError(t, Apply(fs, cpus, nil, result))

	value, _, _ := fs.Read("/sys/devices/system/cpu/cpu0/cpufreq/scaling_governor")
	assert.Equal(t, "performance", value)
	value, _, _ = fs.Read("/sys/devices/system/cpu/cpu0/cpufreq/energy_performance_preference")
	assert.Equal(t, "performance", value)
	value, _, _ = fs.Read("/sys/devices/system/cpu/cpu0/cpufreq/energy_performance_bias")
	assert.Equal(t, "0", value)
	value, _, _ = fs.Read("/sys/devices/system/cpu/cpu0/cpufreq/scaling_min_freq")
	assert.Equal(t, "1000000", value)
	value, _, _ = fs.Read("/sys/devices/system/cpu/cpu0/cpufreq/scaling_max_freq")
	assert.Equal(t, "4800000", value)
}

func TestApplyRejectsUnavailableGovernorAndWrapsError(t *testing.T) {
	fs := sysfs.NewFake().Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_governor", "powersave")
	cpus := []hwmodel.Cpu{{Number: 0, AvailableGovernors: mapset.NewThreadUnsafeSet("powersave")}}

	governor := "performance"
	result := Result{CpuDeltas: map[int]CpuDelta{0: {Governor: &governor}}}

	err := Apply(fs, cpus, nil, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cpu 0")
}

func TestApplySkipsCpuDeltaForUnknownCpuNumber(t *testing.T) {
	fs := sysfs.NewFake()
	cpus := []hwmodel.Cpu{{Number: 0, AvailableGovernors: mapset.NewThreadUnsafeSet("performance")}}

	governor := "performance"
	result := Result{CpuDeltas: map[int]CpuDelta{7: {Governor: &governor}}}

	assert.NoError(t, Apply(fs, cpus, nil, result))
}

func TestApplyTurboPrefersInterceptedGlobalInterfaceOverPerCore(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/devices/system/cpu/intel_pstate/no_turbo", "1").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/boost", "0")

	cpus := []hwmodel.Cpu{{Number: 0}}
	enabled := true
	result := Result{Turbo: &enabled}

	require.NoError(t, Apply(fs, cpus, nil, result))

	value, _, _ := fs.Read("/sys/devices/system/cpu/intel_pstate/no_turbo")
	assert.Equal(t, "0", value, "intel_pstate/no_turbo is inverted: enabling turbo writes 0")
	value, _, _ = fs.Read("/sys/devices/system/cpu/cpu0/cpufreq/boost")
	assert.Equal(t, "0", value, "per-core boost must be untouched once a global interface was used")
}

func TestApplyTurboFallsBackToPerCoreBoost(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/devices/system/cpu/cpu0/cpufreq/boost", "0").
		Set("/sys/devices/system/cpu/cpu1/cpufreq/boost", "0")

	cpus := []hwmodel.Cpu{{Number: 0}, {Number: 1}}
	enabled := true
	result := Result{Turbo: &enabled}

	require.NoError(t, Apply(fs, cpus, nil, result))

	value, _, _ := fs.Read("/sys/devices/system/cpu/cpu0/cpufreq/boost")
	assert.Equal(t, "1", value)
	value, _, _ = fs.Read("/sys/devices/system/cpu/cpu1/cpufreq/boost")
	assert.Equal(t, "1", value)
}

func TestApplyTurboErrorsWhenNoInterfaceExists(t *testing.T) {
	fs := sysfs.NewFake()
	cpus := []hwmodel.Cpu{{Number: 0}}
	enabled := true
	result := Result{Turbo: &enabled}

	err := Apply(fs, cpus, nil, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turbo")
}

func TestApplyWritesPowerSupplyChargeThresholdsUsingExistingOtherEnd(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/class/power_supply/BAT0/charge_control_start_threshold", "0").
		Set("/sys/class/power_supply/BAT0/charge_control_end_threshold", "100")

	ps := hwmodel.PowerSupply{
		Name: "BAT0",
		Path: "/sys/class/power_supply/BAT0",
		Threshold: &hwmodel.ThresholdPaths{
			StartAttr: "charge_control_start_threshold",
			EndAttr:   "charge_control_end_threshold",
		},
		ThresholdStart: 20,
		ThresholdEnd:   80,
	}

	start := int64(40)
	result := Result{PowerDeltas: map[string]PowerDelta{
		"BAT0": {ChargeThresholdStart: &start},
	}}

	require.NoError(t, Apply(fs, nil, []hwmodel.PowerSupply{ps}, result))

	value, _, _ := fs.Read("/sys/class/power_supply/BAT0/charge_control_start_threshold")
	assert.Equal(t, "40", value)
	value, _, _ = fs.Read("/sys/class/power_supply/BAT0/charge_control_end_threshold")
	assert.Equal(t, "80", value, "unset end threshold must fall back to the power supply's current value, not 0")
}

func TestApplySkipsPowerDeltaWithNoThresholdFields(t *testing.T) {
	ps := hwmodel.PowerSupply{Name: "BAT0", Path: "/sys/class/power_supply/BAT0"}
	result := Result{PowerDeltas: map[string]PowerDelta{"BAT0": {}}}

	assert.NoError(t, Apply(sysfs.NewFake(), nil, []hwmodel.PowerSupply{ps}, result))
}

func TestApplyWritesPlatformProfileToFirstSupportingPowerSupply(t *testing.T) {
	fs := sysfs.NewFake().Set("/sys/firmware/acpi/platform_profile", "balanced")

	supplies := []hwmodel.PowerSupply{
		{Name: "AC0", HasPlatformProfile: false},
		{Name: "BAT0", HasPlatformProfile: true, AvailablePlatformProfiles: []string{"quiet", "balanced", "performance"}},
		{Name: "BAT1", HasPlatformProfile: true, AvailablePlatformProfiles: []string{"balanced"}},
	}

	profile := "quiet"
	result := Result{PlatformProfile: &profile}

	require.NoError(t, Apply(fs, nil, supplies, result))

	value, _, _ := fs.Read("/sys/firmware/acpi/platform_profile")
	assert.Equal(t, "quiet", value, "only the first power supply exposing a platform profile should be written")
}

func TestApplyPlatformProfileErrorsWhenNotAvailable(t *testing.T) {
	fs := sysfs.NewFake().Set("/sys/firmware/acpi/platform_profile", "balanced")
	supplies := []hwmodel.PowerSupply{
		{Name: "BAT0", HasPlatformProfile: true, AvailablePlatformProfiles: []string{"balanced"}},
	}

	profile := "quiet"
	result := Result{PlatformProfile: &profile}

	err := Apply(fs, nil, supplies, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform profile")
}
