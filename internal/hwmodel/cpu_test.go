// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package hwmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAShelf/watt/internal/sysfs"
)

func TestStatUsageComputesFractionOfNonIdleTime(t *testing.T) {
	s := Stat{User: 70, Idle: 30}
	assert.InDelta(t, 0.7, s.Usage(), 0.0001)
}

func TestStatUsageIsZeroOnEmptyWindow(t *testing.T) {
	assert.Equal(t, float64(0), Stat{}.Usage())
}

func TestStatDeltaSubtractsEachCounter(t *testing.T) {
	a := Stat{User: 100, Idle: 50}
	b := Stat{User: 40, Idle: 10}
	d := a.Delta(b)
	assert.Equal(t, uint64(60), d.User)
	assert.Equal(t, uint64(40), d.Idle)
}

func TestScanCpuReadsCpufreqFields(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/devices/system/cpu/cpu0", "").
		Set("/sys/devices/system/cpu/cpu0/cpufreq", "").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_available_governors", "performance powersave").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_governor", "powersave").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_driver", "intel_pstate").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq", "2000000").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_min_freq", "800000").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/scaling_max_freq", "3600000").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_min_freq", "400000").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq", "4800000").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/energy_performance_available_preferences", "performance balance_power").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/energy_performance_preference", "balance_power").
		Set("/sys/devices/system/cpu/cpu0/cpufreq/energy_performance_bias", "6")

	cpu, err := ScanCpu(fs, 0, nil)
	require.NoError(t, err)

	assert.True(t, cpu.HasCpufreq)
	assert.True(t, cpu.AvailableGovernors.Contains("performance"))
	assert.Equal(t, "powersave", cpu.Governor)
	assert.Equal(t, "intel_pstate", cpu.ScalingDriver)

	assert.True(t, cpu.HasFrequency)
	assert.Equal(t, int64(2000), cpu.FrequencyMHz)
	assert.Equal(t, int64(800), cpu.FrequencyMHzMinimum)
	assert.Equal(t, int64(3600), cpu.FrequencyMHzMaximum)

	assert.True(t, cpu.HasHardwareFrequency, "cpuinfo_min/max_freq must populate the hardware bounds")
	assert.Equal(t, int64(400), cpu.HardwareFrequencyMHzMinimum)
	assert.Equal(t, int64(4800), cpu.HardwareFrequencyMHzMaximum)

	assert.True(t, cpu.AvailableEPPs.Contains("balance_power"))
	assert.Equal(t, "balance_power", cpu.EPP)
	assert.True(t, cpu.AvailableEPBs.Contains("6"), "1..15 numeric EPB scale must always be populated")
	assert.True(t, cpu.AvailableEPBs.Contains("performance"), "named EPB aliases must be populated")
	assert.Equal(t, "6", cpu.EPB)
}

func TestScanCpuWithoutCpufreqLeavesEmptySets(t *testing.T) {
	fs := sysfs.NewFake().Set("/sys/devices/system/cpu/cpu0", "")

	cpu, err := ScanCpu(fs, 0, nil)
	require.NoError(t, err)
	assert.False(t, cpu.HasCpufreq)
	assert.Equal(t, 0, cpu.AvailableGovernors.Cardinality())
	assert.False(t, cpu.HasFrequency)
}

func TestScanCpuMissingDirectoryErrors(t *testing.T) {
	_, err := ScanCpu(sysfs.NewFake(), 3, nil)
	assert.Error(t, err)
}

func TestScanCpuAppliesProcStatSnapshot(t *testing.T) {
	fs := sysfs.NewFake().Set("/sys/devices/system/cpu/cpu0", "")
	stat := map[int]Stat{0: {User: 10, Idle: 5}}

	cpu, err := ScanCpu(fs, 0, stat)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), cpu.Stat.User)
}

func TestScanAllCpusFallsBackToNumberedRangeWithoutSysfsEntries(t *testing.T) {
	cpus, err := ScanAllCpus(sysfs.NewFake(), nil, 4)
	require.NoError(t, err)
	require.Len(t, cpus, 4)
	for i, cpu := range cpus {
		assert.Equal(t, i, cpu.Number)
	}
}

func TestScanAllCpusUsesSysfsEntriesWhenPresent(t *testing.T) {
	fs := sysfs.NewFake().
		Set("/sys/devices/system/cpu/cpu0", "").
		Set("/sys/devices/system/cpu/cpu1", "").
		Set("/sys/devices/system/cpu/notacpu", "")

	cpus, err := ScanAllCpus(fs, nil, 8)
	require.NoError(t, err)
	require.Len(t, cpus, 2, "non-numeric entries like 'notacpu' must be skipped, and the fallback must not apply")
	assert.Equal(t, 0, cpus[0].Number)
	assert.Equal(t, 1, cpus[1].Number)
}

func TestScanProcStatParsesPerCpuCounters(t *testing.T) {
	fs := sysfs.NewFake().Set("/proc/stat", "cpu0 10 1 2 3 4 5 6 7\nintr 12345\n")

	stats, err := ScanProcStat(fs)
	require.NoError(t, err)
	require.Contains(t, stats, 0)
	assert.Equal(t, Stat{User: 10, Nice: 1, System: 2, Idle: 3, IOWait: 4, IRQ: 5, SoftIRQ: 6, Steal: 7}, stats[0])
}

func TestScanProcStatMissingFileErrors(t *testing.T) {
	_, err := ScanProcStat(sysfs.NewFake())
	assert.Error(t, err)
}
