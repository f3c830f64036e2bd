// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package hwmodel holds point-in-time snapshots of CPU and power-supply
// hardware state, rescanned once per daemon tick. It is grounded on the
// original watt source's cpu.rs and power_supply.rs: the field shapes and
// sysfs paths below mirror that implementation, adapted from Rust structs
// with methods to Go structs with a shared sysfs.Interface passed in.
package hwmodel

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/sysfs"
)

const cpuRootPath = "/sys/devices/system/cpu"

// Stat is a /proc/stat counter snapshot for one CPU.
type Stat struct {
	User, Nice, System, Idle, IOWait, IRQ, SoftIRQ, Steal uint64
}

// Total returns the sum of every counter.
func (s Stat) Total() uint64 {
	return s.User + s.Nice + s.System + s.Idle + s.IOWait + s.IRQ + s.SoftIRQ + s.Steal
}

// IdleTotal returns the counters that represent non-work time.
func (s Stat) IdleTotal() uint64 {
	return s.Idle + s.IOWait
}

// Delta returns the per-counter difference s - prev. Against the zero Stat
// it returns s unchanged.
func (s Stat) Delta(prev Stat) Stat {
	return Stat{
		User:    s.User - prev.User,
		Nice:    s.Nice - prev.Nice,
		System:  s.System - prev.System,
		Idle:    s.Idle - prev.Idle,
		IOWait:  s.IOWait - prev.IOWait,
		IRQ:     s.IRQ - prev.IRQ,
		SoftIRQ: s.SoftIRQ - prev.SoftIRQ,
		Steal:   s.Steal - prev.Steal,
	}
}

// Usage returns 1 - idle/total for this (already-delta'd) stat window. It
// returns 0 when total is 0, which happens only when called on two
// identical /proc/stat samples taken in the same tick.
func (s Stat) Usage() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return 1.0 - float64(s.IdleTotal())/float64(total)
}

// Cpu is a snapshot of one logical CPU.
type Cpu struct {
	Number int

	HasCpufreq bool

	AvailableGovernors mapset.Set[string]
	Governor           string // "" when HasCpufreq is false

	FrequencyMHz        int64
	FrequencyMHzMinimum int64
	FrequencyMHzMaximum int64
	HasFrequency        bool

	// HardwareFrequencyMHzMinimum/Maximum are the fixed cpuinfo_{min,max}_freq
	// bounds the hardware itself reports, distinct from the scaling_{min,max}_freq
	// bounds above (which rules can write within those hardware bounds).
	HardwareFrequencyMHzMinimum int64
	HardwareFrequencyMHzMaximum int64
	HasHardwareFrequency        bool

	AvailableEPPs mapset.Set[string]
	EPP           string

	AvailableEPBs mapset.Set[string]
	EPB           string

	ScalingDriver    string
	HasScalingDriver bool

	Stat Stat

	TemperatureC    float64
	HasTemperature  bool
}

// epbNamedAliases are the named EPB values the kernel accepts; scanEPB adds
// them to the fixed 1..=15 numeric scale whenever cpufreq exists.
var epbNamedAliases = []string{
	"performance",
	"balance-performance", "balance_performance",
	"balance-power", "balance_power",
	"power",
}

// ScanAllCpus enumerates every cpuN directory under /sys/devices/system/cpu.
// If none are found it falls back to 0..numFallbackCpus, matching the
// original source's "are we even on a sysfs-backed kernel" fallback.
func ScanAllCpus(fs sysfs.Interface, procStat map[int]Stat, numFallbackCpus int) ([]Cpu, error) {
	entries, ok, err := fs.ReadDir(cpuRootPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CPU entries")
	}

	var numbers []int
	if ok {
		for _, name := range entries {
			rest, found := strings.CutPrefix(name, "cpu")
			if !found {
				continue
			}
			n, err := strconv.Atoi(rest)
			if err != nil {
				continue
			}
			numbers = append(numbers, n)
		}
	}

	fallback := len(numbers) == 0
	if fallback {
		for n := 0; n < numFallbackCpus; n++ {
			numbers = append(numbers, n)
		}
	}

	sort.Ints(numbers)

	temps, err := ScanCPUTemperatures(fs)
	if err != nil {
		return nil, err
	}

	cpus := make([]Cpu, 0, len(numbers))
	for _, n := range numbers {
		var cpu Cpu
		if fallback {
			cpu = Cpu{
				Number:             n,
				AvailableGovernors: mapset.NewThreadUnsafeSet[string](),
				AvailableEPPs:      mapset.NewThreadUnsafeSet[string](),
				AvailableEPBs:      mapset.NewThreadUnsafeSet[string](),
				Stat:               procStat[n],
			}
		} else if cpu, err = ScanCpu(fs, n, procStat); err != nil {
			return nil, err
		}
		if t, ok := temps[n]; ok {
			cpu.TemperatureC = t
			cpu.HasTemperature = true
		}
		cpus = append(cpus, cpu)
	}

	return cpus, nil
}

// ScanCpu rescans a single CPU's cpufreq and /proc/stat-derived state.
func ScanCpu(fs sysfs.Interface, number int, procStat map[int]Stat) (Cpu, error) {
	cpu := Cpu{Number: number}

	cpuDir := fmt.Sprintf("%s/cpu%d", cpuRootPath, number)
	if !fs.Exists(cpuDir) {
		return Cpu{}, errors.Errorf("cpu %d does not exist", number)
	}

	freqDir := cpuDir + "/cpufreq"
	cpu.HasCpufreq = fs.Exists(freqDir)

	if cpu.HasCpufreq {
		if err := cpu.scanGovernor(fs, freqDir); err != nil {
			return Cpu{}, err
		}
		if err := cpu.scanFrequency(fs, freqDir); err != nil {
			return Cpu{}, err
		}
		if err := cpu.scanEPP(fs, freqDir); err != nil {
			return Cpu{}, err
		}
		if err := cpu.scanEPB(fs, freqDir); err != nil {
			return Cpu{}, err
		}
	} else {
		cpu.AvailableGovernors = mapset.NewThreadUnsafeSet[string]()
		cpu.AvailableEPPs = mapset.NewThreadUnsafeSet[string]()
		cpu.AvailableEPBs = mapset.NewThreadUnsafeSet[string]()
	}

	if stat, ok := procStat[number]; ok {
		cpu.Stat = stat
	}

	return cpu, nil
}

func (cpu *Cpu) scanGovernor(fs sysfs.Interface, freqDir string) error {
	cpu.AvailableGovernors = mapset.NewThreadUnsafeSet[string]()
	content, ok, err := fs.Read(path.Join(freqDir, "scaling_available_governors"))
	if err != nil {
		return errors.Wrapf(err, "failed to read available governors for cpu %d", cpu.Number)
	}
	if ok {
		for _, g := range strings.Fields(content) {
			cpu.AvailableGovernors.Add(g)
		}
	}

	governor, ok, err := fs.Read(path.Join(freqDir, "scaling_governor"))
	if err != nil {
		return errors.Wrapf(err, "failed to read scaling governor for cpu %d", cpu.Number)
	}
	if ok {
		cpu.Governor = governor
	}

	driver, ok, err := fs.Read(path.Join(freqDir, "scaling_driver"))
	if err != nil {
		return errors.Wrapf(err, "failed to read scaling driver for cpu %d", cpu.Number)
	}
	if ok {
		cpu.ScalingDriver = driver
		cpu.HasScalingDriver = true
	}
	return nil
}

func (cpu *Cpu) scanFrequency(fs sysfs.Interface, freqDir string) error {
	curKHz, ok, err := fs.Read(path.Join(freqDir, "scaling_cur_freq"))
	if err != nil {
		return errors.Wrapf(err, "failed to read current frequency for cpu %d", cpu.Number)
	}
	if !ok {
		return nil
	}
	minKHz, minOk, err := fs.Read(path.Join(freqDir, "scaling_min_freq"))
	if err != nil {
		return errors.Wrapf(err, "failed to read minimum frequency for cpu %d", cpu.Number)
	}
	maxKHz, maxOk, err := fs.Read(path.Join(freqDir, "scaling_max_freq"))
	if err != nil {
		return errors.Wrapf(err, "failed to read maximum frequency for cpu %d", cpu.Number)
	}
	if !minOk || !maxOk {
		return nil
	}

	cur, err := strconv.ParseInt(curKHz, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "failed to parse current frequency for cpu %d", cpu.Number)
	}
	min, err := strconv.ParseInt(minKHz, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "failed to parse minimum frequency for cpu %d", cpu.Number)
	}
	max, err := strconv.ParseInt(maxKHz, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "failed to parse maximum frequency for cpu %d", cpu.Number)
	}

	cpu.FrequencyMHz = cur / 1000
	cpu.FrequencyMHzMinimum = min / 1000
	cpu.FrequencyMHzMaximum = max / 1000
	cpu.HasFrequency = true

	hwMin, hwMinOk, err := sysfs.ReadInt(fs, path.Join(freqDir, "cpuinfo_min_freq"))
	if err != nil {
		return errors.Wrapf(err, "failed to read hardware minimum frequency for cpu %d", cpu.Number)
	}
	hwMax, hwMaxOk, err := sysfs.ReadInt(fs, path.Join(freqDir, "cpuinfo_max_freq"))
	if err != nil {
		return errors.Wrapf(err, "failed to read hardware maximum frequency for cpu %d", cpu.Number)
	}
	if hwMinOk && hwMaxOk {
		cpu.HardwareFrequencyMHzMinimum = hwMin / 1000
		cpu.HardwareFrequencyMHzMaximum = hwMax / 1000
		cpu.HasHardwareFrequency = true
	}

	return nil
}

func (cpu *Cpu) scanEPP(fs sysfs.Interface, freqDir string) error {
	cpu.AvailableEPPs = mapset.NewThreadUnsafeSet[string]()
	content, ok, err := fs.Read(path.Join(freqDir, "energy_performance_available_preferences"))
	if err != nil {
		return errors.Wrapf(err, "failed to read available EPPs for cpu %d", cpu.Number)
	}
	if ok {
		for _, epp := range strings.Fields(content) {
			cpu.AvailableEPPs.Add(epp)
		}
	}

	epp, ok, err := fs.Read(path.Join(freqDir, "energy_performance_preference"))
	if err != nil {
		return errors.Wrapf(err, "failed to read EPP for cpu %d", cpu.Number)
	}
	if ok {
		cpu.EPP = epp
	}
	return nil
}

func (cpu *Cpu) scanEPB(fs sysfs.Interface, freqDir string) error {
	cpu.AvailableEPBs = mapset.NewThreadUnsafeSet[string]()
	for n := 1; n <= 15; n++ {
		cpu.AvailableEPBs.Add(strconv.Itoa(n))
	}
	for _, alias := range epbNamedAliases {
		cpu.AvailableEPBs.Add(alias)
	}

	epb, ok, err := fs.Read(path.Join(freqDir, "energy_performance_bias"))
	if err != nil {
		return errors.Wrapf(err, "failed to read EPB for cpu %d", cpu.Number)
	}
	if ok {
		cpu.EPB = epb
	}
	return nil
}

// ScanProcStat reads /proc/stat and returns per-CPU counter snapshots.
func ScanProcStat(fs sysfs.Interface) (map[int]Stat, error) {
	content, ok, err := fs.Read("/proc/stat")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read /proc/stat")
	}
	if !ok {
		return nil, errors.New("/proc/stat does not exist")
	}

	result := make(map[int]Stat)
	for _, line := range strings.Split(content, "\n") {
		rest, found := strings.CutPrefix(line, "cpu")
		if !found {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 8 {
			continue
		}
		number, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		values := make([]uint64, 8)
		parseOk := true
		for i := 0; i < 8; i++ {
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				parseOk = false
				break
			}
			values[i] = v
		}
		if !parseOk {
			continue
		}

		result[number] = Stat{
			User: values[0], Nice: values[1], System: values[2], Idle: values[3],
			IOWait: values[4], IRQ: values[5], SoftIRQ: values[6], Steal: values[7],
		}
	}

	return result, nil
}
