// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package daemon orchestrates one full tick: rescan hardware, derive
// telemetry, fold rules into deltas, apply them, compute the next
// polling delay, sleep. Grounded on the original watt source's
// system.rs run_daemon (ctrlc handler -> cancellation flag -> top-of-
// loop check, sleep-minus-elapsed).
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/clockx"
	"github.com/NotAShelf/watt/internal/engine"
	"github.com/NotAShelf/watt/internal/expr"
	"github.com/NotAShelf/watt/internal/hwmodel"
	"github.com/NotAShelf/watt/internal/metrics"
	"github.com/NotAShelf/watt/internal/poll"
	"github.com/NotAShelf/watt/internal/ruleset"
	"github.com/NotAShelf/watt/internal/sysfs"
	"github.com/NotAShelf/watt/internal/telemetry"
)

// Options configures a Daemon.
type Options struct {
	Fs              sysfs.Interface
	Clock           clockx.Clock
	Config          *ruleset.Config
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	NumFallbackCpus int
}

// Daemon holds the running state across ticks: the telemetry log, the
// last time user activity was observed, and the previous tick's polling
// delay (for EMA smoothing).
type Daemon struct {
	fs              sysfs.Interface
	clock           clockx.Clock
	config          *ruleset.Config
	logger          *slog.Logger
	metrics         *metrics.Metrics
	numFallbackCpus int

	log               *telemetry.Log
	lastUserActivity  time.Time
	lastPollingDelay  time.Duration
	hasLastDelay      bool
}

// New constructs a Daemon ready to Run.
func New(opts Options) *Daemon {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		fs:               opts.Fs,
		clock:            opts.Clock,
		config:           opts.Config,
		logger:           logger,
		metrics:          opts.Metrics,
		numFallbackCpus:  opts.NumFallbackCpus,
		log:              telemetry.New(opts.Clock),
		lastUserActivity: opts.Clock.Now(),
	}
}

// Run loops ticking until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("stopping polling loop")
			return nil
		default:
		}

		start := d.clock.Now()

		delay, err := d.tick()
		if err != nil {
			return err
		}

		elapsed := d.clock.Now().Sub(start)
		sleepFor := delay - elapsed
		if sleepFor < 0 {
			sleepFor = 0
		}

		d.logger.Info("next poll scheduled", "seconds", sleepFor.Seconds())

		select {
		case <-ctx.Done():
			d.logger.Info("stopping polling loop")
			return nil
		case <-time.After(sleepFor):
		}
	}
}

func (d *Daemon) tick() (time.Duration, error) {
	procStat, err := hwmodel.ScanProcStat(d.fs)
	if err != nil {
		return 0, errors.Wrap(err, "failed to scan /proc/stat")
	}

	cpus, err := hwmodel.ScanAllCpus(d.fs, procStat, d.numFallbackCpus)
	if err != nil {
		return 0, errors.Wrap(err, "failed to scan CPUs")
	}

	powerSupplies, err := hwmodel.ScanAllPowerSupplies(d.fs)
	if err != nil {
		return 0, errors.Wrap(err, "failed to scan power supplies")
	}

	d.appendTelemetry(cpus, powerSupplies)

	if d.isCpuActive(cpus) {
		d.lastUserActivity = d.clock.Now()
	}

	cpuNumbers := make([]int, 0, len(cpus))
	for _, cpu := range cpus {
		cpuNumbers = append(cpuNumbers, cpu.Number)
	}
	turboEnabled, turboOk, err := hwmodel.Turbo(d.fs, cpuNumbers)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read turbo status")
	}

	discharging := d.isDischarging(powerSupplies)
	state := d.buildState(cpus, turboOk && turboEnabled, discharging)

	delay := d.computeDelay(discharging)

	result, err := engine.Fold(d.config, cpus, powerSupplies, state)
	if err != nil {
		return 0, errors.Wrap(err, "failed to fold rules")
	}

	if err := engine.Apply(d.fs, cpus, powerSupplies, result); err != nil {
		return 0, errors.Wrap(err, "failed to apply deltas")
	}

	if d.metrics != nil {
		d.metrics.Update(cpus, powerSupplies, turboOk && turboEnabled)
	}

	d.lastPollingDelay = delay
	d.hasLastDelay = true

	return delay, nil
}

func (d *Daemon) appendTelemetry(cpus []hwmodel.Cpu, powerSupplies []hwmodel.PowerSupply) {
	var usageSum, tempSum float64
	var tempCount int
	for _, cpu := range cpus {
		usageSum += cpu.Stat.Usage()
		if cpu.HasTemperature {
			tempSum += cpu.TemperatureC
			tempCount++
		}
	}
	usage := 0.0
	if len(cpus) > 0 {
		usage = usageSum / float64(len(cpus))
	}
	temperature := 0.0
	if tempCount > 0 {
		temperature = tempSum / float64(tempCount)
	}
	d.log.AppendCpu(usage, temperature)

	var chargeSum float64
	var chargeCount int
	for _, ps := range powerSupplies {
		if ps.HasChargePercent {
			chargeSum += ps.ChargePercent
			chargeCount++
		}
	}
	if chargeCount > 0 {
		d.log.AppendPowerSupply(chargeSum / float64(chargeCount))
	}
}

func (d *Daemon) isCpuActive(cpus []hwmodel.Cpu) bool {
	return !d.log.IsCpuIdle()
}

func (d *Daemon) isDischarging(powerSupplies []hwmodel.PowerSupply) bool {
	states := make([]bool, 0, len(powerSupplies))
	for _, ps := range powerSupplies {
		states = append(states, ps.HasChargeState && ps.ChargeState == hwmodel.ChargeStateDischarging)
	}
	return telemetry.IsDischarging(states)
}

func (d *Daemon) computeDelay(discharging bool) time.Duration {
	volatility, hasVolatility := d.log.CpuVolatility()
	dischargeRate, hasDischargeRate := d.log.DischargeRatePerHour()
	idleFor := d.clock.Now().Sub(d.lastUserActivity)

	in := poll.Inputs{
		Discharging:           discharging,
		DischargeRatePerHour:  dischargeRate,
		HasDischargeRate:      hasDischargeRate,
		CpuIdle:               d.log.IsCpuIdle(),
		IdleFor:               idleFor,
		HasVolatility:         hasVolatility,
		VolatilityUsage:       volatility.Usage,
		VolatilityTemperature: volatility.Temperature,
		LastDelay:             d.lastPollingDelay,
		HasLastDelay:          d.hasLastDelay,
	}

	return poll.Delay(in)
}

func (d *Daemon) buildState(cpus []hwmodel.Cpu, turboAvailable, discharging bool) expr.State {
	volatility, hasVolatility := d.log.CpuVolatility()
	dischargeRate, hasDischargeRate := d.log.DischargeRatePerHour()

	var cpuUsage, cpuTemperature float64
	if len(d.log.CpuSamples()) > 0 {
		last := d.log.CpuSamples()[len(d.log.CpuSamples())-1]
		cpuUsage = last.Usage
		cpuTemperature = last.Temperature
	}

	var charge float64
	if samples := d.log.PowerSupplySamples(); len(samples) > 0 {
		charge = samples[len(samples)-1].Charge
	}

	var hwFreqMin, hwFreqMax, scalingMax float64
	var hasHwFreqMin, hasHwFreqMax, hasScalingMax bool
	for _, cpu := range cpus {
		if cpu.HasHardwareFrequency {
			hwFreqMin = float64(cpu.HardwareFrequencyMHzMinimum)
			hwFreqMax = float64(cpu.HardwareFrequencyMHzMaximum)
			hasHwFreqMin, hasHwFreqMax = true, true
		}
		if cpu.HasFrequency {
			scalingMax = float64(cpu.FrequencyMHzMaximum)
			hasScalingMax = true
		}
		if hasHwFreqMin && hasScalingMax {
			break
		}
	}

	loadAverage, hasLoadAverage, err := hwmodel.ScanLoadAverage(d.fs)
	if err != nil {
		d.logger.Warn("failed to scan load average", "error", err)
	}

	lidClosed, hasLidState, err := hwmodel.ScanLidClosed(d.fs)
	if err != nil {
		d.logger.Warn("failed to scan lid state", "error", err)
	}

	return expr.State{
		CpuUsage:                    cpuUsage,
		HasCpuUsageVolatility:       hasVolatility,
		CpuUsageVolatility:          volatility.Usage,
		CpuTemperature:              cpuTemperature,
		HasCpuTemperatureVolatility: hasVolatility,
		CpuTemperatureVolatility:    volatility.Temperature,
		CpuIdleSeconds:              d.clock.Now().Sub(d.lastUserActivity).Seconds(),

		CpuFrequencyMinimumMHz:    hwFreqMin,
		HasCpuFrequencyMinimumMHz: hasHwFreqMin,
		CpuFrequencyMaximumMHz:    hwFreqMax,
		HasCpuFrequencyMaximumMHz: hasHwFreqMax,
		CpuScalingMaximumMHz:      scalingMax,
		HasCpuScalingMaximumMHz:   hasScalingMax,

		CpuCoreCount: len(cpus),

		HasLoadAverage: hasLoadAverage,
		LoadAverage1m:  loadAverage.One,
		LoadAverage5m:  loadAverage.Five,
		LoadAverage15m: loadAverage.Fifteen,

		HourOfDay: d.clock.Now().Hour(),

		PowerSupplyCharge:           charge,
		HasPowerSupplyDischargeRate: hasDischargeRate,
		PowerSupplyDischargeRate:    dischargeRate,

		Discharging: discharging,
		HasLidState: hasLidState,
		LidClosed:   lidClosed,

		TurboAvailable: turboAvailable,

		UsageMeanSince: d.usageMeanSince,
	}
}

// usageMeanSince answers cpu-usage-since: the mean CPU usage across
// samples taken within the last windowSeconds, requiring at least two
// samples in that window so a single fresh sample cannot masquerade as
// a trend.
func (d *Daemon) usageMeanSince(windowSeconds float64) (float64, bool) {
	samples := d.log.CpuSamples()
	if len(samples) == 0 {
		return 0, false
	}

	cutoff := d.clock.Now().Add(-time.Duration(windowSeconds * float64(time.Second)))
	var sum float64
	var count int
	for _, s := range samples {
		if s.At.Before(cutoff) {
			continue
		}
		sum += s.Usage
		count++
	}
	if count < 2 {
		return 0, false
	}
	return sum / float64(count), true
}
