// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package telemetry keeps bounded history of system load and derives the
// volatility, idleness, and battery discharge-rate signals the polling
// controller and rule engine both consume. It is grounded on the daemon
// logging and derivation logic in the original watt source's daemon.rs
// and system.rs.
package telemetry

import (
	"time"

	"github.com/NotAShelf/watt/internal/clockx"
)

// maxLogEntries caps each ring at 100 entries; the oldest is evicted once
// a new entry would exceed it.
const maxLogEntries = 100

// recentWindow is how far back "recent" samples are taken from when
// computing volatility and idleness.
const recentWindow = 5 * time.Minute

// CpuSample is one tick's worth of aggregate CPU usage and temperature.
type CpuSample struct {
	At          time.Time
	Usage       float64
	Temperature float64
}

// PowerSupplySample is one tick's worth of aggregate battery charge.
type PowerSupplySample struct {
	At     time.Time
	Charge float64
}

// Log accumulates bounded CPU and power-supply history.
type Log struct {
	clock clockx.Clock

	cpu          []CpuSample
	powerSupply  []PowerSupplySample
}

// New returns an empty Log driven by clock.
func New(clock clockx.Clock) *Log {
	return &Log{clock: clock}
}

// AppendCpu records an aggregate usage/temperature sample, evicting the
// oldest entry if the ring is already at capacity.
func (l *Log) AppendCpu(usage, temperature float64) {
	l.cpu = append(l.cpu, CpuSample{At: l.clock.Now(), Usage: usage, Temperature: temperature})
	if len(l.cpu) > maxLogEntries {
		l.cpu = l.cpu[len(l.cpu)-maxLogEntries:]
	}
}

// AppendPowerSupply records an aggregate charge sample, evicting the
// oldest entry if the ring is already at capacity.
func (l *Log) AppendPowerSupply(charge float64) {
	l.powerSupply = append(l.powerSupply, PowerSupplySample{At: l.clock.Now(), Charge: charge})
	if len(l.powerSupply) > maxLogEntries {
		l.powerSupply = l.powerSupply[len(l.powerSupply)-maxLogEntries:]
	}
}

// Volatility is the mean absolute tick-to-tick change in usage and
// temperature over every retained sample.
type Volatility struct {
	Usage       float64
	Temperature float64
}

// CpuVolatility reports ok=false when fewer than two samples fall within
// the recent window, matching the original source's undefined-until-
// enough-data behavior.
func (l *Log) CpuVolatility() (Volatility, bool) {
	recent := l.recentCpuCount()
	if recent < 2 || len(l.cpu) < 2 {
		return Volatility{}, false
	}

	var usageSum, tempSum float64
	changes := len(l.cpu) - 1
	for i := 0; i < changes; i++ {
		usageSum += absFloat(l.cpu[i+1].Usage - l.cpu[i].Usage)
		tempSum += absFloat(l.cpu[i+1].Temperature - l.cpu[i].Temperature)
	}

	return Volatility{
		Usage:       usageSum / float64(changes),
		Temperature: tempSum / float64(changes),
	}, true
}

// IsCpuIdle reports whether recent average usage is low and, if
// volatility is known, stable.
func (l *Log) IsCpuIdle() bool {
	recent := l.recentCpuCount()
	if recent < 2 {
		return false
	}

	var sum float64
	for _, s := range l.cpu[len(l.cpu)-recent:] {
		sum += s.Usage
	}
	average := sum / float64(recent)

	volatility, ok := l.CpuVolatility()
	volatilityOk := !ok || volatility.Usage < 0.05

	return average < 0.1 && volatilityOk
}

func (l *Log) recentCpuCount() int {
	count := 0
	for i := len(l.cpu) - 1; i >= 0; i-- {
		if l.clock.Now().Sub(l.cpu[i].At) >= recentWindow {
			break
		}
		count++
	}
	return count
}

// CpuSamples returns the recorded CPU history, oldest first.
func (l *Log) CpuSamples() []CpuSample {
	return l.cpu
}

// PowerSupplySamples returns the recorded power-supply history, oldest first.
func (l *Log) PowerSupplySamples() []PowerSupplySample {
	return l.powerSupply
}

// IsDischarging reports the last-observed battery discharge state; callers
// pass it in rather than this package re-deriving it from hwmodel, since
// discharge state is a live scan fact, not log history.
func IsDischarging(states []bool) bool {
	for _, discharging := range states {
		if discharging {
			return true
		}
	}
	return false
}

// DischargeRatePerHour walks the power-supply log from newest to oldest
// while charge keeps monotonically increasing (i.e. going backward in
// time during a discharge), and returns the percent-per-hour rate across
// that run. ok is false when fewer than two samples qualify.
func (l *Log) DischargeRatePerHour() (rate float64, ok bool) {
	if len(l.powerSupply) == 0 {
		return 0, false
	}

	var run []PowerSupplySample
	var lastCharge *float64

	for i := len(l.powerSupply) - 1; i >= 0; i-- {
		sample := l.powerSupply[i]
		if lastCharge == nil {
			c := sample.Charge
			lastCharge = &c
			run = append(run, sample)
			continue
		}
		if sample.Charge <= *lastCharge {
			break
		}
		c := sample.Charge
		lastCharge = &c
		run = append(run, sample)
	}

	if len(run) < 2 {
		return 0, false
	}

	end := run[0]   // closest to now, least charge
	start := run[len(run)-1] // furthest back, most charge

	durationHours := end.At.Sub(start.At).Seconds() / 3600
	if durationHours <= 0 {
		return 0, false
	}

	discharged := start.Charge - end.Charge
	return discharged / durationHours, true
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
