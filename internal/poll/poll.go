// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package poll computes the adaptive delay between daemon ticks. It is
// grounded 1:1 on the original watt source's Daemon::polling_delay and
// idle_multiplier (daemon.rs), keeping the same constants.
package poll

import (
	"math"
	"time"
)

const (
	baseDelay = 5 * time.Second
	minDelay  = 1 * time.Second
	maxDelay  = 30 * time.Second

	idleLinearCeiling = 120 * time.Second
	idleGraceThreshold = 30 * time.Second

	emaWeightNew = 0.3
	emaWeightOld = 0.7
)

// IdleMultiplier returns a multiplier in [1, 5]: linear 1->2 under two
// minutes of idle time, then 1+log2(minutes) afterward.
func IdleMultiplier(idleFor time.Duration) float64 {
	var factor float64
	if idleFor < idleLinearCeiling {
		factor = idleFor.Seconds() / idleLinearCeiling.Seconds()
	} else {
		minutes := idleFor.Seconds() / 60
		factor = math.Log2(minutes)
	}

	return clamp(1.0+factor, 1.0, 5.0)
}

// Inputs bundles the signals Delay needs from the current tick.
type Inputs struct {
	Discharging         bool
	DischargeRatePerHour float64
	HasDischargeRate     bool

	CpuIdle       bool
	IdleFor       time.Duration

	HasVolatility      bool
	VolatilityUsage      float64
	VolatilityTemperature float64

	LastDelay     time.Duration
	HasLastDelay  bool
}

// Delay computes the next polling delay from in, applying the
// discharge-rate multiplier, then the idle multiplier (only once idle
// time exceeds the 30s grace period), then volatility halving, then EMA
// smoothing against the previous delay, then a final [1s, 30s] clamp.
func Delay(in Inputs) time.Duration {
	delay := baseDelay

	if in.Discharging {
		switch {
		case !in.HasDischargeRate:
			delay *= 2
		case in.DischargeRatePerHour > 0.2:
			delay *= 3
		case in.DischargeRatePerHour > 0.1:
			delay *= 2
		default:
			delay = (delay / 2) * 3
		}
	}

	if in.CpuIdle && in.IdleFor > idleGraceThreshold {
		factor := IdleMultiplier(in.IdleFor)
		delay = time.Duration(float64(delay) * factor)
	}

	if in.HasVolatility && (in.VolatilityUsage > 0.1 || in.VolatilityTemperature > 0.02) {
		halved := delay / 2
		if halved < minDelay {
			halved = minDelay
		}
		delay = halved
	}

	if in.HasLastDelay {
		delay = time.Duration(float64(delay)*emaWeightNew + float64(in.LastDelay)*emaWeightOld)
	}

	return time.Duration(clamp(float64(delay), float64(minDelay), float64(maxDelay)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
