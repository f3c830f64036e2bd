// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/NotAShelf/watt/internal/clockx"
	"github.com/NotAShelf/watt/internal/engine"
	"github.com/NotAShelf/watt/internal/expr"
	"github.com/NotAShelf/watt/internal/hwmodel"
	"github.com/NotAShelf/watt/internal/ruleset"
	"github.com/NotAShelf/watt/internal/sysfs"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Scan hardware once and print what the current rules would do, without applying anything",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ac := appContextFrom(cmd)

	config, err := ruleset.Load(ac.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load rule file: %w", err)
	}

	fs := sysfs.Default

	procStat, err := hwmodel.ScanProcStat(fs)
	if err != nil {
		return fmt.Errorf("failed to scan /proc/stat: %w", err)
	}

	cpus, err := hwmodel.ScanAllCpus(fs, procStat, runtime.NumCPU())
	if err != nil {
		return fmt.Errorf("failed to scan CPUs: %w", err)
	}

	powerSupplies, err := hwmodel.ScanAllPowerSupplies(fs)
	if err != nil {
		return fmt.Errorf("failed to scan power supplies: %w", err)
	}

	cpuNumbers := make([]int, 0, len(cpus))
	for _, cpu := range cpus {
		cpuNumbers = append(cpuNumbers, cpu.Number)
	}
	turboEnabled, turboOk, err := hwmodel.Turbo(fs, cpuNumbers)
	if err != nil {
		return fmt.Errorf("failed to read turbo status: %w", err)
	}

	discharging := false
	for _, ps := range powerSupplies {
		if ps.HasChargeState && ps.ChargeState == hwmodel.ChargeStateDischarging {
			discharging = true
			break
		}
	}

	loadAverage, hasLoadAverage, err := hwmodel.ScanLoadAverage(fs)
	if err != nil {
		return fmt.Errorf("failed to scan load average: %w", err)
	}
	lidClosed, hasLidState, err := hwmodel.ScanLidClosed(fs)
	if err != nil {
		return fmt.Errorf("failed to scan lid state: %w", err)
	}

	var cpuUsage float64
	if len(cpus) > 0 {
		cpuUsage = cpus[0].Stat.Usage()
	}

	state := expr.State{
		CpuUsage:       cpuUsage,
		CpuIdleSeconds: 0,
		CpuCoreCount:   len(cpus),
		HasLoadAverage: hasLoadAverage,
		LoadAverage1m:  loadAverage.One,
		LoadAverage5m:  loadAverage.Five,
		LoadAverage15m: loadAverage.Fifteen,
		HourOfDay:      clockx.Real{}.Now().Hour(),
		Discharging:    discharging,
		HasLidState:    hasLidState,
		LidClosed:      lidClosed,
		TurboAvailable: turboOk && turboEnabled,
	}

	result, err := engine.Fold(config, cpus, powerSupplies, state)
	if err != nil {
		return fmt.Errorf("failed to fold rules: %w", err)
	}

	p := message.NewPrinter(message.MatchLanguage("en"))

	for _, cpu := range cpus {
		delta := result.CpuDeltas[cpu.Number]
		p.Printf("cpu%d: governor=%s epp=%s epb=%s freq-min=%s freq-max=%s\n",
			cpu.Number,
			optionalString(delta.Governor),
			optionalString(delta.EPP),
			optionalString(delta.EPB),
			optionalInt(delta.FrequencyMinimumMHz),
			optionalInt(delta.FrequencyMaximumMHz),
		)
	}
	if result.Turbo != nil {
		p.Printf("turbo: %v\n", *result.Turbo)
	}

	for _, ps := range powerSupplies {
		delta := result.PowerDeltas[ps.Name]
		if delta.ChargeThresholdStart == nil && delta.ChargeThresholdEnd == nil {
			continue
		}
		p.Printf("%s: charge-threshold-start=%s charge-threshold-end=%s\n",
			ps.Name,
			optionalInt(delta.ChargeThresholdStart),
			optionalInt(delta.ChargeThresholdEnd),
		)
	}
	if result.PlatformProfile != nil {
		p.Printf("platform-profile: %s\n", *result.PlatformProfile)
	}

	return nil
}

func optionalString(s *string) string {
	if s == nil {
		return "(unset)"
	}
	return *s
}

func optionalInt(n *int64) string {
	if n == nil {
		return "(unset)"
	}
	return fmt.Sprintf("%d", *n)
}
