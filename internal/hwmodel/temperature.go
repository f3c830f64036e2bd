// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package hwmodel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/sysfs"
)

const (
	hwmonRootPath       = "/sys/class/hwmon"
	thermalZoneRootPath = "/sys/class/thermal"
	// syntheticThermalZoneIndexBase keeps thermal_zone-derived sensor
	// indices from colliding with real hwmon temp{N}_input indices, which
	// top out well below this in practice.
	syntheticThermalZoneIndexBase = 777
)

var hwmonCPUDeviceNames = []string{"coretemp", "k10temp", "zenpower", "amdgpu"}

var cpuLabelPrefixes = []string{"cpu", "CPU", "core", "Core", "Tctl", "Tdie", "Tccd"}

// ScanCPUTemperatures returns every CPU temperature reading it can find, in
// Celsius, keyed by sensor index. It uses hwmon sensors from CPU-adjacent
// drivers (keyed by their tempN index) and falls back to ACPI thermal
// zones (keyed from 777 upward) only when hwmon yields nothing. The map is
// empty when no sensor could be attributed to the CPU at all.
func ScanCPUTemperatures(fs sysfs.Interface) (map[int]float64, error) {
	temps, err := scanHwmonCPUTemperatures(fs)
	if err != nil {
		return nil, err
	}
	if len(temps) > 0 {
		return temps, nil
	}

	return scanThermalZoneTemperatures(fs)
}

func scanHwmonCPUTemperatures(fs sysfs.Interface) (map[int]float64, error) {
	devices, ok, err := fs.ReadDir(hwmonRootPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read hwmon devices")
	}
	if !ok {
		return nil, nil
	}

	result := make(map[int]float64)

	for _, device := range devices {
		deviceDir := hwmonRootPath + "/" + device

		name, ok, err := fs.Read(deviceDir + "/name")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read hwmon device name for %q", device)
		}
		if !ok || !isCPUAdjacentHwmonName(name) {
			continue
		}

		for i := 1; i <= 96; i++ {
			labelPath := fmt.Sprintf("%s/temp%d_label", deviceDir, i)
			inputPath := fmt.Sprintf("%s/temp%d_input", deviceDir, i)

			if !fs.Exists(inputPath) {
				continue
			}

			rawMilliC, ok, err := sysfs.ReadFloat(fs, inputPath)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read %q", inputPath)
			}
			if !ok {
				continue
			}

			label, _, _ := fs.Read(labelPath)
			if label != "" && !hasCPULabelPrefix(label) {
				continue
			}

			result[i] = rawMilliC / 1000
		}
	}

	return result, nil
}

func isCPUAdjacentHwmonName(name string) bool {
	lower := strings.ToLower(name)
	for _, known := range hwmonCPUDeviceNames {
		if lower == known {
			return true
		}
	}
	return strings.Contains(lower, "cpu") || strings.Contains(lower, "temp")
}

func hasCPULabelPrefix(label string) bool {
	for _, prefix := range cpuLabelPrefixes {
		if strings.HasPrefix(label, prefix) {
			return true
		}
	}
	return false
}

func scanThermalZoneTemperatures(fs sysfs.Interface) (map[int]float64, error) {
	zones, ok, err := fs.ReadDir(thermalZoneRootPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read thermal zones")
	}
	if !ok {
		return nil, nil
	}

	result := make(map[int]float64)
	syntheticIndex := syntheticThermalZoneIndexBase

	for _, zone := range zones {
		rest, found := strings.CutPrefix(zone, "thermal_zone")
		if !found {
			continue
		}
		if _, err := strconv.Atoi(rest); err != nil {
			continue
		}

		tempPath := thermalZoneRootPath + "/" + zone + "/temp"
		rawMilliC, ok, err := sysfs.ReadFloat(fs, tempPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %q", tempPath)
		}
		if !ok {
			continue
		}

		result[syntheticIndex] = rawMilliC / 1000
		syntheticIndex++
	}

	return result, nil
}
