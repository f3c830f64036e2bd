// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package hwmodel

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/sysfs"
)

// LoadAverage is the classic 1/5/15-minute scheduler load average.
type LoadAverage struct {
	One, Five, Fifteen float64
}

// ScanLoadAverage reads /proc/loadavg.
func ScanLoadAverage(fs sysfs.Interface) (LoadAverage, bool, error) {
	content, ok, err := fs.Read("/proc/loadavg")
	if err != nil {
		return LoadAverage{}, false, errors.Wrap(err, "failed to read /proc/loadavg")
	}
	if !ok {
		return LoadAverage{}, false, nil
	}

	fields := strings.Fields(content)
	if len(fields) < 3 {
		return LoadAverage{}, false, nil
	}

	one, err1 := strconv.ParseFloat(fields[0], 64)
	five, err2 := strconv.ParseFloat(fields[1], 64)
	fifteen, err3 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return LoadAverage{}, false, nil
	}

	return LoadAverage{One: one, Five: five, Fifteen: fifteen}, true, nil
}

const lidStateRootPath = "/proc/acpi/button/lid"

// ScanLidClosed reports whether any ACPI lid device reports "closed". A
// desktop with no lid device reports ok=false, which the ?lid-closed
// sensor term evaluates as false.
func ScanLidClosed(fs sysfs.Interface) (closed bool, ok bool, err error) {
	entries, dirOk, err := fs.ReadDir(lidStateRootPath)
	if err != nil {
		return false, false, errors.Wrap(err, "failed to read lid device directory")
	}
	if !dirOk || len(entries) == 0 {
		return false, false, nil
	}

	for _, entry := range entries {
		statePath := lidStateRootPath + "/" + entry + "/state"
		content, stateOk, err := fs.Read(statePath)
		if err != nil {
			return false, false, errors.Wrapf(err, "failed to read lid state %q", statePath)
		}
		if !stateOk {
			continue
		}
		if strings.Contains(strings.ToLower(content), "closed") {
			return true, true, nil
		}
		ok = true
	}

	return false, ok, nil
}
