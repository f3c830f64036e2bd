// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package sysfs provides a typed, not-found-aware read/write adapter over
// /sys and /proc. Absence of a file is a first-class capability signal,
// not an error: callers distinguish "hardware feature unavailable" from
// "unexpected I/O failure" by checking the second return value rather than
// inspecting an error chain.
package sysfs

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Interface is satisfied by both the real adapter (package-level funcs,
// wrapped by Default) and Fake, the in-memory adapter tests substitute it
// with.
type Interface interface {
	Exists(path string) bool
	Read(path string) (value string, ok bool, err error)
	ReadDir(path string) (entries []string, ok bool, err error)
	Write(path string, value string) error
}

// Default is the real, OS-backed implementation of Interface.
var Default Interface = osAdapter{}

type osAdapter struct{}

func (osAdapter) Exists(path string) bool {
	return Exists(path)
}

func (osAdapter) Read(path string) (string, bool, error) {
	return Read(path)
}

func (osAdapter) ReadDir(path string) ([]string, bool, error) {
	return ReadDir(path)
}

func (osAdapter) Write(path string, value string) error {
	return Write(path, value)
}

// Exists reports whether path exists on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Read returns the trimmed contents of path. ok is false and err is nil
// when the path does not exist; err is non-nil for any other failure.
func Read(path string) (value string, ok bool, err error) {
	content, err := os.ReadFile(path) // #nosec G304 -- path is a known sysfs/procfs location
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to read %q", path)
	}
	return strings.TrimSpace(string(content)), true, nil
}

// ReadInt reads and parses the contents of path (via fs) as a base-10
// signed integer. It takes an Interface rather than being a method on one
// so that both Default and Fake get integer/float parsing for free.
func ReadInt(fs Interface, path string) (value int64, ok bool, err error) {
	content, ok, err := fs.Read(path)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(content, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to parse contents of %q as an integer", path)
	}
	return n, true, nil
}

// ReadUint reads and parses the contents of path (via fs) as a base-10
// unsigned integer.
func ReadUint(fs Interface, path string) (value uint64, ok bool, err error) {
	content, ok, err := fs.Read(path)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseUint(content, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to parse contents of %q as an unsigned integer", path)
	}
	return n, true, nil
}

// ReadFloat reads and parses the contents of path (via fs) as a floating
// point number.
func ReadFloat(fs Interface, path string) (value float64, ok bool, err error) {
	content, ok, err := fs.Read(path)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseFloat(content, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to parse contents of %q as a number", path)
	}
	return n, true, nil
}

// ReadDir lists entry names of the directory at path, sorted by name (the
// order os.ReadDir returns them in).
func ReadDir(path string) (entries []string, ok bool, err error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "failed to read directory %q", path)
	}

	names := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		names = append(names, entry.Name())
	}
	return names, true, nil
}

// Write writes value to path, replacing its contents.
func Write(path string, value string) error {
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil { // #nosec G306 -- sysfs files have fixed kernel-owned permissions
		return errors.Wrapf(err, "failed to write %q to %q", value, path)
	}
	return nil
}
