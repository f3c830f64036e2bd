// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package sysfs

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Fake is an in-memory Interface used by tests. Files is keyed by full
// path; a path present in Files but absent from Errors reads/writes
// normally. A path listed in Errors fails every operation against it with
// that error, simulating an unexpected I/O failure distinct from
// not-found.
type Fake struct {
	Files  map[string]string
	Errors map[string]error
}

// NewFake returns an empty Fake adapter.
func NewFake() *Fake {
	return &Fake{
		Files:  make(map[string]string),
		Errors: make(map[string]error),
	}
}

// Set stores value at path, as if it had been written by the kernel.
func (f *Fake) Set(path, value string) *Fake {
	f.Files[path] = value
	return f
}

// Fail makes every operation against path return err.
func (f *Fake) Fail(path string, err error) *Fake {
	f.Errors[path] = err
	return f
}

func (f *Fake) Exists(path string) bool {
	_, ok := f.Files[path]
	return ok
}

func (f *Fake) Read(path string) (string, bool, error) {
	if err, failing := f.Errors[path]; failing {
		return "", false, err
	}
	value, ok := f.Files[path]
	if !ok {
		return "", false, nil
	}
	return strings.TrimSpace(value), true, nil
}

func (f *Fake) ReadDir(path string) ([]string, bool, error) {
	if err, failing := f.Errors[path]; failing {
		return nil, false, err
	}

	prefix := strings.TrimSuffix(path, "/") + "/"
	seen := make(map[string]bool)
	var names []string

	for candidate := range f.Files {
		if !strings.HasPrefix(candidate, prefix) {
			continue
		}
		rest := strings.TrimPrefix(candidate, prefix)
		name := strings.SplitN(rest, "/", 2)[0]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	if names == nil {
		return nil, false, nil
	}

	sort.Strings(names)
	return names, true, nil
}

func (f *Fake) Write(path string, value string) error {
	if err, failing := f.Errors[path]; failing {
		return errors.Wrapf(err, "failed to write %q", path)
	}
	if _, ok := f.Files[path]; !ok {
		return errors.Errorf("write to non-existent path %q", path)
	}
	f.Files[path] = value
	return nil
}
