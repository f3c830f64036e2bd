// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package util includes small filesystem/path helpers shared by the CLI
// commands.
package util

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ExpandUser expands '~' to the current user's home directory, if found,
// otherwise returns the original path unchanged.
func ExpandUser(path string) string {
	usr, _ := user.Current()
	if path == "~" {
		return usr.HomeDir
	} else if strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}

// AbsPath returns the absolute path after expanding '~' to the user's home
// directory. Use in place of filepath.Abs() everywhere a user-supplied
// path (e.g. --config) is resolved.
func AbsPath(path string) (string, error) {
	return filepath.Abs(ExpandUser(path))
}

// Exists checks if a file or directory exists at the given path.
func Exists(filePath string) bool {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return false
	}
	return true
}

// StringInList reports whether s is present in l.
func StringInList(s string, l []string) bool {
	for _, item := range l {
		if item == s {
			return true
		}
	}
	return false
}
