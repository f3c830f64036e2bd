// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package app defines application-wide types, constants, and context that
// are shared across the root command and its subcommands.
package app

import (
	"os"
	"path/filepath"
)

// Name is the name of the application executable.
var Name = filepath.Base(os.Args[0])

// Context carries the values the root command resolves once at startup
// and every subcommand reads back out of cobra's command context.
type Context struct {
	ConfigPath string // ConfigPath is the rule file path, or "" for the built-in default.
	Debug      bool   // Debug is true if the application is running in debug mode.
	LogJSON    bool   // LogJSON selects the JSON slog handler instead of text.
	Force      bool   // Force bypasses the single-instance lock.
	Version    string
}

// Flag names for the persistent flags defined on the root command.
const (
	FlagDebugName       = "debug"
	FlagConfigName      = "config"
	FlagForceName       = "force"
	FlagLogJSONName     = "log-json"
	FlagMetricsAddrName = "metrics-addr"
)
