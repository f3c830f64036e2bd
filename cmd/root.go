// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package cmd provides the command line interface for the daemon.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NotAShelf/watt/internal/app"
	"github.com/NotAShelf/watt/internal/util"
)

var gVersion = "0.0.0-dev" // overwritten by ldflags in the release build

var examples = []string{
	fmt.Sprintf("  Run the daemon with the built-in rules:  $ %s daemon", app.Name),
	fmt.Sprintf("  Run with a custom rule file:             $ %s daemon --config /etc/watt.toml", app.Name),
	fmt.Sprintf("  Check a rule file for errors:            $ %s validate /etc/watt.toml", app.Name),
	fmt.Sprintf("  Print what the current rules resolve to: $ %s status", app.Name),
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:                app.Name,
	Short:              "A rule-driven power and performance daemon",
	Long:               "watt watches CPU usage, temperature, and battery state, and applies operator-defined rules to governors, EPP/EPB, frequency bounds, turbo, and battery charge thresholds.",
	Example:            strings.Join(examples, "\n"),
	PersistentPreRunE:  initializeApplication,
	Version:            gVersion,
	// RunE is set to the daemon subcommand's action so `watt` with no
	// arguments behaves the same as `watt daemon`.
	RunE: runDaemonCmd.RunE,
}

var (
	flagDebug       bool
	flagLogJSON     bool
	flagConfig      string
	flagForce       bool
	flagMetricsAddr string
)

func init() {
	rootCmd.SetUsageTemplate(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command] [flags]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}
`)
	rootCmd.SetHelpCommand(&cobra.Command{}) // block the help command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.AddCommand(runDaemonCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)

	rootCmd.PersistentFlags().BoolVar(&flagDebug, app.FlagDebugName, false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, app.FlagConfigName, "", "path to a rule file (defaults to the built-in rules)")
	rootCmd.PersistentFlags().BoolVar(&flagForce, app.FlagForceName, false, "bypass the single-instance lock")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, app.FlagLogJSONName, false, "write logs as JSON instead of text")
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, app.FlagMetricsAddrName, "", "address to serve Prometheus metrics on, e.g. :9101 (disabled if unset)")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	cobra.EnableCommandSorting = false
	cobra.EnableCaseInsensitive = true
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initializeApplication configures logging and stashes the resolved
// app.Context on the command's context for subcommands to read back.
func initializeApplication(cmd *cobra.Command, args []string) error {
	var logOpts slog.HandlerOptions
	if flagDebug {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	} else {
		logOpts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if flagLogJSON {
		handler = slog.NewJSONHandler(os.Stderr, &logOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, &logOpts)
	}
	slog.SetDefault(slog.New(handler))

	configPath := flagConfig
	if configPath == "" {
		configPath = os.Getenv("WATT_CONFIG")
	}
	if configPath != "" {
		resolved, err := util.AbsPath(configPath)
		if err != nil {
			return fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
		}
		configPath = resolved
	}

	ctx := context.WithValue(context.Background(), app.Context{}, app.Context{
		ConfigPath: configPath,
		Debug:      flagDebug,
		LogJSON:    flagLogJSON,
		Force:      flagForce,
		Version:    gVersion,
	})
	cmd.SetContext(ctx)

	return nil
}

// appContextFrom reads the app.Context a parent command stashed via
// initializeApplication. Subcommands call this instead of re-parsing
// flags, since cobra only runs PersistentPreRunE on the command actually
// invoked (the root command when a subcommand is run).
func appContextFrom(cmd *cobra.Command) app.Context {
	if v := cmd.Context().Value(app.Context{}); v != nil {
		if ac, ok := v.(app.Context); ok {
			return ac
		}
	}
	return app.Context{}
}
