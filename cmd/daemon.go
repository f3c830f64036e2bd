// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NotAShelf/watt/internal/clockx"
	"github.com/NotAShelf/watt/internal/daemon"
	"github.com/NotAShelf/watt/internal/lock"
	"github.com/NotAShelf/watt/internal/metrics"
	"github.com/NotAShelf/watt/internal/ruleset"
	"github.com/NotAShelf/watt/internal/sysfs"
)

// runDaemonCmd is both the "daemon" subcommand and (via rootCmd.RunE) the
// default action when watt is invoked with no subcommand at all,
// mirroring the original single-binary daemon's "just run it" shape.
var runDaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the polling loop that applies rules to hardware",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ac := appContextFrom(cmd)

	config, err := ruleset.Load(ac.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load rule file: %w", err)
	}

	lockPath := lockFilePath()
	lockFile, err := lock.Acquire(lockPath, ac.Force)
	if err != nil {
		return err
	}
	if lockFile != nil {
		defer lockFile.Release()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()
	defer signal.Stop(sigCh)

	var metricsHandle *metrics.Metrics
	if flagMetricsAddr != "" {
		metricsHandle = metrics.New()
		go func() {
			if err := metrics.Serve(ctx, flagMetricsAddr, metricsHandle); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
		slog.Info("serving metrics", "address", flagMetricsAddr)
	}

	d := daemon.New(daemon.Options{
		Fs:              sysfs.Default,
		Clock:           clockx.Real{},
		Config:          config,
		Logger:          slog.Default(),
		Metrics:         metricsHandle,
		NumFallbackCpus: runtime.NumCPU(),
	})

	slog.Info("starting watt", "version", ac.Version, "rules", len(config.Rules))
	return d.Run(ctx)
}

// lockFilePath mirrors the original's $XDG_RUNTIME_DIR/watt.pid with a
// /run/watt.pid fallback for systems without a runtime dir (e.g. running
// as a system service rather than a user one).
func lockFilePath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir + "/watt.pid"
	}
	return "/run/watt.pid"
}
