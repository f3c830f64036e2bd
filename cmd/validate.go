// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/NotAShelf/watt/internal/ruleset"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Parse a rule file and report errors without starting the daemon",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		path = appContextFrom(cmd).ConfigPath
	}

	config, err := ruleset.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid rule file: %v\n", err)
		return err
	}

	source := path
	if source == "" {
		source = "(built-in default)"
	}

	bold := term.IsTerminal(int(os.Stdout.Fd()))
	heading := "Rules in %s:\n"
	if bold {
		heading = "\033[1mRules in %s:\033[0m\n"
	}
	fmt.Printf(heading, source)

	for _, rule := range config.Rules {
		fmt.Printf("  [%3d] %s\n", rule.Priority, rule.Name)
	}
	fmt.Printf("%d rule(s) OK\n", len(config.Rules))

	return nil
}
