// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/railyard-dev/railyard/cmd/railyard/config"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/pkg/logging"
	"github.com/railyard-dev/railyard/pkg/ux"
)

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X main.buildVersion=1.4.0 -X main.buildCommit=abc1234"
var (
	buildVersion = "dev"
	buildCommit  = "none"
)

// Per-invocation globals, populated before any command runs.
var (
	logger *logging.Logger
	runID  string
)

func main() {
	defer func() {
		if logger != nil {
			logger.Close()
		}
	}()

	// Run functions exit themselves with mapped codes; anything Execute
	// returns is a cobra parse/usage failure.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(errs.ExitUsage)
	}
}

func init() {
	rootCmd.SilenceUsage = true

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			ux.SetPlain(true)
		}

		if err := config.Load(cfgFile); err != nil {
			ux.Error(err.Error())
			os.Exit(errs.ExitFailure)
		}

		runID = uuid.NewString()
		level := logging.ParseLevel(config.Global.Log.Level)
		logDir := config.Global.Log.Dir
		if logDir == "" {
			logDir = "~/.railyard/logs"
		}
		logger = logging.New(logging.Config{
			Level:   level,
			LogDir:  logDir,
			Service: "railyard",
			// Diagnostic logs stay out of the styled command output
			// unless the operator turned the level up to debug.
			Quiet: level != logging.LevelDebug,
		}).With("run_id", runID)
	}
}
