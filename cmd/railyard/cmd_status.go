// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/railyard-dev/railyard/cmd/railyard/config"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/status"
	"github.com/railyard-dev/railyard/pkg/ux"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runStatusCommand reports the latest release, active trains, and the
// suggested next action. Read-only: a status run never mutates the remote.
func runStatusCommand(cmd *cobra.Command, args []string) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		os.Exit(OutputResult(jsonOutput, "status", start, nil, nil, err))
	}

	var report *status.Report
	build := func() error {
		var err error
		report, err = status.Build(ctx, store, store, config.Global.Mainline,
			status.Options{
				Verbose:     statusVerbose,
				ShowCommits: statusShowCommits,
				Max:         statusMax,
			})
		return err
	}
	if jsonOutput {
		err = build()
	} else {
		spin := ux.NewSpinner("Reading remote refs").WithType(ux.SpinnerRail)
		spin.Start()
		err = build()
		spin.Stop()
	}
	if err != nil {
		os.Exit(OutputResult(jsonOutput, "status", start, nil, nil, err))
	}

	if !jsonOutput {
		fmt.Print(report.Render())
	}
	os.Exit(OutputResult(jsonOutput, "status", start, report, nil, nil))
}
