// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/railyard-dev/railyard/cmd/railyard/config"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/pkg/ux"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runInitCommand writes a starter config file with the defaults spelled
// out, refusing to overwrite one that already exists.
func runInitCommand(cmd *cobra.Command, args []string) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}
	if err := config.WriteDefault(path); err != nil {
		ux.Error(err.Error())
		os.Exit(errs.ExitFailure)
	}
	ux.Success(fmt.Sprintf("Wrote %s", path))
	ux.Info("Edit remote, mainline, and manifest before the first cut.")
}

// runVersionCommand prints the build metadata baked in at link time.
func runVersionCommand(cmd *cobra.Command, args []string) {
	fmt.Printf("railyard %s (%s)\n", buildVersion, buildCommit)
}
