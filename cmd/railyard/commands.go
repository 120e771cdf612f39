// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	cfgFile    string
	jsonOutput bool

	// cut flags
	cutVersion    string
	cutBump       string
	cutBase       string
	cutReplace    bool
	cutKeep       bool
	cutNoManifest bool
	cutDryRun     bool

	// promote flags
	promoteRC        string
	promoteMessage   string
	promoteAutoNext  bool
	promoteNoPublish bool
	promoteDryRun    bool

	// status flags
	statusVerbose     bool
	statusShowCommits bool
	statusMax         int

	rootCmd = &cobra.Command{
		Use:   "railyard",
		Short: "A cli to manage release trains over a shared git remote",
		Long: `Railyard cuts release-candidate branches, promotes candidates to
production tags, and reports train state. The remote ref namespace is
the single source of truth; every run re-reads it before acting.`,
	}

	cutCmd = &cobra.Command{
		Use:   "cut",
		Short: "Cut the next release-candidate branch",
		Long: `Cut resolves the target version (explicit --version, --bump from the
latest release, or continuation of the highest active train) and pushes
the next release/X.Y.Z-rc.N branch.

Examples:
  railyard cut                      # next RC of the current train
  railyard cut --bump minor         # start the next minor train at rc.0
  railyard cut --version 2.0.0      # start an explicit train
  railyard cut --replace            # respin and delete the superseded RC
  railyard cut --dry-run            # print the plan, touch nothing`,
		Run: runCutCommand, // Defined in cmd_cut.go
	}

	promoteCmd = &cobra.Command{
		Use:   "promote",
		Short: "Promote a release candidate to a production release",
		Long: `Promote tags a candidate branch as vX.Y.Z, pushes the tag, and records
the release with the publishing service. The candidate defaults to the
highest RC of the highest active train.

Examples:
  railyard promote                               # promote the highest RC
  railyard promote --rc release/1.2.0-rc.3       # promote a specific RC
  railyard promote --auto-next                   # then cut the next train
  railyard promote --dry-run                     # print the plan only`,
		Run: runPromoteCommand, // Defined in cmd_promote.go
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the latest release, active trains, and the next action",
		Run:   runStatusCommand, // Defined in cmd_status.go
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a starter railyard.yaml in the current directory",
		Run:   runInitCommand, // Defined in cmd_init.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the railyard build version",
		Run:   runVersionCommand, // Defined in cmd_init.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file path (default railyard.yaml in the current directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Machine-readable JSON output")

	rootCmd.AddCommand(cutCmd)
	cutCmd.Flags().StringVar(&cutVersion, "version", "",
		"Explicit target version X.Y.Z (also accepts vX.Y.Z)")
	cutCmd.Flags().StringVar(&cutBump, "bump", "",
		"Bump kind from the latest release: patch, minor, or major")
	cutCmd.Flags().StringVar(&cutBase, "base", "",
		"Branch point override (default: the configured mainline)")
	cutCmd.Flags().BoolVar(&cutReplace, "replace", false,
		"Delete the superseded RC after the new branch is pushed")
	cutCmd.Flags().BoolVar(&cutKeep, "keep-previous", false,
		"Keep every existing RC branch (the default)")
	cutCmd.Flags().BoolVar(&cutNoManifest, "no-manifest", false,
		"Skip the version-marker commit on a new train")
	cutCmd.Flags().BoolVar(&cutDryRun, "dry-run", false,
		"Print the mutation plan without touching the remote")

	rootCmd.AddCommand(promoteCmd)
	promoteCmd.Flags().StringVar(&promoteRC, "rc", "",
		"Candidate branch release/X.Y.Z-rc.N (default: highest active RC)")
	promoteCmd.Flags().StringVar(&promoteMessage, "message", "",
		"Tag annotation and release notes")
	promoteCmd.Flags().BoolVar(&promoteAutoNext, "auto-next", false,
		"Cut the next minor train's rc.0 after the tag")
	promoteCmd.Flags().BoolVar(&promoteNoPublish, "no-publish", false,
		"Push the tag but skip the release-publishing call")
	promoteCmd.Flags().BoolVar(&promoteDryRun, "dry-run", false,
		"Print the mutation plan without touching the remote")

	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&statusVerbose, "verbose", "v", false,
		"List every candidate per train with tip commits")
	statusCmd.Flags().BoolVar(&statusShowCommits, "show-commits", false,
		"Resolve branch tips to commit subjects (extra remote calls)")
	statusCmd.Flags().IntVar(&statusMax, "max", 0,
		"Cap the trains listed, highest versions first (0 = all)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
