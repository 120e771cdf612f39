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
	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/refs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/resolve"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/train"
	"github.com/railyard-dev/railyard/pkg/ux"
	"github.com/railyard-dev/railyard/pkg/validation"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runCutCommand resolves the target train and pushes the next RC branch.
//
// # Description
//
// Re-reads the remote ref namespace, resolves the cut intent from the
// flags (explicit version > bump > continuation), builds the mutation
// plan, then either prints it (--dry-run) or applies it. The remote is
// the only state consulted; nothing local is trusted.
//
// # Inputs
//
//   - cmd: Cobra command, carries the context.
//   - args: Unused.
//
// # Outputs
//
// Prints the created branch (or the plan under --dry-run) and exits with
// the mapped code.
func runCutCommand(cmd *cobra.Command, args []string) {
	start := time.Now()

	if cutReplace && cutKeep {
		exitUsage("--replace and --keep-previous are mutually exclusive")
	}
	if cutVersion != "" && cutBump == "" && cutNoManifest {
		// Harmless but confused: a plain explicit version never writes
		// the marker in the first place. Warn, do not fail.
		ux.Warning("--no-manifest has no effect without --bump")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	intent := resolve.Intent{Bump: cutBump, BaseRef: cutBase}
	if cutVersion != "" {
		clean, err := validation.SanitizeVersion(cutVersion)
		if err != nil {
			os.Exit(OutputResult(jsonOutput, "cut", start, nil, nil,
				errs.E(errs.KindValidation, "cut.flags", err)))
		}
		v, err := refs.ParseVersion(clean)
		if err != nil {
			os.Exit(OutputResult(jsonOutput, "cut", start, nil, nil,
				errs.E(errs.KindValidation, "cut.flags", err)))
		}
		intent.Version = &v
	}

	store, err := openStore(ctx)
	if err != nil {
		os.Exit(OutputResult(jsonOutput, "cut", start, nil, nil, err))
	}

	snap, err := scanRemote(ctx, store)
	if err != nil {
		os.Exit(OutputResult(jsonOutput, "cut", start, nil, nil, err))
	}

	action, err := resolve.Cut(snap, intent, config.Global.Mainline)
	if err != nil {
		os.Exit(OutputResult(jsonOutput, "cut", start, nil, nil, err))
	}

	cutter := train.Cutter{Manifest: train.ManifestRef{
		Path: config.Global.Manifest.Path,
		Key:  config.Global.Manifest.Key,
	}}
	plan := cutter.Plan(snap, action, train.CutOptions{
		Replace:    cutReplace,
		SkipMarker: cutNoManifest,
	})

	branch := action.Branch()
	logger.Info("cut resolved",
		"branch", branch.String(),
		"base", action.BaseRef,
		"new_train", action.NewTrain,
		"dry_run", cutDryRun)

	payload := CutResult{
		Branch: branch.String(),
		Base:   action.BaseRef,
		Steps:  plan.Describe(),
	}

	if cutDryRun {
		if !jsonOutput {
			ux.Title(fmt.Sprintf("Dry run: cut %s", branch))
			for _, line := range plan.Describe() {
				ux.Step(line)
			}
			ux.Muted("No refs were touched.")
		}
		os.Exit(OutputDryRun(jsonOutput, "cut", start, payload))
	}

	var spin *ux.StepSpinner
	if !jsonOutput {
		spin = ux.NewStepSpinner(fmt.Sprintf("Cutting %s", branch), len(plan.Steps))
		spin.Start()
		plan.Progress = func(train.Step) { spin.Advance() }
	}
	res, err := plan.Apply(ctx, store, nil)
	if spin != nil {
		spin.Stop()
	}
	if err == nil && !jsonOutput {
		ux.Success(fmt.Sprintf("Cut %s from %s", branch, action.BaseRef))
		if action.NewTrain {
			ux.Info(fmt.Sprintf("New release train %s started at rc.%d",
				action.Version, action.RC))
		}
	}
	os.Exit(OutputResult(jsonOutput, "cut", start, payload, res.Warnings, err))
}

// openStore builds the remote ref store and verifies git is usable here.
func openStore(ctx context.Context) (*refs.GitStore, error) {
	store := refs.NewGitStore(".", config.Global.Remote)
	if err := store.CheckEnvironment(); err != nil {
		return nil, err
	}
	if err := store.CheckRepository(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// scanRemote re-reads the remote ref namespace behind a spinner. JSON mode
// stays silent so the envelope is the only thing on stdout.
func scanRemote(ctx context.Context, store *refs.GitStore) (*refs.Snapshot, error) {
	if jsonOutput {
		return refs.Scan(ctx, store)
	}
	spin := ux.NewSpinner("Reading remote refs").WithType(ux.SpinnerRail)
	spin.Start()
	defer spin.Stop()
	return refs.Scan(ctx, store)
}
