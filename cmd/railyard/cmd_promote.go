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
	"github.com/railyard-dev/railyard/cmd/railyard/internal/publish"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/train"
	"github.com/railyard-dev/railyard/pkg/ux"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runPromoteCommand tags a release candidate as the production release.
//
// # Description
//
// Re-reads the remote, selects the candidate (explicit --rc or the highest
// active RC), and plans tag creation plus the publishing call. Tags are
// never moved: a version that is already tagged at a different commit is a
// hard conflict. Under --auto-next the plan chains the next minor train's
// rc.0 cut after the tag lands.
//
// # Inputs
//
//   - cmd: Cobra command, carries the context.
//   - args: Unused.
//
// # Outputs
//
// Prints the created tag (or the plan under --dry-run) and exits with the
// mapped code.
func runPromoteCommand(cmd *cobra.Command, args []string) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		os.Exit(OutputResult(jsonOutput, "promote", start, nil, nil, err))
	}

	skipPublish := promoteNoPublish || config.Global.Publish.Type == "none"
	var pub publish.Publisher = publish.Nop{}
	if !skipPublish {
		gh := &publish.GH{Dir: ".", Repo: config.Global.Publish.Repo}
		if err := gh.CheckEnvironment(); err != nil {
			os.Exit(OutputResult(jsonOutput, "promote", start, nil, nil, err))
		}
		pub = gh
	}

	snap, err := scanRemote(ctx, store)
	if err != nil {
		os.Exit(OutputResult(jsonOutput, "promote", start, nil, nil, err))
	}

	promoter := train.Promoter{
		Mainline: config.Global.Mainline,
		Cutter: train.Cutter{Manifest: train.ManifestRef{
			Path: config.Global.Manifest.Path,
			Key:  config.Global.Manifest.Key,
		}},
	}
	promo, err := promoter.Plan(snap, train.PromoteOptions{
		RC:          promoteRC,
		Message:     promoteMessage,
		AutoNext:    promoteAutoNext,
		SkipPublish: skipPublish,
	})
	if err != nil {
		os.Exit(OutputResult(jsonOutput, "promote", start, nil, nil, err))
	}

	logger.Info("promote resolved",
		"branch", promo.Branch.String(),
		"tag", promo.Tag,
		"tag_skipped", promo.TagSkipped,
		"auto_next", promoteAutoNext,
		"dry_run", promoteDryRun)

	payload := PromoteResult{
		Branch:     promo.Branch.String(),
		Tag:        promo.Tag,
		TagSkipped: promo.TagSkipped,
		Steps:      promo.Describe(),
	}
	if promo.Next != nil {
		payload.NextBranch = promo.Next.Branch().String()
	}

	if promoteDryRun {
		if !jsonOutput {
			ux.Title(fmt.Sprintf("Dry run: promote %s", promo.Branch))
			for _, line := range promo.Describe() {
				ux.Step(line)
			}
			ux.Muted("No refs were touched.")
		}
		os.Exit(OutputDryRun(jsonOutput, "promote", start, payload))
	}

	var spin *ux.StepSpinner
	if !jsonOutput {
		total := len(promo.Plan.Steps)
		if promo.NextPlan != nil {
			total += len(promo.NextPlan.Steps)
		}
		spin = ux.NewStepSpinner(fmt.Sprintf("Promoting %s", promo.Branch), total)
		spin.Start()
		advance := func(train.Step) { spin.Advance() }
		promo.Plan.Progress = advance
		if promo.NextPlan != nil {
			promo.NextPlan.Progress = advance
		}
	}
	res, err := promo.Apply(ctx, store, pub)
	if spin != nil {
		spin.Stop()
	}
	if err == nil && !jsonOutput {
		ux.Success(fmt.Sprintf("Released %s from %s", promo.Tag, promo.Branch))
		if promo.Next != nil {
			ux.Info(fmt.Sprintf("Next train cut: %s", payload.NextBranch))
		}
	}
	os.Exit(OutputResult(jsonOutput, "promote", start, payload, res.Warnings, err))
}
