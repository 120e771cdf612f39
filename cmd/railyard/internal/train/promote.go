// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package train

import (
	"context"
	"fmt"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/publish"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/refs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/resolve"
	"github.com/railyard-dev/railyard/pkg/validation"
)

// PromoteOptions are the caller's choices for one promotion.
type PromoteOptions struct {
	// RC names the candidate branch explicitly (release/X.Y.Z-rc.N).
	// Empty selects the highest RC of the highest active train.
	RC string

	// Message is the tag annotation and release notes. Empty gets a
	// generated "Release vX.Y.Z" message.
	Message string

	// AutoNext chains the next minor train's rc.0 cut after the tag.
	AutoNext bool

	// SkipPublish suppresses the publishing step; the tag is still pushed.
	SkipPublish bool
}

// Promoter plans promotions: RC branch to production tag, optional
// publish, optional chained next-train cut.
type Promoter struct {
	// Mainline is the configured default branch point for chained cuts.
	Mainline string

	// Cutter plans the chained cut when AutoNext is set.
	Cutter Cutter
}

// Promotion is a planned promotion, ready to apply or print.
type Promotion struct {
	// Branch is the candidate being promoted.
	Branch refs.RCBranch

	// Tip is the candidate's commit at plan time. The tag lands here.
	Tip string

	// Tag is the production tag name.
	Tag string

	// TagSkipped is true when the tag already exists at the candidate's
	// tip and the run is completing a previously interrupted promotion.
	// The publish step is still planned so the retry finishes it.
	TagSkipped bool

	// Plan holds the tag and publish steps.
	Plan Plan

	// Next and NextPlan describe the chained cut, nil without AutoNext.
	Next     *resolve.Action
	NextPlan *Plan
}

// Plan resolves a promotion against the snapshot.
//
// # Description
//
// The candidate branch name is validated for shape before anything else;
// a malformed name never reaches the remote. Explicit candidates must
// exist on the remote, and an unset candidate falls back to the highest
// RC of the highest active train.
//
// An existing production tag for the candidate's version is a conflict,
// with one carve-out: under AutoNext, a tag already sitting at the
// candidate's exact tip means a prior run was interrupted after tagging.
// The tag step is skipped and the run completes whatever remains, the
// publish and the chained cut. A tag at any other commit is always a
// conflict; tags are never moved.
//
// # Inputs
//
//   - snap: Snapshot the promotion is resolved against.
//   - opts: Candidate, message and chaining choices.
//
// # Outputs
//
//   - Promotion: The planned promotion.
//   - error: Validation, precondition or conflict failure.
func (p Promoter) Plan(snap *refs.Snapshot, opts PromoteOptions) (Promotion, error) {
	const op = "train.promote"

	var branch refs.RCBranch
	if opts.RC != "" {
		if err := validation.ValidateRCBranch(opts.RC); err != nil {
			return Promotion{}, errs.E(errs.KindValidation, op, err)
		}
		parsed, ok := refs.ParseRCBranch(opts.RC)
		if !ok {
			return Promotion{}, errs.Errorf(errs.KindValidation, op,
				"invalid release-candidate branch %q", opts.RC)
		}
		if _, exists := snap.Branches[parsed]; !exists {
			return Promotion{}, errs.Errorf(errs.KindPrecondition, op,
				"branch %s does not exist on the remote", parsed)
		}
		branch = parsed
	} else {
		selected, ok := snap.HighestRC()
		if !ok {
			return Promotion{}, errs.Errorf(errs.KindPrecondition, op,
				"no active release train to promote (no release/X.Y.Z-rc.N branches on the remote)")
		}
		branch = selected
	}

	pr := Promotion{
		Branch: branch,
		Tip:    snap.Branches[branch],
		Tag:    branch.Version.TagName(),
	}

	message := opts.Message
	if message == "" {
		message = fmt.Sprintf("Release %s", pr.Tag)
	}

	if tagged, exists := snap.Tags[branch.Version]; exists {
		if !opts.AutoNext || tagged != pr.Tip {
			return Promotion{}, errs.Errorf(errs.KindConflict, op,
				"tag %s already exists (tags are never moved; pick a new version)", pr.Tag)
		}
		// Interrupted run: the tag already marks this exact candidate.
		pr.TagSkipped = true
	}

	if !pr.TagSkipped {
		pr.Plan.Steps = append(pr.Plan.Steps, Step{
			Kind:    StepCreateTag,
			Tag:     pr.Tag,
			Branch:  branch.String(),
			Message: message,
		})
	}
	if !opts.SkipPublish {
		pr.Plan.Steps = append(pr.Plan.Steps, Step{
			Kind:  StepPublish,
			Tag:   pr.Tag,
			Title: pr.Tag,
			Notes: message,
		})
	}

	if opts.AutoNext {
		next, err := resolve.NextTrain(snap, branch.Version, p.Mainline)
		if err != nil {
			return Promotion{}, err
		}
		nextPlan := p.Cutter.Plan(snap, next, CutOptions{})
		pr.Next = &next
		pr.NextPlan = &nextPlan
	}

	return pr, nil
}

// Describe returns the full promotion, one step per line, in apply order.
func (pr Promotion) Describe() []string {
	var lines []string
	if pr.TagSkipped {
		lines = append(lines, fmt.Sprintf("skip create-tag %s (already at tip of %s)", pr.Tag, pr.Branch))
	}
	lines = append(lines, pr.Plan.Describe()...)
	if pr.NextPlan != nil {
		lines = append(lines, pr.NextPlan.Describe()...)
	}
	return lines
}

// Apply executes the promotion: tag and publish first, then the chained
// cut. A chained-cut failure after a successful tag does not undo the
// tag; the error says so and the next run picks the train up from the
// remote state.
func (pr Promotion) Apply(ctx context.Context, store refs.Store, pub publish.Publisher) (Result, error) {
	res, err := pr.Plan.Apply(ctx, store, pub)
	if err != nil {
		return res, err
	}

	if pr.NextPlan != nil {
		chained, err := pr.NextPlan.Apply(ctx, store, pub)
		res.Applied = append(res.Applied, chained.Applied...)
		res.Warnings = append(res.Warnings, chained.Warnings...)
		if err != nil {
			return res, fmt.Errorf("release %s stands but the chained cut failed: %w", pr.Tag, err)
		}
	}

	return res, nil
}
