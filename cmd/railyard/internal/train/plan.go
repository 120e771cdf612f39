// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package train applies resolved release-train actions to the remote:
// cutting RC branches (the mutator) and promoting an RC to a production
// release (the committer).
//
// Every mutation is planned first and applied second. The plan is an
// ordered list of steps; dry-run prints the same plan a real run executes,
// which is what makes the two provably equivalent.
package train

import (
	"context"
	"fmt"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/publish"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/refs"
)

// StepKind identifies one remote mutation in a plan.
type StepKind int

const (
	// StepCreateBranch pushes a new RC branch.
	StepCreateBranch StepKind = iota

	// StepDeleteBranch deletes a superseded RC branch. Delete failures
	// degrade to warnings; the extra branch lingers until the next run.
	StepDeleteBranch

	// StepCreateTag pushes an annotated production tag.
	StepCreateTag

	// StepPublish records the release with the publishing service.
	StepPublish
)

// String returns the kind's plan-output name.
func (k StepKind) String() string {
	switch k {
	case StepCreateBranch:
		return "create-branch"
	case StepDeleteBranch:
		return "delete-branch"
	case StepCreateTag:
		return "create-tag"
	case StepPublish:
		return "publish"
	default:
		return "unknown"
	}
}

// Step is one remote mutation. Fields are populated per kind.
type Step struct {
	Kind StepKind

	// Branch is the short branch name for branch steps, or the tagged
	// branch for StepCreateTag.
	Branch string

	// Base is the branch point for StepCreateBranch.
	Base string

	// Marker is the optional version-marker commit for StepCreateBranch.
	Marker *refs.MarkerCommit

	// Tag is the tag name for StepCreateTag and StepPublish.
	Tag string

	// Message is the tag annotation for StepCreateTag.
	Message string

	// Title and Notes describe the published release for StepPublish.
	Title string
	Notes string
}

// Describe returns the one-line form printed by dry-run and logged by
// real runs.
func (s Step) Describe() string {
	switch s.Kind {
	case StepCreateBranch:
		if s.Marker != nil {
			return fmt.Sprintf("create-branch %s from %s (version marker %s in %s)",
				s.Branch, s.Base, s.Marker.Version, s.Marker.Path)
		}
		return fmt.Sprintf("create-branch %s from %s", s.Branch, s.Base)
	case StepDeleteBranch:
		return fmt.Sprintf("delete-branch %s", s.Branch)
	case StepCreateTag:
		return fmt.Sprintf("create-tag %s at tip of %s", s.Tag, s.Branch)
	case StepPublish:
		return fmt.Sprintf("publish %s", s.Tag)
	default:
		return "unknown step"
	}
}

// Plan is an ordered mutation sequence. Steps apply strictly in order;
// creations always precede the deletions they supersede so there is never
// a window with zero live RCs for a version.
type Plan struct {
	Steps []Step

	// Progress, when non-nil, is called after each step completes
	// (including steps that degraded to a warning). CLI callers hook a
	// terminal indicator here; library callers leave it nil.
	Progress func(Step)
}

// Describe returns the full plan, one step per line.
func (p Plan) Describe() []string {
	lines := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		lines[i] = s.Describe()
	}
	return lines
}

// Result reports what an applied plan actually did.
type Result struct {
	// Applied lists the steps that completed, in order.
	Applied []Step

	// Warnings holds partial-success notes: deletions that failed after
	// the preceding creation already succeeded. State is still valid; the
	// superseded branch lingers for manual or next-run cleanup.
	Warnings []string
}

// Apply executes the plan against the store and publisher.
//
// # Description
//
// Steps run strictly in order. A failed creation (branch, tag) or publish
// aborts immediately with no rollback of earlier steps: the resolver
// re-derives everything from the remote on the next run, so re-running is
// the recovery path. Two failures degrade to warnings instead of
// aborting: a deletion that did not go through (the superseded branch
// lingers) and a publish that conflicts with an existing release (a
// prior interrupted run already published it). Nothing is ever
// force-overwritten.
//
// # Inputs
//
//   - ctx: Context for remote calls.
//   - store: Remote ref store. Must not be nil.
//   - pub: Publisher for StepPublish. May be nil when the plan has no
//     publish step.
//
// # Outputs
//
//   - Result: Applied steps and any partial-success warnings.
//   - error: Non-nil when a non-deletion step failed.
func (p Plan) Apply(ctx context.Context, store refs.Store, pub publish.Publisher) (Result, error) {
	var res Result

	for _, step := range p.Steps {
		var err error
		switch step.Kind {
		case StepCreateBranch:
			err = store.CreateBranch(ctx, refs.CreateBranchRequest{
				Name:   step.Branch,
				Base:   step.Base,
				Marker: step.Marker,
			})
		case StepDeleteBranch:
			err = store.DeleteBranch(ctx, step.Branch)
		case StepCreateTag:
			err = store.CreateTag(ctx, refs.CreateTagRequest{
				Name:    step.Tag,
				Branch:  step.Branch,
				Message: step.Message,
			})
		case StepPublish:
			if pub == nil {
				err = errs.Errorf(errs.KindInternal, "train.apply", "no publisher configured")
			} else {
				err = pub.Publish(ctx, publish.Release{Tag: step.Tag, Title: step.Title, Notes: step.Notes})
			}
		default:
			err = errs.Errorf(errs.KindInternal, "train.apply", "unknown step kind %d", step.Kind)
		}

		if err != nil {
			if step.Kind == StepDeleteBranch {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("could not delete %s (branch lingers; clean up manually or on the next run): %v",
						step.Branch, err))
				if p.Progress != nil {
					p.Progress(step)
				}
				continue
			}
			// A release that already exists means a prior interrupted run
			// got this far. The remaining steps still need to happen.
			if step.Kind == StepPublish && errs.IsKind(err, errs.KindConflict) {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("release %s already published: %v", step.Tag, err))
				if p.Progress != nil {
					p.Progress(step)
				}
				continue
			}
			return res, err
		}
		res.Applied = append(res.Applied, step)
		if p.Progress != nil {
			p.Progress(step)
		}
	}

	return res, nil
}
