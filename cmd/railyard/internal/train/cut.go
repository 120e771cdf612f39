// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package train

import (
	"fmt"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/refs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/resolve"
)

// ManifestRef locates the version marker inside the project manifest.
// An empty Path disables marker updates entirely.
type ManifestRef struct {
	Path string
	Key  string
}

// CutOptions are the caller's choices for one cut.
type CutOptions struct {
	// Replace deletes the superseded RC branch of the same train after
	// the new branch is pushed, and cleans up an abandoned train when the
	// target version moved past it.
	Replace bool

	// SkipMarker suppresses the version-marker commit even when the
	// resolved action authorizes one.
	SkipMarker bool
}

// Cutter plans cut actions: the train mutator.
type Cutter struct {
	// Manifest locates the version marker. Zero value disables it.
	Manifest ManifestRef
}

// Plan turns a resolved cut action into an ordered mutation plan.
//
// # Description
//
// The new branch is always created first. Deletions, when requested, come
// strictly after: first the immediately preceding RC of the same train,
// then (if the explicit version moved past the previously active train)
// every branch of the abandoned train. This ordering guarantees there is
// never a window with zero live RCs for an active version.
//
// The version-marker commit rides on the branch creation and only happens
// for the first RC of a new train, when the intent authorized it and the
// manifest is configured.
//
// # Inputs
//
//   - snap: The snapshot the action was resolved from.
//   - action: The resolved action. Must come from the same snapshot;
//     stale actions produce plans that lose their races.
//   - opts: Replace and marker choices.
//
// # Outputs
//
//   - Plan: The ordered mutation sequence.
func (c Cutter) Plan(snap *refs.Snapshot, action resolve.Action, opts CutOptions) Plan {
	create := Step{
		Kind:   StepCreateBranch,
		Branch: action.Branch().String(),
		Base:   action.BaseRef,
	}
	if action.NewTrain && action.RC == 0 && action.UpdateMarker && !opts.SkipMarker && c.Manifest.Path != "" {
		create.Marker = &refs.MarkerCommit{
			Path:    c.Manifest.Path,
			Key:     c.Manifest.Key,
			Version: action.Version.String(),
			Message: fmt.Sprintf("Set version to %s for the new release train", action.Version),
		}
	}

	plan := Plan{Steps: []Step{create}}
	if !opts.Replace {
		return plan
	}

	// Superseded predecessor within the same train.
	if max, active := snap.MaxRC(action.Version); active {
		plan.Steps = append(plan.Steps, Step{
			Kind:   StepDeleteBranch,
			Branch: refs.RCBranch{Version: action.Version, N: max}.String(),
		})
	}

	// Version-override cleanup: the previously active train is abandoned
	// when the target version differs from it.
	if prev, ok := snap.HighestTrain(); ok && prev != action.Version {
		for _, rc := range snap.TrainBranches(prev) {
			plan.Steps = append(plan.Steps, Step{
				Kind:   StepDeleteBranch,
				Branch: rc.String(),
			})
		}
	}

	return plan
}
