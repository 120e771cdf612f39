// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resolve turns a remote snapshot plus caller intent into a single
// resolved release-train action.
//
// Resolve is a pure function: it never touches the remote, and two calls
// against the same snapshot yield identical actions. That makes the
// release-train arithmetic unit-testable without any git access, and it is
// why every invocation re-scans before resolving instead of trusting a
// cached action.
package resolve

import (
	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/refs"
)

// Intent is what the caller asked for. At most one of Version and Bump is
// usually set; when both are set, Version wins as the target number while
// Bump still contributes its new-train semantics (an operator forcing a
// specific version without losing marker handling).
type Intent struct {
	// Version is the explicit target version, or nil.
	Version *refs.Version

	// Bump is refs.BumpPatch/BumpMinor/BumpMajor, or empty.
	Bump string

	// BaseRef overrides the branch point (hotfix trains cut from a
	// non-mainline ref). Empty means the configured mainline.
	BaseRef string
}

// Action is the resolved outcome, consumed immediately by a mutator.
// Actions derived from a stale snapshot must be discarded, never replayed.
type Action struct {
	// Version is the train this action belongs to.
	Version refs.Version

	// RC is the release-candidate number to cut next.
	RC int

	// NewTrain is true when no RC branch for Version existed at scan time.
	NewTrain bool

	// UpdateMarker is true when the intent authorizes writing the bare
	// version into the project manifest (the bump path does; a plain
	// explicit version or continuation does not).
	UpdateMarker bool

	// BaseRef is the ref the new branch starts from.
	BaseRef string
}

// Branch returns the RC branch this action will create.
func (a Action) Branch() refs.RCBranch {
	return refs.RCBranch{Version: a.Version, N: a.RC}
}

// Cut resolves a cut intent against a snapshot.
//
// # Description
//
// Precedence: explicit version > explicit bump > continue current.
//
//   - Explicit version: the target is taken verbatim. Whether this starts
//     a new train depends only on the snapshot (no RCs for that version
//     yet means new train).
//   - Explicit bump: the target is the latest production version advanced
//     by the named component. The bump path always marks a new train and
//     authorizes the version-marker update. With no production release
//     yet, the bump advances from 0.0.0.
//   - Continue: the target is the highest active train. Fails with a
//     precondition error when no train is active, since no version can be
//     inferred.
//
// The RC number follows one uniform rule: a new train with no existing RC
// branches starts at 0; anything else is the observed maximum plus one.
//
// # Inputs
//
//   - snap: Current remote snapshot. Must not be nil.
//   - intent: Caller intent.
//   - mainline: Default base ref when the intent has none.
//
// # Outputs
//
//   - Action: The resolved action.
//   - error: Non-nil when no target version can be inferred or the bump
//     kind is unknown.
func Cut(snap *refs.Snapshot, intent Intent, mainline string) (Action, error) {
	action := Action{BaseRef: intent.BaseRef}
	if action.BaseRef == "" {
		action.BaseRef = mainline
	}

	switch {
	case intent.Version != nil:
		action.Version = *intent.Version
		// Bump alongside an explicit version contributes only its
		// new-train semantics; the number itself comes from the caller.
		action.UpdateMarker = intent.Bump != ""

	case intent.Bump != "":
		base := refs.Version{}
		if snap.Latest != nil {
			base = *snap.Latest
		}
		bumped, err := base.Bumped(intent.Bump)
		if err != nil {
			return Action{}, errs.E(errs.KindValidation, "resolve.bump", err)
		}
		action.Version = bumped
		action.UpdateMarker = true

	default:
		if err := refs.GuardActiveTrain(snap); err != nil {
			return Action{}, err
		}
		current, _ := snap.HighestTrain()
		action.Version = current
	}

	max, active := snap.MaxRC(action.Version)
	action.NewTrain = !active
	if active {
		action.RC = max + 1
	} else {
		action.RC = 0
	}

	return action, nil
}

// Continue resolves the read-only "what would happen next" action used by
// the status reporter. Identical to Cut with an empty intent.
func Continue(snap *refs.Snapshot, mainline string) (Action, error) {
	return Cut(snap, Intent{}, mainline)
}

// NextTrain resolves the auto-chained train cut after a promotion: a minor
// bump from the version that was just promoted, starting at rc.0 unless
// branches for it already exist.
func NextTrain(snap *refs.Snapshot, promoted refs.Version, mainline string) (Action, error) {
	next, err := promoted.Bumped(refs.BumpMinor)
	if err != nil {
		return Action{}, errs.E(errs.KindInternal, "resolve.next_train", err)
	}
	return Cut(snap, Intent{Version: &next, Bump: refs.BumpMinor}, mainline)
}
