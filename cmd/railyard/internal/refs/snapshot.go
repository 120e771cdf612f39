// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refs

import (
	"context"
	"sort"
	"strings"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
)

// Snapshot is the structured view of the remote ref namespace at one point
// in time. It is derived, never persisted, and recomputed on every
// invocation: stale snapshots must not drive mutations.
type Snapshot struct {
	// Latest is the highest production version tagged on the remote, or
	// nil when no production release exists yet.
	Latest *Version

	// Trains maps each version with at least one RC branch to the highest
	// RC number observed for it. RC numbers are not necessarily contiguous
	// if intermediate branches were deleted out-of-band.
	Trains map[Version]int

	// Branches maps every RC branch to its tip commit.
	Branches map[RCBranch]string

	// Tags maps every production version to its (peeled) tagged commit.
	Tags map[Version]string
}

// Scan reads the remote ref listing through the store and builds a
// Snapshot.
//
// # Description
//
// Tolerates an empty repository: no tags and no RC branches yield a
// snapshot with Latest == nil and no active trains. Non-release refs
// (feature branches, unrelated tags) are ignored. Scan never mutates
// anything; a network failure surfaces as errs.KindNetwork and no snapshot
// is returned.
//
// # Inputs
//
//   - ctx: Context for the remote listing call.
//   - store: Remote ref store. Must not be nil.
//
// # Outputs
//
//   - *Snapshot: Fully populated snapshot.
//   - error: Non-nil if the remote listing failed.
func Scan(ctx context.Context, store Store) (*Snapshot, error) {
	list, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Trains:   make(map[Version]int),
		Branches: make(map[RCBranch]string),
		Tags:     make(map[Version]string),
	}

	for _, ref := range list {
		switch {
		case strings.HasPrefix(ref.Name, TagPrefix):
			v, ok := ParseTag(strings.TrimPrefix(ref.Name, TagPrefix))
			if !ok {
				continue
			}
			snap.Tags[v] = ref.SHA
			if snap.Latest == nil || snap.Latest.Less(v) {
				latest := v
				snap.Latest = &latest
			}

		case strings.HasPrefix(ref.Name, HeadPrefix):
			rc, ok := ParseRCBranch(strings.TrimPrefix(ref.Name, HeadPrefix))
			if !ok {
				continue
			}
			snap.Branches[rc] = ref.SHA
			if max, seen := snap.Trains[rc.Version]; !seen || rc.N > max {
				snap.Trains[rc.Version] = rc.N
			}
		}
	}

	return snap, nil
}

// ActiveVersions returns the versions with at least one RC branch, highest
// first.
func (s *Snapshot) ActiveVersions() []Version {
	versions := make([]Version, 0, len(s.Trains))
	for v := range s.Trains {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[j].Less(versions[i])
	})
	return versions
}

// HighestTrain returns the highest active version, or ok=false when no
// train is active.
func (s *Snapshot) HighestTrain() (Version, bool) {
	versions := s.ActiveVersions()
	if len(versions) == 0 {
		return Version{}, false
	}
	return versions[0], true
}

// MaxRC returns the highest RC number observed for a version, or ok=false
// when the version has no RC branches.
func (s *Snapshot) MaxRC(v Version) (int, bool) {
	n, ok := s.Trains[v]
	return n, ok
}

// HighestRC returns the highest RC branch of the highest active train.
// This is the branch promote selects when none is named explicitly.
func (s *Snapshot) HighestRC() (RCBranch, bool) {
	v, ok := s.HighestTrain()
	if !ok {
		return RCBranch{}, false
	}
	return RCBranch{Version: v, N: s.Trains[v]}, true
}

// TrainBranches returns every RC branch of one version, lowest RC first.
func (s *Snapshot) TrainBranches(v Version) []RCBranch {
	var branches []RCBranch
	for rc := range s.Branches {
		if rc.Version == v {
			branches = append(branches, rc)
		}
	}
	sort.Slice(branches, func(i, j int) bool {
		return branches[i].N < branches[j].N
	})
	return branches
}

// TagExists reports whether a production tag for the version exists.
func (s *Snapshot) TagExists(v Version) bool {
	_, ok := s.Tags[v]
	return ok
}

// Equal reports whether two snapshots describe the same remote state.
// Used by dry-run tests to prove the remote was left untouched.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if (s.Latest == nil) != (other.Latest == nil) {
		return false
	}
	if s.Latest != nil && *s.Latest != *other.Latest {
		return false
	}
	if len(s.Branches) != len(other.Branches) || len(s.Tags) != len(other.Tags) {
		return false
	}
	for rc, sha := range s.Branches {
		if other.Branches[rc] != sha {
			return false
		}
	}
	for v, sha := range s.Tags {
		if other.Tags[v] != sha {
			return false
		}
	}
	return true
}

// GuardActiveTrain returns the precondition failure for continue-mode
// resolution when no train is active. Kept here so the resolver and the
// status reporter describe the condition identically.
func GuardActiveTrain(s *Snapshot) error {
	if len(s.Trains) == 0 {
		return errs.Errorf(errs.KindPrecondition, "refs.snapshot",
			"no active release train (no release/X.Y.Z-rc.N branches on the remote)")
	}
	return nil
}
