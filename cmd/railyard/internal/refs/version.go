// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package refs models the remote ref namespace railyard operates on:
// production tags (vX.Y.Z), release-candidate branches
// (release/X.Y.Z-rc.N) and the snapshot derived from them.
//
// The package exposes a narrow Store interface over the remote so the
// resolver and mutators can be exercised against an in-memory fake, plus a
// git-backed implementation that shells out the way every other railyard
// subprocess call does.
package refs

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/railyard-dev/railyard/pkg/validation"
)

// Ref name prefixes on the remote.
const (
	// TagPrefix is the ref namespace for production tags.
	TagPrefix = "refs/tags/"

	// HeadPrefix is the ref namespace for branches.
	HeadPrefix = "refs/heads/"

	// RCPrefix starts every release-candidate branch name.
	RCPrefix = "release/"
)

// Version is a production release version X.Y.Z.
//
// The zero value is 0.0.0. Version is comparable and usable as a map key.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a bare X.Y.Z string.
//
// Returns an error for anything that is not exactly three non-negative
// integer components (no "v" prefix, no pre-release suffix).
func ParseVersion(s string) (Version, error) {
	if err := validation.ValidateVersion(s); err != nil {
		return Version{}, err
	}
	parts := strings.SplitN(s, ".", 3)
	major, _ := strconv.Atoi(parts[0])
	minor, _ := strconv.Atoi(parts[1])
	patch, _ := strconv.Atoi(parts[2])
	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// ParseTag parses a production tag name vX.Y.Z.
//
// Returns ok=false for anything else, including malformed tags like
// "v1.2" and unrelated tags like "nightly".
func ParseTag(name string) (Version, bool) {
	if !strings.HasPrefix(name, "v") {
		return Version{}, false
	}
	v, err := ParseVersion(strings.TrimPrefix(name, "v"))
	if err != nil {
		return Version{}, false
	}
	return v, true
}

// String returns the bare form X.Y.Z.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// TagName returns the production tag form vX.Y.Z.
func (v Version) TagName() string {
	return "v" + v.String()
}

// Compare orders versions. Returns -1, 0 or +1 like semver.Compare.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.TagName(), other.TagName())
}

// Less reports whether v orders before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Bump kinds for advancing a version by one component.
const (
	BumpPatch = "patch"
	BumpMinor = "minor"
	BumpMajor = "major"
)

// Bumped returns the version advanced by the named component.
//
// patch: X.Y.(Z+1); minor: X.(Y+1).0; major: (X+1).0.0.
// Returns an error for an unknown kind.
func (v Version) Bumped(kind string) (Version, error) {
	switch kind {
	case BumpPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	case BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}, nil
	case BumpMajor:
		return Version{Major: v.Major + 1}, nil
	default:
		return Version{}, fmt.Errorf("unknown bump kind %q (expected patch, minor or major)", kind)
	}
}

// RCBranch identifies a release-candidate branch release/X.Y.Z-rc.N.
type RCBranch struct {
	Version Version
	N       int
}

// ParseRCBranch parses a short branch name of the form release/X.Y.Z-rc.N.
//
// Returns ok=false for any other branch name. Malformed names under the
// release/ prefix (e.g. release/1.2-rc.0) are not RC branches.
func ParseRCBranch(name string) (RCBranch, bool) {
	if validation.ValidateRCBranch(name) != nil {
		return RCBranch{}, false
	}
	rest := strings.TrimPrefix(name, RCPrefix)
	verPart, rcPart, _ := strings.Cut(rest, "-rc.")
	v, err := ParseVersion(verPart)
	if err != nil {
		return RCBranch{}, false
	}
	n, err := strconv.Atoi(rcPart)
	if err != nil || n < 0 {
		return RCBranch{}, false
	}
	return RCBranch{Version: v, N: n}, true
}

// String returns the short branch name release/X.Y.Z-rc.N.
func (b RCBranch) String() string {
	return fmt.Sprintf("%s%s-rc.%d", RCPrefix, b.Version, b.N)
}

// RefName returns the full ref name refs/heads/release/X.Y.Z-rc.N.
func (b RCBranch) RefName() string {
	return HeadPrefix + b.String()
}
