// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for security-critical values.
//
// This package contains validators for user-provided inputs that end up as
// git ref names or subprocess arguments. Using these validators prevents
// argument injection (a ref name starting with "-" becoming a git flag) and
// keeps malformed names out of the remote ref namespace.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// versionPattern matches a bare release version: X.Y.Z with non-negative
// integer components and no leading zeros.
var versionPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)$`)

// rcBranchPattern matches a release-candidate branch name exactly:
// release/X.Y.Z-rc.N.
var rcBranchPattern = regexp.MustCompile(`^release/(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)-rc\.(0|[1-9][0-9]*)$`)

// refNamePattern is a conservative subset of what git-check-ref-format
// allows. Enough for branch names, tag names and commit hashes without
// admitting anything a subprocess could mistake for a flag.
var refNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/\-]*$`)

// ValidateVersion validates a bare X.Y.Z version string.
//
// Valid versions have exactly three dot-separated non-negative integer
// components with no leading zeros and no prefix:
//
//   - "1.2.0", "0.1.0", "10.0.3" are valid
//   - "v1.2.0", "1.2", "1.2.0-rc.1", "01.2.0" are not
//
// Returns an error describing the expected shape if invalid.
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("version cannot be empty")
	}
	if !versionPattern.MatchString(version) {
		return fmt.Errorf("invalid version %q (expected X.Y.Z with non-negative integers)", version)
	}
	return nil
}

// ValidateRCBranch validates a release-candidate branch name.
//
// The name must match release/X.Y.Z-rc.N exactly. A branch missing the
// patch segment (release/1.2-rc.0) or the rc suffix is rejected before any
// remote call is made.
func ValidateRCBranch(name string) error {
	if name == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if !rcBranchPattern.MatchString(name) {
		return fmt.Errorf("invalid release-candidate branch %q (expected release/X.Y.Z-rc.N)", name)
	}
	return nil
}

// ValidateRefName validates a ref name or commit hash destined for a git
// subprocess argument.
//
// Rejects empty strings, anything starting with "-" (flag injection),
// whitespace, and the ".." sequence. This is stricter than git itself; the
// goal is safety, not full git-check-ref-format parity.
func ValidateRefName(ref string) error {
	if ref == "" {
		return fmt.Errorf("ref name cannot be empty")
	}
	if strings.Contains(ref, "..") {
		return fmt.Errorf("invalid ref name %q: must not contain %q", ref, "..")
	}
	if !refNamePattern.MatchString(ref) {
		return fmt.Errorf("invalid ref name %q", ref)
	}
	return nil
}

// SanitizeVersion normalizes and validates a version string.
//
// Trims whitespace and strips a single leading "v" so both "1.2.0" and
// "v1.2.0" are accepted on the command line. Returns the bare form.
func SanitizeVersion(version string) (string, error) {
	normalized := strings.TrimSpace(version)
	normalized = strings.TrimPrefix(normalized, "v")
	if err := ValidateVersion(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
