// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package publish records a promoted release with an external
// release-publishing service.
//
// The service is consumed through one narrow interface so promotion logic
// can be tested with an in-memory fake, and so the backing tool (gh today)
// stays swappable.
package publish

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
)

// Release is the published release record.
type Release struct {
	// Tag is the production tag name, e.g. "v1.2.0".
	Tag string

	// Title is the human-facing release title.
	Title string

	// Notes is the release body. Empty means the service's default.
	Notes string
}

// Publisher records a release with the external service.
type Publisher interface {
	// Publish creates the release record for an already-pushed tag.
	Publish(ctx context.Context, rel Release) error
}

// Nop is a Publisher that does nothing, used when publishing is disabled.
type Nop struct{}

// Publish is a no-op.
func (Nop) Publish(ctx context.Context, rel Release) error { return nil }

// GH publishes releases through the GitHub CLI.
type GH struct {
	// Dir is the repository working directory gh runs in.
	Dir string

	// Repo optionally pins the owner/name repository instead of letting
	// gh infer it from the git remote.
	Repo string
}

// CheckEnvironment verifies the gh binary is available.
func (g *GH) CheckEnvironment() error {
	if _, err := exec.LookPath("gh"); err != nil {
		return errs.Errorf(errs.KindEnvironment, "publish.gh",
			"gh not found in PATH (disable publishing or install the GitHub CLI): %v", err)
	}
	return nil
}

// Publish runs `gh release create` against the already-pushed tag.
// --verify-tag makes gh refuse to invent the tag if the push was lost.
func (g *GH) Publish(ctx context.Context, rel Release) error {
	args := []string{"release", "create", rel.Tag, "--verify-tag", "--title", rel.Title}
	if rel.Notes != "" {
		args = append(args, "--notes", rel.Notes)
	} else {
		args = append(args, "--generate-notes")
	}
	if g.Repo != "" {
		args = append(args, "--repo", g.Repo)
	}

	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = g.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		cmdErr := errs.NewCommandError("gh "+strings.Join(args, " "), exitCode, stderr.String(), err)
		if strings.Contains(strings.ToLower(stderr.String()), "already exists") {
			return errs.E(errs.KindConflict, "publish.gh", cmdErr)
		}
		return errs.E(errs.KindNetwork, "publish.gh", cmdErr)
	}
	return nil
}

// Recorder is an in-memory Publisher for tests.
//
// # Thread Safety
//
// Recorder is safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	// Published holds every release in publication order.
	Published []Release

	// Fail injects an error on the next Publish call when non-nil.
	Fail error
}

// Publish records the release, or returns the injected failure.
func (r *Recorder) Publish(ctx context.Context, rel Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		err := r.Fail
		r.Fail = nil
		return err
	}
	r.Published = append(r.Published, rel)
	return nil
}

// Count returns how many releases were published.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Published)
}
