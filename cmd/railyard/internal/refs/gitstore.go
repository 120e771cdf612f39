// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/manifest"
	"github.com/railyard-dev/railyard/pkg/validation"
)

// GitStore implements Store against a real remote by shelling out to git.
//
// The local clone is only scratch space: FETCH_HEAD, temporary worktrees
// and locally created tag objects are private to one invocation and never
// authoritative. Every existence check re-reads the remote (ls-remote)
// immediately before the mutation it guards, and the push itself is the
// final compare-and-swap: a concurrent winner makes the push fail rather
// than overwrite.
//
// # Thread Safety
//
// GitStore is safe for concurrent use, but concurrent invocations of the
// CLI itself are synchronized only by the remote (see package doc).
type GitStore struct {
	dir    string
	remote string
}

// NewGitStore creates a GitStore for the repository at dir, talking to the
// named remote (usually "origin").
func NewGitStore(dir, remote string) *GitStore {
	return &GitStore{dir: dir, remote: remote}
}

// CheckEnvironment verifies the git binary is available.
func (g *GitStore) CheckEnvironment() error {
	if _, err := exec.LookPath("git"); err != nil {
		return errs.Errorf(errs.KindEnvironment, "refs.git",
			"git not found in PATH: %v", err)
	}
	return nil
}

// CheckRepository verifies dir is inside a git work tree with the
// configured remote.
func (g *GitStore) CheckRepository(ctx context.Context) error {
	if _, err := g.run(ctx, g.dir, "rev-parse", "--git-dir"); err != nil {
		return errs.Errorf(errs.KindPrecondition, "refs.git",
			"%s is not a git repository", g.dir)
	}
	if _, err := g.run(ctx, g.dir, "remote", "get-url", g.remote); err != nil {
		return errs.Errorf(errs.KindPrecondition, "refs.git",
			"remote %q is not configured", g.remote)
	}
	return nil
}

// List returns every branch and tag on the remote.
//
// One ls-remote call covers heads and tags, so the listing is a single
// consistent read: either the whole thing arrives or the call fails.
// Annotated tags appear twice (tag object plus peeled "^{}" entry); the
// peeled commit wins.
func (g *GitStore) List(ctx context.Context) ([]Ref, error) {
	out, err := g.run(ctx, g.dir, "ls-remote", "--heads", "--tags", g.remote)
	if err != nil {
		return nil, g.classify("refs.list", err)
	}

	byName := make(map[string]string)
	var order []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		sha, name, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		if peeled := strings.TrimSuffix(name, "^{}"); peeled != name {
			// Peeled entry for an annotated tag: overwrite with the commit.
			byName[peeled] = sha
			continue
		}
		if _, seen := byName[name]; !seen {
			order = append(order, name)
		}
		byName[name] = sha
	}

	list := make([]Ref, 0, len(order))
	for _, name := range order {
		list = append(list, Ref{Name: name, SHA: byName[name]})
	}
	return list, nil
}

// CreateBranch creates req.Name on the remote from req.Base, optionally
// committing a version-marker update onto it first.
//
// Order of operations: re-check name absence, fetch the base, build the
// tip (directly or through a temporary worktree for the marker commit),
// push. A push rejection means a concurrent writer won; the caller must
// re-scan and re-run, never retry the stale request.
func (g *GitStore) CreateBranch(ctx context.Context, req CreateBranchRequest) error {
	if err := validation.ValidateRCBranch(req.Name); err != nil {
		return errs.E(errs.KindValidation, "refs.create_branch", err)
	}
	if err := validation.ValidateRefName(req.Base); err != nil {
		return errs.E(errs.KindValidation, "refs.create_branch", err)
	}

	// Check-then-act: re-read the remote immediately before mutating.
	exists, err := g.refExists(ctx, HeadPrefix+req.Name)
	if err != nil {
		return err
	}
	if exists {
		return errs.Errorf(errs.KindConflict, "refs.create_branch",
			"branch %s already exists on %s", req.Name, g.remote)
	}

	baseSHA, err := g.fetchRef(ctx, req.Base)
	if err != nil {
		return err
	}

	tip := baseSHA
	if req.Marker != nil {
		tip, err = g.commitMarker(ctx, baseSHA, req.Marker)
		if err != nil {
			return err
		}
	}

	if _, err := g.run(ctx, g.dir, "push", g.remote, tip+":"+HeadPrefix+req.Name); err != nil {
		return g.classify("refs.create_branch", err)
	}
	return nil
}

// DeleteBranch deletes a remote branch by short name.
func (g *GitStore) DeleteBranch(ctx context.Context, name string) error {
	if err := validation.ValidateRCBranch(name); err != nil {
		return errs.E(errs.KindValidation, "refs.delete_branch", err)
	}
	if _, err := g.run(ctx, g.dir, "push", g.remote, "--delete", HeadPrefix+name); err != nil {
		return g.classify("refs.delete_branch", err)
	}
	return nil
}

// CreateTag creates an annotated tag at the current remote tip of
// req.Branch and pushes it.
//
// The local tag object is scratch (forced), the remote push is the guard:
// git refuses to update an existing remote tag, which is the sole
// duplicate-release protection.
func (g *GitStore) CreateTag(ctx context.Context, req CreateTagRequest) error {
	if err := validation.ValidateRefName(req.Name); err != nil {
		return errs.E(errs.KindValidation, "refs.create_tag", err)
	}
	if err := validation.ValidateRCBranch(req.Branch); err != nil {
		return errs.E(errs.KindValidation, "refs.create_tag", err)
	}

	exists, err := g.refExists(ctx, TagPrefix+req.Name)
	if err != nil {
		return err
	}
	if exists {
		return errs.Errorf(errs.KindConflict, "refs.create_tag",
			"tag %s already exists on %s", req.Name, g.remote)
	}

	tip, err := g.fetchRef(ctx, HeadPrefix+req.Branch)
	if err != nil {
		return err
	}

	message := req.Message
	if message == "" {
		message = fmt.Sprintf("Release %s", req.Name)
	}
	if _, err := g.run(ctx, g.dir, "tag", "-a", "-f", "-m", message, req.Name, tip); err != nil {
		return errs.E(errs.KindInternal, "refs.create_tag", err)
	}

	if _, err := g.run(ctx, g.dir, "push", g.remote, TagPrefix+req.Name); err != nil {
		return g.classify("refs.create_tag", err)
	}
	return nil
}

// Subjects returns "shorthash subject" lines for the given commits.
//
// The commits were fetched by fetchRef or a prior fetch of the release
// namespace; anything still unknown locally is skipped rather than
// reported as an error, since status output degrades gracefully.
func (g *GitStore) Subjects(ctx context.Context, shas []string) (map[string]string, error) {
	// One fetch for the whole release namespace, then read-only lookups.
	refspec := fmt.Sprintf("+%s%s*:refs/remotes/%s/%s*", HeadPrefix, RCPrefix, g.remote, RCPrefix)
	if _, err := g.run(ctx, g.dir, "fetch", "--quiet", g.remote, refspec); err != nil {
		return nil, g.classify("refs.subjects", err)
	}

	var mu sync.Mutex
	results := make(map[string]string, len(shas))

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(4)
	for _, sha := range shas {
		sha := sha
		grp.Go(func() error {
			out, err := g.run(gctx, g.dir, "show", "-s", "--format=%h %s", sha)
			if err != nil {
				// Object not reachable locally; skip.
				return nil
			}
			mu.Lock()
			results[sha] = strings.TrimSpace(out)
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// refExists asks the remote whether a fully-qualified ref exists.
func (g *GitStore) refExists(ctx context.Context, fullRef string) (bool, error) {
	out, err := g.run(ctx, g.dir, "ls-remote", g.remote, fullRef)
	if err != nil {
		return false, g.classify("refs.exists", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// fetchRef fetches a ref (or commit) from the remote and returns the
// commit SHA it resolved to.
func (g *GitStore) fetchRef(ctx context.Context, ref string) (string, error) {
	if _, err := g.run(ctx, g.dir, "fetch", "--quiet", g.remote, ref); err != nil {
		return "", g.classify("refs.fetch", err)
	}
	out, err := g.run(ctx, g.dir, "rev-parse", "FETCH_HEAD")
	if err != nil {
		return "", errs.E(errs.KindInternal, "refs.fetch", err)
	}
	return strings.TrimSpace(out), nil
}

// commitMarker builds a commit on top of base carrying the version-marker
// update, using a temporary detached worktree so the user's checkout is
// never touched. Returns the new commit SHA.
func (g *GitStore) commitMarker(ctx context.Context, base string, marker *MarkerCommit) (string, error) {
	tmp, err := os.MkdirTemp("", "railyard-worktree-")
	if err != nil {
		return "", errs.E(errs.KindInternal, "refs.marker", err)
	}
	defer os.RemoveAll(tmp)

	wt := filepath.Join(tmp, "wt")
	if _, err := g.run(ctx, g.dir, "worktree", "add", "--detach", wt, base); err != nil {
		return "", errs.E(errs.KindInternal, "refs.marker", err)
	}
	defer func() {
		_, _ = g.run(context.WithoutCancel(ctx), g.dir, "worktree", "remove", "--force", wt)
	}()

	if err := manifest.WriteVersion(filepath.Join(wt, marker.Path), marker.Key, marker.Version); err != nil {
		return "", err
	}
	if _, err := g.run(ctx, wt, "add", "--", marker.Path); err != nil {
		return "", errs.E(errs.KindInternal, "refs.marker", err)
	}
	if _, err := g.run(ctx, wt, "commit", "-m", marker.Message); err != nil {
		return "", errs.E(errs.KindInternal, "refs.marker", err)
	}
	out, err := g.run(ctx, wt, "rev-parse", "HEAD")
	if err != nil {
		return "", errs.E(errs.KindInternal, "refs.marker", err)
	}
	return strings.TrimSpace(out), nil
}

// run executes a git command and returns stdout, wrapping failures with
// stderr context.
func (g *GitStore) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return "", errs.NewCommandError("git "+strings.Join(args, " "), exitCode, stderr.String(), err)
	}
	return stdout.String(), nil
}

// conflictMarkers are stderr fragments git emits when a ref update loses a
// race or targets an existing name.
var conflictMarkers = []string{
	"already exists",
	"non-fast-forward",
	"fetch first",
	"[rejected]",
	"cannot lock ref",
	"stale info",
	"remote ref does not exist",
}

// classify maps a git command failure to the error taxonomy. Push and
// fetch failures default to network errors unless stderr identifies a ref
// conflict.
func (g *GitStore) classify(op string, err error) error {
	stderr := strings.ToLower(errs.ExtractStderr(err))
	for _, marker := range conflictMarkers {
		if strings.Contains(stderr, marker) {
			return errs.E(errs.KindConflict, op, err)
		}
	}
	return errs.E(errs.KindNetwork, op, err)
}
