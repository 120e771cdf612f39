// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
)

// =============================================================================
// Test Repository Setup
// =============================================================================

// gitRun runs a git command in dir, failing the test on error.
func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// setupRemote creates a bare "remote" with one commit on main and a local
// clone, returning the clone path wired to it.
func setupRemote(t *testing.T) (clone string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	root := t.TempDir()
	remote := filepath.Join(root, "remote.git")
	clone = filepath.Join(root, "clone")

	gitRun(t, root, "init", "--bare", "-b", "main", remote)
	gitRun(t, root, "clone", remote, clone)
	gitRun(t, clone, "config", "user.name", "railyard-test")
	gitRun(t, clone, "config", "user.email", "test@railyard.dev")

	if err := os.WriteFile(filepath.Join(clone, "project.yaml"), []byte("name: demo\nversion: 0.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitRun(t, clone, "add", "project.yaml")
	gitRun(t, clone, "commit", "-m", "initial commit")
	gitRun(t, clone, "push", "origin", "main")

	return clone
}

// =============================================================================
// Listing
// =============================================================================

func TestGitStore_List_Empty(t *testing.T) {
	clone := setupRemote(t)
	store := NewGitStore(clone, "origin")
	ctx := context.Background()

	refs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// Only main exists; the snapshot built from it must be empty.
	snap, err := Scan(ctx, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if snap.Latest != nil || len(snap.Trains) != 0 {
		t.Errorf("expected empty snapshot, got %+v (refs: %v)", snap, refs)
	}
}

func TestGitStore_List_PeelsAnnotatedTags(t *testing.T) {
	clone := setupRemote(t)
	gitRun(t, clone, "tag", "-a", "-m", "Release v1.0.0", "v1.0.0")
	gitRun(t, clone, "push", "origin", "refs/tags/v1.0.0")
	commit := gitRun(t, clone, "rev-parse", "HEAD")

	store := NewGitStore(clone, "origin")
	snap, err := Scan(context.Background(), store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if snap.Latest == nil || *snap.Latest != (Version{1, 0, 0}) {
		t.Fatalf("Latest = %v, want 1.0.0", snap.Latest)
	}
	if got := snap.Tags[Version{1, 0, 0}]; got != commit {
		t.Errorf("tag SHA = %s, want peeled commit %s", got, commit)
	}
}

// =============================================================================
// Branch Creation
// =============================================================================

func TestGitStore_CreateBranch(t *testing.T) {
	clone := setupRemote(t)
	store := NewGitStore(clone, "origin")
	ctx := context.Background()

	err := store.CreateBranch(ctx, CreateBranchRequest{
		Name: "release/1.0.0-rc.0",
		Base: "main",
	})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	snap, err := Scan(ctx, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if max, ok := snap.MaxRC(Version{1, 0, 0}); !ok || max != 0 {
		t.Errorf("MaxRC = %d, %v; want 0, true", max, ok)
	}
}

func TestGitStore_CreateBranch_Conflict(t *testing.T) {
	clone := setupRemote(t)
	store := NewGitStore(clone, "origin")
	ctx := context.Background()

	req := CreateBranchRequest{Name: "release/1.0.0-rc.0", Base: "main"}
	if err := store.CreateBranch(ctx, req); err != nil {
		t.Fatalf("first CreateBranch: %v", err)
	}
	err := store.CreateBranch(ctx, req)
	if !errs.IsKind(err, errs.KindConflict) {
		t.Errorf("second CreateBranch error = %v, want conflict", err)
	}
}

func TestGitStore_CreateBranch_WithMarkerCommit(t *testing.T) {
	clone := setupRemote(t)
	store := NewGitStore(clone, "origin")
	ctx := context.Background()

	err := store.CreateBranch(ctx, CreateBranchRequest{
		Name: "release/1.0.0-rc.0",
		Base: "main",
		Marker: &MarkerCommit{
			Path:    "project.yaml",
			Key:     "version",
			Version: "1.0.0",
			Message: "Start 1.0.0 release train",
		},
	})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	// The pushed branch tip carries the marker commit; main does not move.
	gitRun(t, clone, "fetch", "origin", "refs/heads/release/1.0.0-rc.0")
	content := gitRun(t, clone, "show", "FETCH_HEAD:project.yaml")
	if !strings.Contains(content, "version: 1.0.0") {
		t.Errorf("manifest on branch = %q, want version 1.0.0", content)
	}
	subject := gitRun(t, clone, "show", "-s", "--format=%s", "FETCH_HEAD")
	if subject != "Start 1.0.0 release train" {
		t.Errorf("marker commit subject = %q", subject)
	}

	mainTip := gitRun(t, clone, "rev-parse", "origin/main")
	branchTip := gitRun(t, clone, "rev-parse", "FETCH_HEAD")
	if mainTip == branchTip {
		t.Error("branch tip should be a new commit on top of main")
	}

	// The invocation's scratch worktree is gone.
	worktrees := gitRun(t, clone, "worktree", "list")
	if strings.Contains(worktrees, "railyard-worktree") {
		t.Errorf("scratch worktree leaked: %s", worktrees)
	}
}

func TestGitStore_CreateBranch_RejectsInvalidNames(t *testing.T) {
	clone := setupRemote(t)
	store := NewGitStore(clone, "origin")
	ctx := context.Background()

	err := store.CreateBranch(ctx, CreateBranchRequest{Name: "release/1.2-rc.0", Base: "main"})
	if !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("malformed name error = %v, want validation", err)
	}

	err = store.CreateBranch(ctx, CreateBranchRequest{Name: "release/1.2.0-rc.0", Base: "--force"})
	if !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("flag-injection base error = %v, want validation", err)
	}
}

// =============================================================================
// Branch Deletion
// =============================================================================

func TestGitStore_DeleteBranch(t *testing.T) {
	clone := setupRemote(t)
	store := NewGitStore(clone, "origin")
	ctx := context.Background()

	if err := store.CreateBranch(ctx, CreateBranchRequest{Name: "release/1.0.0-rc.0", Base: "main"}); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := store.DeleteBranch(ctx, "release/1.0.0-rc.0"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}

	snap, err := Scan(ctx, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(snap.Trains) != 0 {
		t.Errorf("trains after delete = %v, want none", snap.Trains)
	}
}

// =============================================================================
// Tag Creation
// =============================================================================

func TestGitStore_CreateTag(t *testing.T) {
	clone := setupRemote(t)
	store := NewGitStore(clone, "origin")
	ctx := context.Background()

	if err := store.CreateBranch(ctx, CreateBranchRequest{Name: "release/1.0.0-rc.0", Base: "main"}); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	err := store.CreateTag(ctx, CreateTagRequest{
		Name:    "v1.0.0",
		Branch:  "release/1.0.0-rc.0",
		Message: "Release v1.0.0",
	})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	snap, err := Scan(ctx, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !snap.TagExists(Version{1, 0, 0}) {
		t.Error("tag v1.0.0 missing from snapshot")
	}
}

func TestGitStore_CreateTag_Conflict(t *testing.T) {
	clone := setupRemote(t)
	store := NewGitStore(clone, "origin")
	ctx := context.Background()

	if err := store.CreateBranch(ctx, CreateBranchRequest{Name: "release/1.0.0-rc.0", Base: "main"}); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	req := CreateTagRequest{Name: "v1.0.0", Branch: "release/1.0.0-rc.0", Message: "Release v1.0.0"}
	if err := store.CreateTag(ctx, req); err != nil {
		t.Fatalf("first CreateTag: %v", err)
	}
	err := store.CreateTag(ctx, req)
	if !errs.IsKind(err, errs.KindConflict) {
		t.Errorf("second CreateTag error = %v, want conflict", err)
	}
}

// =============================================================================
// Environment / Repository Checks
// =============================================================================

func TestGitStore_CheckRepository(t *testing.T) {
	clone := setupRemote(t)
	ctx := context.Background()

	if err := NewGitStore(clone, "origin").CheckRepository(ctx); err != nil {
		t.Errorf("CheckRepository(clone) = %v", err)
	}
	if err := NewGitStore(clone, "upstream").CheckRepository(ctx); !errs.IsKind(err, errs.KindPrecondition) {
		t.Errorf("unknown remote error = %v, want precondition", err)
	}
	if err := NewGitStore(t.TempDir(), "origin").CheckRepository(ctx); !errs.IsKind(err, errs.KindPrecondition) {
		t.Errorf("non-repo error = %v, want precondition", err)
	}
}

// =============================================================================
// Commit Subjects
// =============================================================================

func TestGitStore_Subjects(t *testing.T) {
	clone := setupRemote(t)
	store := NewGitStore(clone, "origin")
	ctx := context.Background()

	if err := store.CreateBranch(ctx, CreateBranchRequest{Name: "release/1.0.0-rc.0", Base: "main"}); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	snap, err := Scan(ctx, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	tip := snap.Branches[RCBranch{Version{1, 0, 0}, 0}]

	subjects, err := store.Subjects(ctx, []string{tip, strings.Repeat("0", 40)})
	if err != nil {
		t.Fatalf("Subjects: %v", err)
	}
	if got := subjects[tip]; !strings.Contains(got, "initial commit") {
		t.Errorf("subject = %q, want to contain %q", got, "initial commit")
	}
	if _, ok := subjects[strings.Repeat("0", 40)]; ok {
		t.Error("unknown SHA should be skipped, not resolved")
	}
}
