// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refs

import (
	"context"
)

// Ref is a single remote ref as reported by the remote listing.
type Ref struct {
	// Name is the full ref name, e.g. "refs/heads/release/1.2.0-rc.0"
	// or "refs/tags/v1.2.0".
	Name string

	// SHA is the commit the ref points at. For annotated tags this is the
	// peeled commit, not the tag object.
	SHA string
}

// MarkerCommit describes a version-marker update committed onto a new
// branch before it is pushed.
type MarkerCommit struct {
	// Path is the manifest file path relative to the repository root.
	Path string

	// Key is the manifest key holding the version (dotted path allowed).
	Key string

	// Version is the bare X.Y.Z value to write.
	Version string

	// Message is the commit message for the marker update.
	Message string
}

// CreateBranchRequest asks the store to create one new remote branch.
type CreateBranchRequest struct {
	// Name is the short branch name, e.g. "release/1.2.0-rc.0".
	Name string

	// Base is the ref or commit the branch starts from.
	Base string

	// Marker, when non-nil, is a version-marker update committed on top of
	// Base so the pushed branch carries it as its tip.
	Marker *MarkerCommit
}

// CreateTagRequest asks the store to create one annotated tag.
type CreateTagRequest struct {
	// Name is the tag name, e.g. "v1.2.0".
	Name string

	// Branch is the short branch name whose current tip gets tagged.
	Branch string

	// Message is the tag annotation message.
	Message string
}

// Store is the narrow capability interface over the remote ref namespace.
//
// All synchronization between concurrent railyard invocations happens
// through the remote's atomic ref primitives: creating a ref whose name
// already exists must fail (errs.KindConflict) rather than overwrite.
// Implementations re-check existence immediately before each mutation, but
// the push itself is the authoritative compare-and-swap.
type Store interface {
	// List returns every branch and tag on the remote in one call.
	// Either the full listing is returned or the call fails; there are no
	// partial listings.
	List(ctx context.Context) ([]Ref, error)

	// CreateBranch creates a new remote branch. Fails with
	// errs.KindConflict if the name already exists.
	CreateBranch(ctx context.Context, req CreateBranchRequest) error

	// DeleteBranch deletes a remote branch by short name.
	DeleteBranch(ctx context.Context, name string) error

	// CreateTag creates an annotated tag at a branch tip and pushes it.
	// Fails with errs.KindConflict if the tag already exists remotely.
	CreateTag(ctx context.Context, req CreateTagRequest) error
}

// CommitReader resolves commit subjects for status output. Implemented by
// GitStore; the in-memory store serves canned subjects.
type CommitReader interface {
	// Subjects returns short-hash+subject lines keyed by commit SHA. SHAs
	// unknown to the reader are absent from the result, not an error.
	Subjects(ctx context.Context, shas []string) (map[string]string, error)
}
