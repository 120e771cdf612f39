// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
)

// MemStore is an in-memory Store used by tests and by anything that needs
// a remote fake without network access.
//
// It mirrors the remote's atomic semantics: creating a ref whose name
// already exists fails with errs.KindConflict. Mutations are recorded in
// order so tests can assert the exact sequence a plan applied.
//
// # Thread Safety
//
// MemStore is safe for concurrent use.
type MemStore struct {
	mu sync.Mutex

	// branches and tags map short names to commit SHAs.
	branches map[string]string
	tags     map[string]string

	// subjects maps commit SHAs to subject lines for CommitReader.
	subjects map[string]string

	// Ops records every mutation in application order, e.g.
	// "create-branch release/1.0.0-rc.0" or "delete-branch release/1.0.0-rc.0".
	Ops []string

	// MarkerCommits records the marker updates attached to branch creates.
	MarkerCommits []MarkerCommit

	// FailCreateBranch, FailDeleteBranch and FailCreateTag inject an error
	// on the next matching mutation when non-nil.
	FailCreateBranch error
	FailDeleteBranch error
	FailCreateTag    error

	// FailList injects a listing error (simulates network failure).
	FailList error

	nextSHA int
}

// NewMemStore creates an empty in-memory remote.
func NewMemStore() *MemStore {
	return &MemStore{
		branches: make(map[string]string),
		tags:     make(map[string]string),
		subjects: make(map[string]string),
	}
}

// SeedBranch adds a branch without recording a mutation. Returns the
// generated tip SHA.
func (m *MemStore) SeedBranch(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	sha := m.genSHA()
	m.branches[name] = sha
	return sha
}

// SeedTag adds a tag without recording a mutation. Returns the tagged SHA.
func (m *MemStore) SeedTag(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	sha := m.genSHA()
	m.tags[name] = sha
	return sha
}

// SeedTagAt adds a tag pointing at an existing SHA.
func (m *MemStore) SeedTagAt(name, sha string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[name] = sha
}

// SetSubject registers a commit subject served through Subjects.
func (m *MemStore) SetSubject(sha, subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[sha] = subject
}

// BranchSHA returns the tip of a branch and whether it exists.
func (m *MemStore) BranchSHA(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sha, ok := m.branches[name]
	return sha, ok
}

// TagSHA returns the commit of a tag and whether it exists.
func (m *MemStore) TagSHA(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sha, ok := m.tags[name]
	return sha, ok
}

// List returns all refs, sorted by full ref name for determinism.
func (m *MemStore) List(ctx context.Context) ([]Ref, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailList != nil {
		return nil, errs.E(errs.KindNetwork, "memstore.list", m.FailList)
	}

	var list []Ref
	for name, sha := range m.branches {
		list = append(list, Ref{Name: HeadPrefix + name, SHA: sha})
	}
	for name, sha := range m.tags {
		list = append(list, Ref{Name: TagPrefix + name, SHA: sha})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// CreateBranch creates a branch, failing on name collision.
func (m *MemStore) CreateBranch(ctx context.Context, req CreateBranchRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreateBranch != nil {
		err := m.FailCreateBranch
		m.FailCreateBranch = nil
		return err
	}
	if _, exists := m.branches[req.Name]; exists {
		return errs.Errorf(errs.KindConflict, "memstore.create_branch",
			"branch %s already exists", req.Name)
	}

	// A marker commit produces a new tip on top of the base.
	sha := m.resolveLocked(req.Base)
	if req.Marker != nil {
		m.MarkerCommits = append(m.MarkerCommits, *req.Marker)
		sha = m.genSHA()
	}
	if sha == "" {
		sha = m.genSHA()
	}
	m.branches[req.Name] = sha
	m.Ops = append(m.Ops, "create-branch "+req.Name)
	return nil
}

// DeleteBranch deletes a branch by short name.
func (m *MemStore) DeleteBranch(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDeleteBranch != nil {
		err := m.FailDeleteBranch
		m.FailDeleteBranch = nil
		return err
	}
	if _, exists := m.branches[name]; !exists {
		return errs.Errorf(errs.KindConflict, "memstore.delete_branch",
			"branch %s does not exist", name)
	}
	delete(m.branches, name)
	m.Ops = append(m.Ops, "delete-branch "+name)
	return nil
}

// CreateTag tags a branch tip, failing if the tag exists.
func (m *MemStore) CreateTag(ctx context.Context, req CreateTagRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreateTag != nil {
		err := m.FailCreateTag
		m.FailCreateTag = nil
		return err
	}
	if _, exists := m.tags[req.Name]; exists {
		return errs.Errorf(errs.KindConflict, "memstore.create_tag",
			"tag %s already exists", req.Name)
	}
	tip, ok := m.branches[req.Branch]
	if !ok {
		return errs.Errorf(errs.KindPrecondition, "memstore.create_tag",
			"branch %s does not exist", req.Branch)
	}
	m.tags[req.Name] = tip
	m.Ops = append(m.Ops, "create-tag "+req.Name)
	return nil
}

// Subjects serves the registered commit subjects.
func (m *MemStore) Subjects(ctx context.Context, shas []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for _, sha := range shas {
		if subject, ok := m.subjects[sha]; ok {
			out[sha] = subject
		}
	}
	return out, nil
}

// resolveLocked maps a base ref to a SHA: branch name, tag name, or the
// base itself when it already looks like a seeded SHA.
func (m *MemStore) resolveLocked(base string) string {
	if sha, ok := m.branches[base]; ok {
		return sha
	}
	if sha, ok := m.tags[base]; ok {
		return sha
	}
	for _, sha := range m.branches {
		if sha == base {
			return base
		}
	}
	return ""
}

func (m *MemStore) genSHA() string {
	m.nextSHA++
	return fmt.Sprintf("%040x", m.nextSHA)
}
