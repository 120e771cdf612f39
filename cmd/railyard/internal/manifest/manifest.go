// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package manifest reads and writes the persisted version marker: a single
// version field inside a YAML project manifest.
//
// The marker is owned collaboratively by the cut (new-train) and promote
// paths; everything else treats it as read-only. Edits go through the
// yaml.v3 node API so comments and unrelated fields in the manifest
// survive a rewrite.
package manifest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
)

// ReadVersion returns the version string stored at key in the manifest.
//
// Key may be a dotted path into nested mappings, e.g. "project.version".
func ReadVersion(path, key string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Errorf(errs.KindPrecondition, "manifest.read",
			"reading %s: %v", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", errs.Errorf(errs.KindPrecondition, "manifest.read",
			"parsing %s: %v", path, err)
	}

	node, err := lookup(&doc, key)
	if err != nil {
		return "", errs.E(errs.KindPrecondition, "manifest.read", err)
	}
	return node.Value, nil
}

// WriteVersion sets the version string at key and rewrites the manifest in
// place, preserving comments and document structure.
func WriteVersion(path, key, version string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Errorf(errs.KindPrecondition, "manifest.write",
			"reading %s: %v", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errs.Errorf(errs.KindPrecondition, "manifest.write",
			"parsing %s: %v", path, err)
	}

	node, err := lookup(&doc, key)
	if err != nil {
		return errs.E(errs.KindPrecondition, "manifest.write", err)
	}
	node.Value = version
	node.Tag = "!!str"
	node.Style = 0

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return errs.E(errs.KindInternal, "manifest.write", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return errs.E(errs.KindInternal, "manifest.write", err)
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return errs.E(errs.KindInternal, "manifest.write", err)
	}
	return nil
}

// lookup walks a dotted key path through nested mappings and returns the
// scalar value node.
func lookup(doc *yaml.Node, key string) (*yaml.Node, error) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("manifest is empty")
	}

	node := doc.Content[0]
	for _, part := range strings.Split(key, ".") {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("key %q: %q is not a mapping", key, part)
		}
		var next *yaml.Node
		// Mapping content alternates key, value.
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == part {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("key %q not found in manifest", key)
		}
		node = next
	}

	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("key %q does not hold a scalar value", key)
	}
	return node, nil
}
