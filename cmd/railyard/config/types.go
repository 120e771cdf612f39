// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"github.com/go-playground/validator/v10"
)

type RailyardConfig struct {
	// Remote: the git remote all train state lives on
	Remote string `yaml:"remote" validate:"required"`

	// Mainline: the default branch new trains cut from
	Mainline string `yaml:"mainline" validate:"required"`

	// Manifest: where the project records its own version
	Manifest ManifestConfig `yaml:"manifest"`

	// Publish: release publication after a promote
	Publish PublishConfig `yaml:"publish"`

	// Log: diagnostic log destination
	Log LogConfig `yaml:"log"`
}

type ManifestConfig struct {
	Path string `yaml:"path"` // e.g. project.yaml; empty disables marker commits
	Key  string `yaml:"key"`  // e.g. version or project.version
}

type PublishConfig struct {
	// Type can be "gh" or "none".
	Type string `yaml:"type" validate:"oneof=gh none"`

	// Repo overrides gh's repository detection, e.g. "acme/widgets".
	Repo string `yaml:"repo,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir,omitempty"` // empty means ~/.railyard/logs
}

func DefaultConfig() RailyardConfig {
	return RailyardConfig{
		Remote:   "origin",
		Mainline: "main",
		Manifest: ManifestConfig{
			Path: "",
			Key:  "version",
		},
		Publish: PublishConfig{
			Type: "gh",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the loaded config against its struct tags.
func (c *RailyardConfig) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}
