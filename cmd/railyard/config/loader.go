// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the repository root.
const DefaultPath = "railyard.yaml"

// Global is a singleton instance, populated by Load before any command
// runs.
var Global RailyardConfig

// Load reads the config into the Global variable. A missing file is not
// an error: the defaults apply and `railyard init` writes them out.
func Load(path string) error {
	cfg, err := LoadFile(path)
	if err != nil {
		return err
	}
	Global = cfg
	return nil
}

// LoadFile reads and validates one config file. An empty path means
// DefaultPath; a missing file yields the defaults.
func LoadFile(path string) (RailyardConfig, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return cfg, nil
}

// WriteDefault creates a config file with the defaults, used by
// `railyard init`. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create the config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
