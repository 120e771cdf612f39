// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"testing"
)

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		// Valid versions
		{"simple", "1.2.0", false},
		{"zeros", "0.0.0", false},
		{"double digit", "10.20.30", false},

		// Invalid versions
		{"empty", "", true},
		{"tag form", "v1.2.0", true},
		{"missing patch", "1.2", true},
		{"extra segment", "1.2.3.4", true},
		{"leading zero", "01.2.0", true},
		{"rc suffix", "1.2.0-rc.1", true},
		{"negative", "1.-2.0", true},
		{"injection attempt", "1.2.0;rm -rf /", true},
		{"whitespace", "1.2.0 ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersion(tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVersion(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRCBranch(t *testing.T) {
	tests := []struct {
		name    string
		branch  string
		wantErr bool
	}{
		// Valid branches
		{"first rc", "release/1.0.0-rc.0", false},
		{"later rc", "release/2.10.3-rc.12", false},

		// Invalid branches
		{"empty", "", true},
		{"missing patch segment", "release/1.2-rc.0", true},
		{"missing rc number", "release/1.2.0-rc.", true},
		{"no rc suffix", "release/1.2.0", true},
		{"wrong prefix", "releases/1.2.0-rc.0", true},
		{"tag name", "v1.2.0", true},
		{"leading zero rc", "release/1.2.0-rc.01", true},
		{"trailing junk", "release/1.2.0-rc.0x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRCBranch(tt.branch)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRCBranch(%q) error = %v, wantErr %v", tt.branch, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRefName(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		wantErr bool
	}{
		// Valid refs
		{"branch", "main", false},
		{"nested branch", "hotfix/2.0.1", false},
		{"commit hash", "9f2c1ab", false},
		{"tag", "v1.2.0", false},

		// Invalid refs - injection attempts
		{"empty", "", true},
		{"flag injection", "--force", true},
		{"leading hyphen", "-b", true},
		{"dotdot traversal", "main..other", true},
		{"space", "my branch", true},
		{"shell metachars", "main;ls", true},
		{"tilde", "HEAD~1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRefName(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRefName(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeVersion(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare", "1.2.0", "1.2.0", false},
		{"tag form", "v1.2.0", "1.2.0", false},
		{"padded", "  2.0.0 ", "2.0.0", false},
		{"double v", "vv1.2.0", "", true},
		{"garbage", "latest", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizeVersion(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
