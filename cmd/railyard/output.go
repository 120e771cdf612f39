// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/pkg/ux"
)

// CommandResult wraps command output with metadata for --json mode.
type CommandResult struct {
	APIVersion string    `json:"api_version"`
	Command    string    `json:"command"`
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	DryRun     bool      `json:"dry_run,omitempty"`
	Data       any       `json:"data,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
	Error      string    `json:"error,omitempty"`
	Stderr     string    `json:"stderr,omitempty"`
}

// CutResult is the --json payload of a cut.
type CutResult struct {
	Branch string   `json:"branch"`
	Base   string   `json:"base"`
	Steps  []string `json:"steps"`
}

// PromoteResult is the --json payload of a promote.
type PromoteResult struct {
	Branch     string   `json:"branch"`
	Tag        string   `json:"tag"`
	TagSkipped bool     `json:"tag_skipped,omitempty"`
	NextBranch string   `json:"next_branch,omitempty"`
	Steps      []string `json:"steps"`
}

// OutputJSON writes structured data as indented JSON to stdout.
func OutputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// OutputResult prints the command outcome in the selected format and
// returns the exit code.
//
// # Inputs
//
//   - jsonMode: JSON envelope on stdout instead of styled text.
//   - cmd: Command name for envelope metadata.
//   - start: Start time for duration calculation.
//   - data: The payload, already printed by the caller in text mode.
//   - warnings: Partial-success notes.
//   - err: The command error, nil on success.
//
// # Outputs
//
//   - int: The exit code to use.
func OutputResult(jsonMode bool, cmd string, start time.Time, data any, warnings []string, err error) int {
	if jsonMode {
		result := CommandResult{
			APIVersion: "1.0",
			Command:    cmd,
			RunID:      runID,
			Timestamp:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
			Success:    err == nil,
			Data:       data,
			Warnings:   warnings,
		}
		if err != nil {
			result.Error = err.Error()
			result.Stderr = errs.ExtractStderr(err)
		}
		if encErr := OutputJSON(result); encErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", encErr)
			return errs.ExitFailure
		}
		return errs.ExitCode(err)
	}

	for _, warning := range warnings {
		ux.Warning(warning)
	}
	if err != nil {
		ux.Error(err.Error())
		if logger != nil {
			logger.Error("command failed", "command", cmd, "error", err.Error())
		}
	}
	return errs.ExitCode(err)
}

// OutputDryRun prints a plan that was not applied and returns ExitOK.
// In text mode the caller already printed the step list; in JSON mode the
// envelope carries the payload with the dry_run flag set.
func OutputDryRun(jsonMode bool, cmd string, start time.Time, data any) int {
	if jsonMode {
		result := CommandResult{
			APIVersion: "1.0",
			Command:    cmd,
			RunID:      runID,
			Timestamp:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
			Success:    true,
			DryRun:     true,
			Data:       data,
		}
		if encErr := OutputJSON(result); encErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", encErr)
			return errs.ExitFailure
		}
	}
	return errs.ExitOK
}

// exitUsage prints a flag-conflict message and exits with the usage code.
func exitUsage(msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	os.Exit(errs.ExitUsage)
}
