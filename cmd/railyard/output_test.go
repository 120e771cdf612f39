// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/pkg/ux"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()
	require.NoError(t, w.Close())
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	defer func() { os.Stderr = old }()

	fn()
	require.NoError(t, w.Close())
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func decodeEnvelope(t *testing.T, out string) CommandResult {
	t.Helper()
	var result CommandResult
	require.NoError(t, json.Unmarshal([]byte(out), &result),
		"stdout must be a single JSON envelope, got %q", out)
	return result
}

// =============================================================================
// OutputResult Tests
// =============================================================================

func TestOutputResult_JSONSuccess(t *testing.T) {
	runID = "test-run"
	start := time.Now()

	var code int
	out := captureStdout(t, func() {
		code = OutputResult(true, "cut", start,
			CutResult{Branch: "release/1.2.0-rc.0", Base: "main"}, nil, nil)
	})

	assert.Equal(t, errs.ExitOK, code)
	result := decodeEnvelope(t, out)
	assert.Equal(t, "1.0", result.APIVersion)
	assert.Equal(t, "cut", result.Command)
	assert.Equal(t, "test-run", result.RunID)
	assert.True(t, result.Success)
	assert.False(t, result.DryRun)
	assert.Empty(t, result.Error)
}

func TestOutputResult_JSONFailureCarriesStderr(t *testing.T) {
	runID = "test-run"
	cmdErr := errs.E(errs.KindNetwork, "refs.push",
		errs.NewCommandError("git push", 128, "remote: permission denied", errors.New("exit status 128")))

	var code int
	out := captureStdout(t, func() {
		code = OutputResult(true, "cut", time.Now(), nil, nil, cmdErr)
	})

	assert.Equal(t, errs.ExitFailure, code)
	result := decodeEnvelope(t, out)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "refs.push")
	assert.Equal(t, "remote: permission denied", result.Stderr)
}

func TestOutputResult_JSONCarriesWarnings(t *testing.T) {
	runID = "test-run"
	warnings := []string{"could not delete release/1.2.0-rc.0"}

	out := captureStdout(t, func() {
		OutputResult(true, "cut", time.Now(), nil, warnings, nil)
	})

	result := decodeEnvelope(t, out)
	assert.True(t, result.Success)
	assert.Equal(t, warnings, result.Warnings)
}

func TestOutputResult_TextFailureGoesToStderr(t *testing.T) {
	ux.SetPlain(true)
	defer ux.SetPlain(false)

	var code int
	errOut := captureStderr(t, func() {
		code = OutputResult(false, "promote", time.Now(), nil, nil,
			errs.Errorf(errs.KindConflict, "train.promote", "tag v1.2.0 already exists"))
	})

	assert.Equal(t, errs.ExitFailure, code)
	assert.Contains(t, errOut, "tag v1.2.0 already exists")
}

func TestOutputResult_TextWarnings(t *testing.T) {
	ux.SetPlain(true)
	defer ux.SetPlain(false)

	errOut := captureStderr(t, func() {
		OutputResult(false, "cut", time.Now(), nil,
			[]string{"branch lingers"}, nil)
	})

	assert.Contains(t, errOut, "branch lingers")
}

// =============================================================================
// OutputDryRun Tests
// =============================================================================

func TestOutputDryRun_JSONSetsFlag(t *testing.T) {
	runID = "test-run"

	var code int
	out := captureStdout(t, func() {
		code = OutputDryRun(true, "promote", time.Now(), PromoteResult{
			Tag:   "v1.2.0",
			Steps: []string{"create tag v1.2.0"},
		})
	})

	assert.Equal(t, errs.ExitOK, code)
	result := decodeEnvelope(t, out)
	assert.True(t, result.Success)
	assert.True(t, result.DryRun)
}

func TestOutputDryRun_TextPrintsNothing(t *testing.T) {
	out := captureStdout(t, func() {
		code := OutputDryRun(false, "cut", time.Now(), CutResult{})
		assert.Equal(t, errs.ExitOK, code)
	})
	assert.Empty(t, out)
}

// =============================================================================
// OutputJSON Tests
// =============================================================================

func TestOutputJSON_Indented(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, OutputJSON(map[string]string{"tag": "v1.2.0"}))
	})
	assert.Contains(t, out, "\n  \"tag\": \"v1.2.0\"")
}
