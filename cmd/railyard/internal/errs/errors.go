// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package errs defines the error taxonomy shared by every railyard component.
//
// Errors are classified into kinds so the CLI can map any failure to the
// right exit code and message without string matching. The kinds mirror the
// failure modes of a release run:
//
//   - KindEnvironment: a required external tool (git, gh) is missing.
//   - KindPrecondition: the invocation cannot proceed (not a repository,
//     no active train to continue).
//   - KindValidation: malformed user input (version string, branch name).
//   - KindConflict: the target ref already exists on the remote; a
//     concurrent writer won the race.
//   - KindNetwork: a remote fetch or push failed in transit.
//
// Validation and precondition errors are raised before any mutation.
// Conflict errors are only discoverable at the point of mutation and are
// never auto-retried; the caller re-scans and re-runs.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for exit-code mapping and user messaging.
type Kind int

const (
	// KindInternal is the zero value for unclassified failures.
	KindInternal Kind = iota

	// KindEnvironment means a required external tool is unavailable.
	KindEnvironment

	// KindPrecondition means the repository or invocation state does not
	// allow the operation. Checked before any mutation.
	KindPrecondition

	// KindValidation means user-supplied input is malformed.
	KindValidation

	// KindConflict means a target ref already exists remotely. This is the
	// compare-and-swap rejection surfaced by the ref store.
	KindConflict

	// KindNetwork means a remote operation failed in transit.
	KindNetwork
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEnvironment:
		return "environment"
	case KindPrecondition:
		return "precondition"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNetwork:
		return "network"
	default:
		return "internal"
	}
}

// Error is a classified error with the operation that produced it.
//
// Op is a short dotted identifier such as "refs.create_branch" or
// "resolve.continue". It shows up in logs and JSON output so a failure can
// be located without a stack trace.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error returns "op: message".
func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap enables errors.Is and errors.As through the chain.
func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with a kind and operation. Returns nil if err is nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain,
// or KindInternal if none is found.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// Exit codes for the railyard CLI.
const (
	// ExitOK means the command completed successfully.
	ExitOK = 0

	// ExitFailure covers precondition, validation, conflict, network and
	// environment failures. No mutation was attempted beyond what already
	// succeeded.
	ExitFailure = 1

	// ExitUsage means the invocation arguments themselves were invalid.
	ExitUsage = 2
)

// ExitCode maps an error to the CLI exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	return ExitFailure
}

// CommandError wraps an external command failure with stderr context.
//
// # Description
//
// Provides rich error context for git/gh subprocess failures, including the
// command that failed, exit code, and stderr output. Implements the error
// interface and supports unwrapping.
//
// # Example
//
//	err := NewCommandError("git push", 1, "remote rejected", originalErr)
//	fmt.Println(err.Error()) // "git push (exit 1): remote rejected"
//
//	var cmdErr *CommandError
//	if errors.As(err, &cmdErr) {
//	    fmt.Println(cmdErr.Stderr) // "remote rejected"
//	}
type CommandError struct {
	// Command is the command that was executed.
	Command string

	// ExitCode is the process exit code (-1 if unknown).
	ExitCode int

	// Stderr contains the standard error output.
	Stderr string

	// Wrapped is the underlying error.
	Wrapped error
}

// Error returns a formatted error message including stderr when available.
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s (exit %d): %s", e.Command, e.ExitCode, e.Stderr)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s (exit %d): %v", e.Command, e.ExitCode, e.Wrapped)
	}
	return fmt.Sprintf("%s (exit %d)", e.Command, e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

// HasStderr returns true if stderr output is available.
func (e *CommandError) HasStderr() bool {
	return e.Stderr != ""
}

// NewCommandError creates a CommandError with full context.
//
// Stderr is trimmed of leading and trailing whitespace.
func NewCommandError(cmd string, exitCode int, stderr string, wrapped error) *CommandError {
	return &CommandError{
		Command:  cmd,
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(stderr),
		Wrapped:  wrapped,
	}
}

// ExtractStderr walks the error chain looking for a CommandError with
// stderr. Returns the first stderr found, or empty string if none.
func ExtractStderr(err error) string {
	for err != nil {
		if cmdErr, ok := err.(*CommandError); ok && cmdErr.HasStderr() {
			return cmdErr.Stderr
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return ""
}
