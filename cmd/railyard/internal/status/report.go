// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package status builds the read-only release-train report: latest
// production release, active trains and their candidates, and what the
// next unflagged cut would do.
package status

import (
	"context"
	"fmt"
	"strings"

	"github.com/railyard-dev/railyard/cmd/railyard/internal/errs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/refs"
	"github.com/railyard-dev/railyard/cmd/railyard/internal/resolve"
	"github.com/railyard-dev/railyard/pkg/ux"
)

// Options selects how much of the remote state the report carries.
type Options struct {
	// Verbose lists every candidate per train and includes tip commits.
	// The default lists only the highest candidate.
	Verbose bool

	// ShowCommits resolves each listed branch tip to its subject line.
	// Requires a CommitReader; costs extra remote round-trips.
	ShowCommits bool

	// Max caps the trains listed, keeping the highest versions. Zero
	// lists everything.
	Max int
}

// Branch is one release candidate in the report.
type Branch struct {
	Name    string `json:"name"`
	SHA     string `json:"sha,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// Train is one active release train, candidates in ascending RC order.
type Train struct {
	Version  string   `json:"version"`
	Branches []Branch `json:"branches"`

	// Released is true when a production tag for this version already
	// exists. A released train with surviving candidates usually means a
	// promote ran without cleanup.
	Released bool `json:"released"`

	// Hidden counts candidates elided because Verbose is off.
	Hidden int `json:"hidden,omitempty"`
}

// Report is the full status snapshot handed to rendering or --json.
type Report struct {
	Latest    string  `json:"latest,omitempty"`
	LatestSHA string  `json:"latest_sha,omitempty"`
	Trains    []Train `json:"trains"`

	// HiddenTrains counts trains dropped by Options.Max.
	HiddenTrains int `json:"hidden_trains,omitempty"`

	// NextCut is the branch an unflagged cut would create, empty when no
	// train is active.
	NextCut string `json:"next_cut,omitempty"`

	// NextPromote is the candidate an unflagged promote would tag, empty
	// when no train is active.
	NextPromote string `json:"next_promote,omitempty"`

	// Hint is the recommended next command.
	Hint string `json:"hint,omitempty"`
}

// Build scans the remote and assembles the report.
//
// # Description
//
// Purely read-only: nothing on the remote changes, whatever the options.
// The commit reader is only consulted under ShowCommits; passing nil with
// ShowCommits set is an internal error. Trains are ordered highest
// version first, candidates within a train lowest RC first.
//
// # Inputs
//
//   - ctx: Context for remote calls.
//   - store: Remote ref store. Must not be nil.
//   - reader: Commit subject source, may be nil unless ShowCommits.
//   - mainline: Configured default branch, used to phrase the next cut.
//   - opts: Report depth options.
//
// # Outputs
//
//   - *Report: The assembled report.
//   - error: Remote listing or subject resolution failure.
func Build(ctx context.Context, store refs.Store, reader refs.CommitReader, mainline string, opts Options) (*Report, error) {
	snap, err := refs.Scan(ctx, store)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if snap.Latest != nil {
		report.Latest = snap.Latest.TagName()
		if opts.Verbose {
			report.LatestSHA = snap.Tags[*snap.Latest]
		}
	}

	subjects, err := resolveSubjects(ctx, snap, reader, opts)
	if err != nil {
		return nil, err
	}

	versions := snap.ActiveVersions()
	if opts.Max > 0 && len(versions) > opts.Max {
		report.HiddenTrains = len(versions) - opts.Max
		versions = versions[:opts.Max]
	}

	for _, version := range versions {
		train := Train{Version: version.String(), Released: snap.TagExists(version)}

		candidates := snap.TrainBranches(version)
		if !opts.Verbose && len(candidates) > 1 {
			train.Hidden = len(candidates) - 1
			candidates = candidates[len(candidates)-1:]
		}

		for _, rc := range candidates {
			branch := Branch{Name: rc.String()}
			tip := snap.Branches[rc]
			if opts.Verbose {
				branch.SHA = tip
			}
			if opts.ShowCommits {
				branch.Subject = subjects[tip]
			}
			train.Branches = append(train.Branches, branch)
		}
		report.Trains = append(report.Trains, train)
	}

	if action, err := resolve.Continue(snap, mainline); err == nil {
		report.NextCut = action.Branch().String()
	}
	if rc, ok := snap.HighestRC(); ok {
		report.NextPromote = rc.String()
	}

	switch {
	case report.NextPromote != "":
		report.Hint = fmt.Sprintf("railyard promote --rc %s, or railyard cut to respin", report.NextPromote)
	case report.Latest != "":
		report.Hint = "no active train; railyard cut --bump minor starts the next one"
	default:
		report.Hint = "no releases yet; railyard cut --version 1.0.0 starts the first train"
	}

	return report, nil
}

func resolveSubjects(ctx context.Context, snap *refs.Snapshot, reader refs.CommitReader, opts Options) (map[string]string, error) {
	if !opts.ShowCommits {
		return nil, nil
	}
	if reader == nil {
		return nil, errs.Errorf(errs.KindInternal, "status.build", "no commit reader for --show-commits")
	}
	shas := make([]string, 0, len(snap.Branches))
	for _, sha := range snap.Branches {
		shas = append(shas, sha)
	}
	return reader.Subjects(ctx, shas)
}

// Render formats the report for a terminal.
func (r *Report) Render() string {
	var b strings.Builder

	if r.Latest != "" {
		line := fmt.Sprintf("Latest release  %s", ux.Styles.Highlight.Render(r.Latest))
		if r.LatestSHA != "" {
			line += ux.Styles.Muted.Render(fmt.Sprintf("  (%s)", short(r.LatestSHA)))
		}
		b.WriteString(line + "\n")
	} else {
		b.WriteString(ux.Styles.Muted.Render("No production releases yet") + "\n")
	}

	if len(r.Trains) == 0 {
		b.WriteString(ux.Styles.Muted.Render("No active release trains") + "\n")
	}
	for _, train := range r.Trains {
		header := fmt.Sprintf("Train %s", ux.Styles.Title.Render(train.Version))
		if train.Released {
			header += "  " + ux.Styles.Warning.Render("(already released)")
		}
		b.WriteString("\n" + header + "\n")

		if train.Hidden > 0 {
			b.WriteString(ux.Styles.Muted.Render(fmt.Sprintf("  … %d earlier candidates elided", train.Hidden)) + "\n")
		}
		for _, branch := range train.Branches {
			line := fmt.Sprintf("  %s %s", ux.IconBullet, branch.Name)
			if branch.SHA != "" {
				line += ux.Styles.Muted.Render(fmt.Sprintf("  %s", short(branch.SHA)))
			}
			if branch.Subject != "" {
				line += ux.Styles.Muted.Render("  " + branch.Subject)
			}
			b.WriteString(line + "\n")
		}
	}

	if r.HiddenTrains > 0 {
		b.WriteString(ux.Styles.Muted.Render(fmt.Sprintf("\n… %d lower trains elided", r.HiddenTrains)) + "\n")
	}

	if r.NextCut != "" {
		b.WriteString(fmt.Sprintf("\nNext cut would create %s\n", ux.Styles.Subtitle.Render(r.NextCut)))
	}
	if r.Hint != "" {
		b.WriteString(ux.Styles.Muted.Render("Hint: "+r.Hint) + "\n")
	}

	return b.String()
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
