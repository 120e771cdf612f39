// Copyright (C) 2026 Railyard Authors (maintainers@railyard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{" Error ", LevelError},
		{"", LevelInfo},
		{"chatty", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := tt.level.toSlogLevel(); got != tt.want {
			t.Errorf("Level(%d).toSlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	defer logger.Close()

	if logger.slog == nil {
		t.Fatal("expected a non-nil slog logger")
	}
}

func TestNew_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelDebug,
		LogDir:  dir,
		Service: "railyard",
	})
	logger.Info("cut resolved", "branch", "release/1.0.0-rc.0")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	filename := "railyard_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "release/1.0.0-rc.0") {
		t.Errorf("log file is missing the entry: %s", data)
	}
	if !strings.Contains(string(data), `"service":"railyard"`) {
		t.Errorf("file entries must carry the service attribute: %s", data)
	}
}

func TestNew_WithLogDir_NoService(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir})
	logger.Info("hello")
	logger.Close()

	filename := "railyard_" + time.Now().Format("2006-01-02") + ".log"
	if _, err := os.Stat(filepath.Join(dir, filename)); err != nil {
		t.Errorf("expected the fallback service file name: %v", err)
	}
}

func TestNew_WithLogDir_InvalidPath(t *testing.T) {
	// An unwritable directory must not break logging.
	logger := New(Config{LogDir: "/dev/null/not-a-dir"})
	defer logger.Close()
	logger.Info("still works")

	if logger.file != nil {
		t.Error("expected no file handle for an invalid directory")
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	defer logger.Close()
	if logger.config.Service != "railyard" {
		t.Errorf("Service = %q, want %q", logger.config.Service, "railyard")
	}
	if logger.config.Level != LevelInfo {
		t.Errorf("Level = %v, want %v", logger.config.Level, LevelInfo)
	}
}

// =============================================================================
// Logging and Export Tests
// =============================================================================

func TestLogger_ExportCarriesAttrs(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Service: "railyard", Exporter: exporter})
	defer logger.Close()

	logger.Info("promote applied", "tag", "v1.2.0", "run_id", "abc")

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Message != "promote applied" {
		t.Errorf("Message = %q", entry.Message)
	}
	if entry.Service != "railyard" {
		t.Errorf("Service = %q", entry.Service)
	}
	if entry.Attrs["tag"] != "v1.2.0" {
		t.Errorf("Attrs[tag] = %v", entry.Attrs["tag"])
	}
	if entry.Level != LevelInfo {
		t.Errorf("Level = %v", entry.Level)
	}
}

func TestLogger_ExportHonorsLevel(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelWarn, Quiet: true, Exporter: exporter})
	defer logger.Close()

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	if got := len(exporter.Entries()); got != 2 {
		t.Errorf("expected 2 exported entries, got %d", got)
	}
}

func TestLogger_With_SharesDestinations(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter})
	defer logger.Close()

	child := logger.With("run_id", "xyz")
	child.Info("from child")

	if got := len(exporter.Entries()); got != 1 {
		t.Fatalf("expected the child to reach the parent exporter, got %d entries", got)
	}
}

func TestLogger_Slog(t *testing.T) {
	logger := Default()
	defer logger.Close()
	if logger.Slog() == nil {
		t.Fatal("expected a non-nil slog.Logger")
	}
}

func TestLogger_Close_Idempotent(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Exporter: NewBufferedExporter()})
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
}

func TestLogger_ConcurrentUse(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter})
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.Info("concurrent", "n", j)
			}
		}()
	}
	wg.Wait()

	if got := len(exporter.Entries()); got != 200 {
		t.Errorf("expected 200 entries, got %d", got)
	}
}

// =============================================================================
// Multi Handler Tests
// =============================================================================

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	handler := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	}}
	logger := slog.New(handler)
	logger.Info("both destinations")

	if !strings.Contains(a.String(), "both destinations") {
		t.Errorf("text handler missed the record: %q", a.String())
	}
	if !strings.Contains(b.String(), "both destinations") {
		t.Errorf("json handler missed the record: %q", b.String())
	}
}

func TestMultiHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	handler := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}}

	if !handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected Enabled when any handler accepts the level")
	}
	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected disabled when no handler accepts the level")
	}
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := &multiHandler{handlers: []slog.Handler{slog.NewJSONHandler(&buf, nil)}}
	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("service", "railyard")}))
	logger.Info("tagged")

	if !strings.Contains(buf.String(), `"service":"railyard"`) {
		t.Errorf("attribute missing: %q", buf.String())
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in this environment")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/.railyard/logs", filepath.Join(home, ".railyard", "logs")},
		{"/var/log/railyard", "/var/log/railyard"},
		{"relative/logs", "relative/logs"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArgsToMap(t *testing.T) {
	attrs := argsToMap([]any{"tag", "v1.0.0", "rc", 3, "dangling"})
	if attrs["tag"] != "v1.0.0" {
		t.Errorf("attrs[tag] = %v", attrs["tag"])
	}
	if attrs["rc"] != 3 {
		t.Errorf("attrs[rc] = %v", attrs["rc"])
	}
	if _, ok := attrs["dangling"]; ok {
		t.Error("a dangling key must be dropped")
	}
}

func TestArgsToMap_NonStringKey(t *testing.T) {
	attrs := argsToMap([]any{42, "value", "ok", true})
	if len(attrs) != 1 || attrs["ok"] != true {
		t.Errorf("unexpected map: %v", attrs)
	}
}

// =============================================================================
// Exporter Tests
// =============================================================================

func TestNopExporter(t *testing.T) {
	e := &NopExporter{}
	ctx := context.Background()
	if err := e.Export(ctx, LogEntry{}); err != nil {
		t.Errorf("Export() = %v", err)
	}
	if err := e.Flush(ctx); err != nil {
		t.Errorf("Flush() = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestBufferedExporter_EntriesReturnsCopy(t *testing.T) {
	e := NewBufferedExporter()
	e.Export(context.Background(), LogEntry{Message: "first"})

	entries := e.Entries()
	entries[0].Message = "mutated"

	if e.Entries()[0].Message != "first" {
		t.Error("Entries() must return a copy")
	}
}

func TestWriterExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	e := NewWriterExporter(&buf)
	err := e.Export(context.Background(), LogEntry{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Service:   "railyard",
		Message:   "scan complete",
		Attrs:     map[string]any{"trains": 2},
	})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "scan complete") || !strings.Contains(out, "railyard") {
		t.Errorf("unexpected output: %q", out)
	}
}
