package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerInlinesComponent(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.With(String(FieldComponent, "downloader")).Info("paired file",
		String(FieldFilename, "IMG_0001.DNG"),
		Int("pending", 2),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO downloader: paired file") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "filename=IMG_0001.DNG") || !strings.Contains(line, "pending=2") {
		t.Fatalf("attrs missing from line: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be inlined, not emitted as attr: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("listing failed", String("detail", "connection refused"))

	if !strings.Contains(buf.String(), `detail="connection refused"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	handler := newConsoleHandler(&buf, lvl)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be suppressed at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should pass at warn level")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "analyzer")
	// Must not panic and must discard output.
	logger.Info("ignored")
}
