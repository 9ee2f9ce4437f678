// ABOUTME: Tests for logger construction.
// ABOUTME: Checks level filtering and rejection of unknown levels.
package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden message")
	logger.Warn("shown message", "variant", "cycle")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown message") || !strings.Contains(out, "variant=cycle") {
		t.Errorf("warn line missing: %s", out)
	}
}

func TestNewDefaultsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("debug line")
	logger.Info("info line")
	if strings.Contains(buf.String(), "debug line") {
		t.Error("debug line written at default level")
	}
	if !strings.Contains(buf.String(), "info line") {
		t.Error("info line missing at default level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}
