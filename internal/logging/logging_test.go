package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	"github.com/vincentbai/browsetrace-dashboard/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"WARNING", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("Database cleared", "remote", "127.0.0.1")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Errorf("debug line should be filtered: %s", line)
	}
	if got := gjson.Get(line, "msg").String(); got != "Database cleared" {
		t.Errorf("msg = %q", got)
	}
	if got := gjson.Get(line, "remote").String(); got != "127.0.0.1" {
		t.Errorf("remote = %q", got)
	}
}

func TestNewUnknownFormat(t *testing.T) {
	if _, err := New(config.LogConfig{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("Expected error for unknown format")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "service.log")
	logger, closer, err := Open(config.LogConfig{Level: "info", File: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	logger.Info("started")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "started") {
		t.Errorf("log file missing entry: %s", data)
	}
}
