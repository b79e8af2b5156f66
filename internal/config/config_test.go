package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Auth.MaxAttempts != 3 {
		t.Errorf("max_attempts = %d, want 3", cfg.Auth.MaxAttempts)
	}
	if cfg.DBPath() != filepath.Join("etc", "clients.db") {
		t.Errorf("DBPath = %s", cfg.DBPath())
	}
}

func TestLoadMergesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "browsetrace.yaml")
	data := []byte(`
data_dir: /var/lib/browsetrace
server:
  port: 8443
  tls: false
auth:
  session_ttl: 30m
dashboard:
  chart_width: 640
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8443 || cfg.Server.TLS {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("bind default lost: %s", cfg.Server.Bind)
	}
	if cfg.Auth.SessionTTL != 30*time.Minute {
		t.Errorf("session_ttl = %v", cfg.Auth.SessionTTL)
	}
	if cfg.Dashboard.ChartWidth != 640 || cfg.Dashboard.ChartHeight != 320 {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
	cert, key := cfg.CertPaths()
	if cert != "/var/lib/browsetrace/cert.pem" || key != "/var/lib/browsetrace/key.pem" {
		t.Errorf("CertPaths = %s, %s", cert, key)
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("BROWSETRACE_PORT", "9000")
	t.Setenv("BROWSETRACE_DATA_DIR", "/tmp/bt")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Address() != "127.0.0.1:9000" {
		t.Errorf("Address = %s", cfg.Address())
	}
	if cfg.DataDir != "/tmp/bt" {
		t.Errorf("data_dir = %s", cfg.DataDir)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("auth:\n  max_attempts: 0\n"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatal("Expected validation error")
	}
}
