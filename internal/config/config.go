package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Bind       string `yaml:"bind"`
	Port       int    `yaml:"port"`
	TLS        bool   `yaml:"tls"`
	TLSCert    string `yaml:"tls_cert"` // relative paths resolve against data_dir
	TLSKey     string `yaml:"tls_key"`
	TrustProxy bool   `yaml:"trust_proxy"` // honor X-Forwarded-Proto
}

type AuthConfig struct {
	PasswordLength int           `yaml:"password_length"`
	MaxAttempts    int           `yaml:"max_attempts"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	SessionSecret  string        `yaml:"session_secret"` // random per process when empty
	LoginRate      float64       `yaml:"login_rate_per_second"`
	LoginBurst     int           `yaml:"login_burst"`
}

type IngestConfig struct {
	Workers       int     `yaml:"workers"`
	Queue         int     `yaml:"queue"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

type DashboardConfig struct {
	ChartWidth  int `yaml:"chart_width"`
	ChartHeight int `yaml:"chart_height"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: "etc",
		Server: ServerConfig{
			Bind:    "127.0.0.1",
			Port:    5000,
			TLS:     true,
			TLSCert: "cert.pem",
			TLSKey:  "key.pem",
		},
		Auth: AuthConfig{
			PasswordLength: 30,
			MaxAttempts:    3,
			SessionTTL:     12 * time.Hour,
			LoginRate:      1,
			LoginBurst:     5,
		},
		Ingest: IngestConfig{
			Workers:       4,
			Queue:         256,
			RatePerSecond: 2,
			Burst:         10,
		},
		Dashboard: DashboardConfig{
			ChartWidth:  480,
			ChartHeight: 320,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file and merges it with defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// Expand ~ in data_dir
	if len(cfg.DataDir) > 0 && cfg.DataDir[0] == '~' {
		home, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(home, cfg.DataDir[1:])
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables on top of config values.
func (c *Config) applyEnv() {
	if v := os.Getenv("BROWSETRACE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("BROWSETRACE_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv("BROWSETRACE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("BROWSETRACE_SESSION_SECRET"); v != "" {
		c.Auth.SessionSecret = v
	}
	if v := os.Getenv("BROWSETRACE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Auth.PasswordLength < 8 {
		return fmt.Errorf("password_length must be at least 8, got %d", c.Auth.PasswordLength)
	}
	if c.Auth.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive, got %d", c.Auth.MaxAttempts)
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be positive, got %d", c.Ingest.Workers)
	}
	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// DBPath returns the full path to the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "clients.db")
}

func (c *Config) CertPaths() (string, string) {
	return c.resolve(c.Server.TLSCert), c.resolve(c.Server.TLSKey)
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}
