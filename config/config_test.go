package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Parser.Timezone != DefaultTimezone {
		t.Errorf("Timezone = %q, want %q", cfg.Parser.Timezone, DefaultTimezone)
	}
	if cfg.Parser.DefaultDurationMinutes != DefaultDurationMinutes {
		t.Errorf("DefaultDurationMinutes = %d, want %d", cfg.Parser.DefaultDurationMinutes, DefaultDurationMinutes)
	}
	if !cfg.Parser.AllowPlaceholderTime {
		t.Error("AllowPlaceholderTime should default to true")
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JCBOT_CONFIG_DIR", dir)

	content := `
parser:
  timezone: "Europe/Berlin"
  default_duration_minutes: 90
  allow_placeholder_time: false
categories_file: "/etc/jcbot/categories.yaml"
poll_interval: "10m"
storage:
  backend: "redis"
  redis:
    address: "localhost:6379"
    db: 2
metrics:
  enabled: true
  address: "localhost:9999"
`
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Parser.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q, want Europe/Berlin", cfg.Parser.Timezone)
	}
	if cfg.Parser.DefaultDurationMinutes != 90 {
		t.Errorf("DefaultDurationMinutes = %d, want 90", cfg.Parser.DefaultDurationMinutes)
	}
	if cfg.Parser.AllowPlaceholderTime {
		t.Error("AllowPlaceholderTime should be false")
	}
	if cfg.PollInterval != 10*time.Minute {
		t.Errorf("PollInterval = %v, want 10m", cfg.PollInterval)
	}
	if cfg.Storage.Backend != "redis" {
		t.Errorf("Storage.Backend = %q, want redis", cfg.Storage.Backend)
	}
	if cfg.Storage.Redis == nil || cfg.Storage.Redis.Address != "localhost:6379" {
		t.Errorf("Storage.Redis = %+v, want address localhost:6379", cfg.Storage.Redis)
	}
	if cfg.Metrics.Address != "localhost:9999" {
		t.Errorf("Metrics.Address = %q, want localhost:9999", cfg.Metrics.Address)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("JCBOT_CONFIG_DIR", t.TempDir())
	t.Setenv("JCBOT_TIMEZONE", "UTC")
	t.Setenv("JCBOT_DEFAULT_DURATION_MINUTES", "45")
	t.Setenv("JCBOT_POLL_INTERVAL", "30s")
	t.Setenv("JCBOT_STORAGE_BACKEND", "postgres")
	t.Setenv("JCBOT_POSTGRES_HOST", "db.example.com")
	t.Setenv("JCBOT_POSTGRES_DATABASE", "jcbot")
	t.Setenv("JCBOT_POSTGRES_USER", "bot")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Parser.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", cfg.Parser.Timezone)
	}
	if cfg.Parser.DefaultDurationMinutes != 45 {
		t.Errorf("DefaultDurationMinutes = %d, want 45", cfg.Parser.DefaultDurationMinutes)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if !cfg.Storage.Postgres.IsConfigured() {
		t.Error("postgres should be configured from env")
	}
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "etcd"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown storage backend")
	}
}

func TestValidateRequiresBackendSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for postgres backend without settings")
	}

	cfg = DefaultConfig()
	cfg.Storage.Backend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for redis backend without address")
	}
}

func TestPostgresConnectionString(t *testing.T) {
	pg := &PostgresConfig{Host: "localhost", Database: "jcbot", User: "bot"}

	got := pg.ConnectionString()
	want := "host=localhost port=5432 dbname=jcbot user=bot sslmode=require"
	if got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}

	var nilPg *PostgresConfig
	if nilPg.ConnectionString() != "" {
		t.Error("nil config should produce empty connection string")
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	t.Setenv("JCBOT_CONFIG_DIR", t.TempDir())

	cfg := DefaultConfig()
	cfg.Parser.Timezone = "Europe/London"
	cfg.MessageDir = "/var/mail/jcbot"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Parser.Timezone != "Europe/London" {
		t.Errorf("Timezone = %q, want Europe/London", loaded.Parser.Timezone)
	}
	if loaded.MessageDir != "/var/mail/jcbot" {
		t.Errorf("MessageDir = %q, want /var/mail/jcbot", loaded.MessageDir)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandPath("~/state.json")
	if err != nil {
		t.Fatalf("ExpandPath() error: %v", err)
	}
	if got != filepath.Join(home, "state.json") {
		t.Errorf("ExpandPath() = %q", got)
	}

	got, err = ExpandPath("/absolute/path")
	if err != nil || got != "/absolute/path" {
		t.Errorf("ExpandPath(/absolute/path) = %q, %v", got, err)
	}
}
