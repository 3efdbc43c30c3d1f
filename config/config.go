// Package config provides configuration management for the journal club
// calendar bot. It supports loading configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultTimezone        = "America/Los_Angeles"
	DefaultDurationMinutes = 60
	DefaultTitle           = "Journal Club"
	DefaultPollInterval    = 5 * time.Minute
	DefaultConfigDir       = ".jcbot"
	DefaultConfigFile      = "config.yaml"
	DefaultCategoriesFile  = "categories.yaml"
	DefaultStateFile       = "state.json"
	DefaultMetricsAddress  = "localhost:9190"
)

// ParserConfig holds the extraction settings.
type ParserConfig struct {
	// Timezone is the IANA zone every event is anchored in.
	Timezone string `yaml:"timezone"`

	// DefaultDurationMinutes sets event end relative to start.
	DefaultDurationMinutes int `yaml:"default_duration_minutes"`

	// AllowPlaceholderTime permits fabricating "today at 2 PM" for messages
	// with no datetime signal. Disabled, such messages are skipped.
	AllowPlaceholderTime bool `yaml:"allow_placeholder_time"`

	// DefaultTitle is used when no title can be extracted.
	DefaultTitle string `yaml:"default_title,omitempty"`
}

// PostgresConfig holds PostgreSQL connection settings for the processed-state
// store.
type PostgresConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`

	// SSLMode is the SSL connection mode (disable, require, verify-ca,
	// verify-full).
	SSLMode string `yaml:"sslmode,omitempty"`
}

// ConnectionString returns the PostgreSQL connection string, or empty when
// postgres is not configured.
func (c *PostgresConfig) ConnectionString() string {
	if c == nil || c.Host == "" || c.Database == "" || c.User == "" {
		return ""
	}

	port := c.Port
	if port == 0 {
		port = 5432
	}

	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}

	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=%s",
		c.Host, port, c.Database, c.User, sslmode)
}

// IsConfigured returns true if postgres has all required fields.
func (c *PostgresConfig) IsConfigured() bool {
	return c != nil && c.Host != "" && c.Database != "" && c.User != ""
}

// RedisConfig holds Redis connection settings for the processed-state store.
type RedisConfig struct {
	Address  string `yaml:"address,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// StorageConfig selects and configures the processed-state backend.
type StorageConfig struct {
	// Backend is one of "file", "postgres", "redis". Default "file".
	Backend string `yaml:"backend"`

	// StateFile is the JSON state path for the file backend.
	// Supports ~ for home directory expansion.
	StateFile string `yaml:"state_file,omitempty"`

	Postgres *PostgresConfig `yaml:"postgres,omitempty"`
	Redis    *RedisConfig    `yaml:"redis,omitempty"`
}

// MetricsConfig holds the observability endpoint settings.
type MetricsConfig struct {
	// Enabled controls whether the serve command exposes /metrics.
	Enabled bool `yaml:"enabled"`

	// Address is the listen address for /metrics and /healthz.
	Address string `yaml:"address,omitempty"`
}

// Config holds the bot configuration.
type Config struct {
	Parser ParserConfig `yaml:"parser"`

	// CategoriesFile points at the category keyword configuration.
	// Supports ~ for home directory expansion.
	CategoriesFile string `yaml:"categories_file,omitempty"`

	// PollInterval is how often the pipeline checks for new messages.
	PollInterval time.Duration `yaml:"-"`

	// MessageDir is where the directory mail source reads .txt and .eml
	// message files from.
	MessageDir string `yaml:"message_dir,omitempty"`

	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			Timezone:               DefaultTimezone,
			DefaultDurationMinutes: DefaultDurationMinutes,
			AllowPlaceholderTime:   true,
			DefaultTitle:           DefaultTitle,
		},
		PollInterval: DefaultPollInterval,
		Storage: StorageConfig{
			Backend: "file",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Address: DefaultMetricsAddress,
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $JCBOT_CONFIG_DIR if set, otherwise ~/.jcbot
func ConfigDir() (string, error) {
	if dir := os.Getenv("JCBOT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the bot configuration.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.jcbot/config.yaml or $JCBOT_CONFIG_DIR/config.yaml)
// 3. Environment variables (JCBOT_TIMEZONE, JCBOT_POLL_INTERVAL, ...)
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// We need a temp struct for unmarshaling duration as string.
	type configFile struct {
		Parser         ParserConfig  `yaml:"parser"`
		CategoriesFile string        `yaml:"categories_file"`
		PollInterval   string        `yaml:"poll_interval"`
		MessageDir     string        `yaml:"message_dir"`
		Storage        StorageConfig `yaml:"storage"`
		Metrics        MetricsConfig `yaml:"metrics"`
		Debug          bool          `yaml:"debug"`
	}

	fileCfg := configFile{Parser: cfg.Parser, Storage: cfg.Storage, Metrics: cfg.Metrics}
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Parser = fileCfg.Parser
	cfg.Storage = fileCfg.Storage
	cfg.Metrics = fileCfg.Metrics
	cfg.Debug = fileCfg.Debug
	if fileCfg.CategoriesFile != "" {
		cfg.CategoriesFile = fileCfg.CategoriesFile
	}
	if fileCfg.MessageDir != "" {
		cfg.MessageDir = fileCfg.MessageDir
	}
	if fileCfg.PollInterval != "" {
		interval, err := time.ParseDuration(fileCfg.PollInterval)
		if err != nil {
			return fmt.Errorf("parsing poll_interval: %w", err)
		}
		cfg.PollInterval = interval
	}

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("JCBOT_TIMEZONE"); v != "" {
		cfg.Parser.Timezone = v
	}

	if v := os.Getenv("JCBOT_DEFAULT_DURATION_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			cfg.Parser.DefaultDurationMinutes = minutes
		}
	}

	if v := os.Getenv("JCBOT_ALLOW_PLACEHOLDER_TIME"); v != "" {
		cfg.Parser.AllowPlaceholderTime = v == "true" || v == "1"
	}

	if v := os.Getenv("JCBOT_CATEGORIES_FILE"); v != "" {
		cfg.CategoriesFile = v
	}

	if v := os.Getenv("JCBOT_POLL_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = interval
		}
	}

	if v := os.Getenv("JCBOT_MESSAGE_DIR"); v != "" {
		cfg.MessageDir = v
	}

	if v := os.Getenv("JCBOT_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}

	if v := os.Getenv("JCBOT_STATE_FILE"); v != "" {
		cfg.Storage.StateFile = v
	}

	if v := os.Getenv("JCBOT_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}

	if v := os.Getenv("JCBOT_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	loadPostgresFromEnv(cfg)
	loadRedisFromEnv(cfg)
}

// loadPostgresFromEnv overlays postgres environment variables.
func loadPostgresFromEnv(cfg *Config) {
	host := os.Getenv("JCBOT_POSTGRES_HOST")
	database := os.Getenv("JCBOT_POSTGRES_DATABASE")
	user := os.Getenv("JCBOT_POSTGRES_USER")

	if host == "" && database == "" && user == "" {
		return // No env vars set.
	}

	if cfg.Storage.Postgres == nil {
		cfg.Storage.Postgres = &PostgresConfig{}
	}

	if host != "" {
		cfg.Storage.Postgres.Host = host
	}
	if database != "" {
		cfg.Storage.Postgres.Database = database
	}
	if user != "" {
		cfg.Storage.Postgres.User = user
	}
	if v := os.Getenv("JCBOT_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.Port = port
		}
	}
	if v := os.Getenv("JCBOT_POSTGRES_SSLMODE"); v != "" {
		cfg.Storage.Postgres.SSLMode = v
	}
}

// loadRedisFromEnv overlays redis environment variables.
func loadRedisFromEnv(cfg *Config) {
	addr := os.Getenv("JCBOT_REDIS_ADDRESS")
	if addr == "" {
		return
	}

	if cfg.Storage.Redis == nil {
		cfg.Storage.Redis = &RedisConfig{}
	}
	cfg.Storage.Redis.Address = addr

	if v := os.Getenv("JCBOT_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Redis.DB = db
		}
	}
	if v := os.Getenv("JCBOT_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Parser.Timezone == "" {
		return fmt.Errorf("parser.timezone is required")
	}

	if c.Parser.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("parser.default_duration_minutes must be positive")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}

	switch c.Storage.Backend {
	case "", "file", "postgres", "redis":
	default:
		return fmt.Errorf("invalid storage.backend: %q (must be file, postgres, or redis)", c.Storage.Backend)
	}

	if c.Storage.Backend == "postgres" && !c.Storage.Postgres.IsConfigured() {
		return fmt.Errorf("storage.backend is postgres but storage.postgres is not configured")
	}

	if c.Storage.Backend == "redis" && (c.Storage.Redis == nil || c.Storage.Redis.Address == "") {
		return fmt.Errorf("storage.backend is redis but storage.redis.address is not set")
	}

	return nil
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *Config) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	// Convert to YAML-friendly format with duration as string.
	type configFile struct {
		Parser         ParserConfig  `yaml:"parser"`
		CategoriesFile string        `yaml:"categories_file,omitempty"`
		PollInterval   string        `yaml:"poll_interval"`
		MessageDir     string        `yaml:"message_dir,omitempty"`
		Storage        StorageConfig `yaml:"storage"`
		Metrics        MetricsConfig `yaml:"metrics"`
		Debug          bool          `yaml:"debug,omitempty"`
	}

	fileCfg := configFile{
		Parser:         cfg.Parser,
		CategoriesFile: cfg.CategoriesFile,
		PollInterval:   cfg.PollInterval.String(),
		MessageDir:     cfg.MessageDir,
		Storage:        cfg.Storage,
		Metrics:        cfg.Metrics,
		Debug:          cfg.Debug,
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// CategoriesPath returns the expanded categories file path, defaulting to
// categories.yaml inside the config directory.
func (c *Config) CategoriesPath() (string, error) {
	if c.CategoriesFile != "" {
		return ExpandPath(c.CategoriesFile)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultCategoriesFile), nil
}

// StatePath returns the expanded state file path for the file storage
// backend, defaulting to state.json inside the config directory.
func (c *Config) StatePath() (string, error) {
	if c.Storage.StateFile != "" {
		return ExpandPath(c.Storage.StateFile)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultStateFile), nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
