// Package config handles application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Rendering defaults for the CLI
	Output OutputConfig `mapstructure:"output"`

	// Diff behaviour defaults
	Diff DiffConfig `mapstructure:"diff"`

	// Logging
	Log LogConfig `mapstructure:"log"`

	// Snapshot storage
	Storage StorageConfig `mapstructure:"storage"`

	// HTTP API settings
	API APIConfig `mapstructure:"api"`

	// Live database sources
	Introspect IntrospectConfig `mapstructure:"introspect"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

type DiffConfig struct {
	BreakingOnly   bool `mapstructure:"breaking_only"`
	FailOnBreaking bool `mapstructure:"fail_on_breaking"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type APIConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

type IntrospectConfig struct {
	PostgresSchema string        `mapstructure:"postgres_schema"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		API: APIConfig{
			ListenAddr:   ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 10 << 20, // 10MB
		},
		Introspect: IntrospectConfig{
			PostgresSchema: "public",
			Timeout:        30 * time.Second,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".schemadiff"
	}
	return filepath.Join(home, ".schemadiff")
}

// DefaultPath is where "config init" writes when no path is given.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// LoadDotEnv loads variables from the given .env files, skipping files that
// do not exist. Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from a .env file, the config file and env vars
func Load(configPath string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.color", defaults.Output.Color)
	v.SetDefault("diff.breaking_only", defaults.Diff.BreakingOnly)
	v.SetDefault("diff.fail_on_breaking", defaults.Diff.FailOnBreaking)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("api.listen_addr", defaults.API.ListenAddr)
	v.SetDefault("api.read_timeout", defaults.API.ReadTimeout)
	v.SetDefault("api.write_timeout", defaults.API.WriteTimeout)
	v.SetDefault("api.max_body_bytes", defaults.API.MaxBodyBytes)
	v.SetDefault("introspect.postgres_schema", defaults.Introspect.PostgresSchema)
	v.SetDefault("introspect.timeout", defaults.Introspect.Timeout)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultDataDir())
		v.AddConfigPath("/etc/schemadiff")
	}

	// Environment variables
	v.SetEnvPrefix("schemadiff")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	return &cfg, nil
}

// Save writes the config to a file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.Set("output.format", c.Output.Format)
	v.Set("output.color", c.Output.Color)
	v.Set("diff.breaking_only", c.Diff.BreakingOnly)
	v.Set("diff.fail_on_breaking", c.Diff.FailOnBreaking)
	v.Set("log.level", c.Log.Level)
	v.Set("log.format", c.Log.Format)
	v.Set("storage.data_dir", c.Storage.DataDir)
	v.Set("api.listen_addr", c.API.ListenAddr)
	v.Set("api.read_timeout", c.API.ReadTimeout.String())
	v.Set("api.write_timeout", c.API.WriteTimeout.String())
	v.Set("api.max_body_bytes", c.API.MaxBodyBytes)
	v.Set("introspect.postgres_schema", c.Introspect.PostgresSchema)
	v.Set("introspect.timeout", c.Introspect.Timeout.String())

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case "text", "table", "markdown", "md", "json", "yaml", "yml":
	default:
		return fmt.Errorf("output.format %q is not one of text, markdown, json, yaml", c.Output.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log.format %q is not one of text, json, logfmt", c.Log.Format)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.API.ListenAddr == "" {
		return fmt.Errorf("api.listen_addr is required")
	}
	if c.API.MaxBodyBytes <= 0 {
		return fmt.Errorf("api.max_body_bytes must be positive")
	}
	if c.Introspect.Timeout < 0 {
		return fmt.Errorf("introspect.timeout cannot be negative")
	}
	return nil
}
