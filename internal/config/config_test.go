package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate keeps Load away from the developer's own config and .env files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.File != "" {
		t.Errorf("cfg.File = %q, want empty", cfg.File)
	}
	if cfg.Output.Format != "text" || !cfg.Output.Color {
		t.Errorf("cfg.Output = %+v", cfg.Output)
	}
	if cfg.Introspect.PostgresSchema != "public" || cfg.Introspect.Timeout != 30*time.Second {
		t.Errorf("cfg.Introspect = %+v", cfg.Introspect)
	}
	if filepath.Base(cfg.Storage.DataDir) != ".schemadiff" {
		t.Errorf("cfg.Storage.DataDir = %q", cfg.Storage.DataDir)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "schemadiff.yaml")
	content := `output:
  format: markdown
  color: false
diff:
  fail_on_breaking: true
introspect:
  postgres_schema: app
  timeout: 5s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.File != path {
		t.Errorf("cfg.File = %q, want %q", cfg.File, path)
	}
	if cfg.Output.Format != "markdown" || cfg.Output.Color {
		t.Errorf("cfg.Output = %+v", cfg.Output)
	}
	if !cfg.Diff.FailOnBreaking || cfg.Diff.BreakingOnly {
		t.Errorf("cfg.Diff = %+v", cfg.Diff)
	}
	if cfg.Introspect.PostgresSchema != "app" || cfg.Introspect.Timeout != 5*time.Second {
		t.Errorf("cfg.Introspect = %+v", cfg.Introspect)
	}
	// untouched sections keep their defaults
	if cfg.API.ListenAddr != ":8080" {
		t.Errorf("cfg.API.ListenAddr = %q, want :8080", cfg.API.ListenAddr)
	}
}

func TestLoadSearchesWorkingDir(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: error\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("cfg.Log.Level = %q, want error", cfg.Log.Level)
	}
	if cfg.File == "" {
		t.Error("cfg.File should name the config that was found")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("output: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestLoadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SCHEMADIFF_OUTPUT_FORMAT", "json")
	t.Setenv("SCHEMADIFF_DIFF_BREAKING_ONLY", "true")
	t.Setenv("SCHEMADIFF_INTROSPECT_TIMEOUT", "1m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("cfg.Output.Format = %q, want json", cfg.Output.Format)
	}
	if !cfg.Diff.BreakingOnly {
		t.Error("cfg.Diff.BreakingOnly should be set from the environment")
	}
	if cfg.Introspect.Timeout != time.Minute {
		t.Errorf("cfg.Introspect.Timeout = %v, want 1m", cfg.Introspect.Timeout)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	// restore whatever was there, then start unset
	t.Setenv("SCHEMADIFF_LOG_LEVEL", "")
	os.Unsetenv("SCHEMADIFF_LOG_LEVEL")
	t.Setenv("SCHEMADIFF_LOG_FORMAT", "logfmt")

	env := "SCHEMADIFF_LOG_LEVEL=debug\nSCHEMADIFF_LOG_FORMAT=json\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("cfg.Log.Level = %q, want debug from .env", cfg.Log.Level)
	}
	if cfg.Log.Format != "logfmt" {
		t.Errorf("cfg.Log.Format = %q, want the environment to win over .env", cfg.Log.Format)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadDotEnv() error = %v, want nil for a missing file", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Output.Format = "yaml"
	cfg.Diff.FailOnBreaking = true
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.API.ReadTimeout = 2 * time.Second
	cfg.Introspect.Timeout = 90 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Output.Format != "yaml" || !got.Diff.FailOnBreaking {
		t.Errorf("loaded = %+v", got)
	}
	if got.Storage.DataDir != cfg.Storage.DataDir {
		t.Errorf("Storage.DataDir = %q, want %q", got.Storage.DataDir, cfg.Storage.DataDir)
	}
	if got.API.ReadTimeout != 2*time.Second || got.Introspect.Timeout != 90*time.Second {
		t.Errorf("timeouts = %v / %v", got.API.ReadTimeout, got.Introspect.Timeout)
	}
	if got.API.MaxBodyBytes != cfg.API.MaxBodyBytes {
		t.Errorf("API.MaxBodyBytes = %d, want %d", got.API.MaxBodyBytes, cfg.API.MaxBodyBytes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"markdown alias", func(c *Config) { c.Output.Format = "md" }, false},
		{"unknown output format", func(c *Config) { c.Output.Format = "html" }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }, true},
		{"empty listen addr", func(c *Config) { c.API.ListenAddr = "" }, true},
		{"zero body limit", func(c *Config) { c.API.MaxBodyBytes = 0 }, true},
		{"negative timeout", func(c *Config) { c.Introspect.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
