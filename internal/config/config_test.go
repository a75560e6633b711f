package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func load(t *testing.T, cfgFile string) Config {
	t.Helper()
	v := viper.New()
	if err := Init(v, cfgFile); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := load(t, "")

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"ListenAddr", cfg.ListenAddr, ":8001"},
		{"APIURL", cfg.APIURL, "http://localhost:8001"},
		{"CORSOrigin", cfg.CORSOrigin, "*"},
		{"Storage.Driver", cfg.Storage.Driver, "sqlite"},
		{"Storage.SQLitePath", cfg.Storage.SQLitePath, "potager.db"},
		{"Blob.Driver", cfg.Blob.Driver, "fs"},
		{"Blob.FSRoot", cfg.Blob.FSRoot, "./blobdata"},
		{"Catalog.Watch", cfg.Catalog.Watch, false},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Log.Format", cfg.Log.Format, "text"},
		{"Metrics.Backend", cfg.Metrics.Backend, "prometheus"},
		{"TraceFile", cfg.TraceFile, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{"listen_addr", "POTAGER_LISTEN_ADDR", ":9000", func(c Config) any { return c.ListenAddr }, ":9000"},
		{"storage.driver", "POTAGER_STORAGE_DRIVER", "postgres", func(c Config) any { return c.Storage.Driver }, "postgres"},
		{"storage.postgres_dsn", "POTAGER_STORAGE_POSTGRES_DSN", "postgres://localhost/potager", func(c Config) any { return c.Storage.PostgresDSN }, "postgres://localhost/potager"},
		{"blob.s3.bucket", "POTAGER_BLOB_S3_BUCKET", "exports", func(c Config) any { return c.Blob.S3.Bucket }, "exports"},
		{"blob.s3.path_style", "POTAGER_BLOB_S3_PATH_STYLE", "true", func(c Config) any { return c.Blob.S3.PathStyle }, true},
		{"catalog.watch", "POTAGER_CATALOG_WATCH", "true", func(c Config) any { return c.Catalog.Watch }, true},
		{"trace_file", "POTAGER_TRACE_FILE", "/tmp/trace.jsonl", func(c Config) any { return c.TraceFile }, "/tmp/trace.jsonl"},
		{"log.format", "POTAGER_LOG_FORMAT", "json", func(c Config) any { return c.Log.Format }, "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envVal)
			cfg := load(t, "")
			if got := tt.field(cfg); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := "listen_addr: \":7000\"\nstorage:\n  driver: memory\ncatalog:\n  path: crops.toml\n"
	if err := os.WriteFile(filepath.Join(dir, ".potager.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := load(t, "")
	if cfg.ListenAddr != ":7000" || cfg.Storage.Driver != "memory" || cfg.Catalog.Path != "crops.toml" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	// Values absent from the file keep their defaults.
	if cfg.Blob.Driver != "fs" {
		t.Fatalf("expected default blob driver, got %q", cfg.Blob.Driver)
	}
}

func TestInit_ExplicitFileMissing(t *testing.T) {
	v := viper.New()
	if err := Init(v, filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("POTAGER_TEST_DOTENV=hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POTAGER_TEST_DOTENV", "")
	os.Unsetenv("POTAGER_TEST_DOTENV")
	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("POTAGER_TEST_DOTENV"); got != "hello" {
		t.Fatalf("POTAGER_TEST_DOTENV = %q", got)
	}
}
