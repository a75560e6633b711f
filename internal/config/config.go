// Package config resolves runtime settings from flags, POTAGER_* environment
// variables, .potager.yaml and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"potager/internal/blob"
	"potager/internal/core"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "POTAGER"

// CatalogConfig points at an optional crop catalog file.
type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig picks the operation metrics backend: prometheus serves
// /metrics, expvar serves /debug/vars.
type MetricsConfig struct {
	Backend string `mapstructure:"backend"`
}

// Config holds all runtime configuration.
type Config struct {
	ListenAddr string             `mapstructure:"listen_addr"`
	APIURL     string             `mapstructure:"api_url"`
	CORSOrigin string             `mapstructure:"cors_origin"`
	Storage    core.StorageConfig `mapstructure:"storage"`
	Blob       blob.Config        `mapstructure:"blob"`
	Catalog    CatalogConfig      `mapstructure:"catalog"`
	Log        LogConfig          `mapstructure:"log"`
	Metrics    MetricsConfig      `mapstructure:"metrics"`
	// TraceFile receives one JSON line per service span when set.
	TraceFile string `mapstructure:"trace_file"`
}

// SetDefaults registers every key so AutomaticEnv can resolve nested values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8001")
	v.SetDefault("api_url", "http://localhost:8001")
	v.SetDefault("cors_origin", "*")
	v.SetDefault("storage.driver", string(core.StorageSQLite))
	v.SetDefault("storage.sqlite_path", "potager.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("blob.driver", string(blob.DriverFilesystem))
	v.SetDefault("blob.fs_root", "./blobdata")
	v.SetDefault("blob.s3.bucket", "")
	v.SetDefault("blob.s3.region", "")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.path_style", false)
	v.SetDefault("blob.s3.access_key_id", "")
	v.SetDefault("blob.s3.secret_access_key", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.backend", "prometheus")
	v.SetDefault("trace_file", "")
}

// Init wires defaults, the env prefix and the config file search path into v.
// A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".potager")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env") without
// overriding values already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
