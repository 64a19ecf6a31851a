// Package config loads serve-mode configuration from layered sources:
// built-in defaults, an optional YAML file, then SEGUE_ environment
// variables. Later layers win.
//
// Environment variables map onto nested keys with a double underscore,
// so SEGUE_SERVER__PORT sets server.port and SEGUE_ENGINE__DEFAULT_TOP_K
// sets engine.default_top_k.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"segue.yaml",
	"segue.yml",
	"/etc/segue/config.yaml",
}

// ConfigPathEnvVar overrides the config file search entirely.
const ConfigPathEnvVar = "SEGUE_CONFIG"

const envPrefix = "SEGUE_"

// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Engine     EngineConfig     `koanf:"engine"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
	Spotify    SpotifyConfig    `koanf:"spotify"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// CatalogConfig names the track source. Exactly one of CSVPath or DBPath
// must be set for serve mode; Subset caps how many rows are loaded, zero
// meaning all of them.
type CatalogConfig struct {
	CSVPath string `koanf:"csv_path"`
	DBPath  string `koanf:"db_path"`
	Subset  int    `koanf:"subset"`
}

// EngineConfig tunes query defaults. CacheSize below zero disables the
// recommendation cache.
type EngineConfig struct {
	DefaultTopK int `koanf:"default_top_k"`
	CacheSize   int `koanf:"cache_size"`
}

// EvaluationConfig shapes background evaluation runs. Workers bounds how
// many runs execute at once; zero means one.
type EvaluationConfig struct {
	DefaultK  int `koanf:"default_k"`
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// SpotifyConfig carries API credentials for the fetch command. Both fields
// empty is fine everywhere else.
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
}

// LoggingConfig selects level and output format ("json" or "console").
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			CSVPath: "",
			DBPath:  "",
			Subset:  0,
		},
		Engine: EngineConfig{
			DefaultTopK: 10,
			CacheSize:   256,
		},
		Evaluation: EvaluationConfig{
			DefaultK:  10,
			Workers:   0,
			QueueSize: 16,
		},
		Spotify: SpotifyConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or the
// first file found in DefaultConfigPaths when path is empty), and SEGUE_
// environment variables, in that precedence order.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults from the struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	// 2. Optional config file
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	// 3. Environment variables win
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing path from the env override and
// the default search list, or empty when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps SEGUE_SECTION__KEY_NAME to section.key_name. A single
// underscore stays part of the key, so leaf names like default_top_k
// survive.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Catalog.Subset < 0 {
		return fmt.Errorf("config: catalog.subset must not be negative, got %d", c.Catalog.Subset)
	}
	if c.Engine.DefaultTopK < 1 {
		return fmt.Errorf("config: engine.default_top_k must be positive, got %d", c.Engine.DefaultTopK)
	}
	if c.Evaluation.DefaultK < 1 {
		return fmt.Errorf("config: evaluation.default_k must be positive, got %d", c.Evaluation.DefaultK)
	}
	if c.Evaluation.Workers < 0 {
		return fmt.Errorf("config: evaluation.workers must not be negative, got %d", c.Evaluation.Workers)
	}
	if c.Evaluation.QueueSize < 1 {
		return fmt.Errorf("config: evaluation.queue_size must be positive, got %d", c.Evaluation.QueueSize)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: logging.level %q: %w", c.Logging.Level, err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("config: logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Addr renders the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
