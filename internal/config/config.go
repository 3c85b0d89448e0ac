// Package config provides configuration management for the minibitcask
// store. It loads settings from a YAML file and environment variables,
// with thread-safe singleton access.
package config

import (
	"log/slog"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// defaultConfigPath is used when MINIBITCASK_CONFIG is not set.
const defaultConfigPath = "internal/config/config.yml"

// Config holds all application configuration values.
type Config struct {
	DATA_DIR      string `yaml:"DATA_DIR"`      // Directory where the log file lives
	LOG_FILE_NAME string `yaml:"LOG_FILE_NAME"`  // Name of the append-only log file within DATA_DIR
}

var (
	appConfig *Config
	once      sync.Once
	initErr   error
)

// LoadConfig reads configuration values from config.yml and optionally
// from a .env file. It uses a sync.Once so concurrent callers all observe
// the same loaded Config. Environment variables referenced in the YAML
// file are expanded via os.ExpandEnv before unmarshaling.
func LoadConfig() (*Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			slog.Debug("config: no .env file found or error loading it", "error", err)
		} else {
			slog.Debug("config: .env file loaded successfully")
		}

		path := os.Getenv("MINIBITCASK_CONFIG")
		if path == "" {
			path = defaultConfigPath
		}

		file, err := os.ReadFile(path)
		if err != nil {
			initErr = err
			return
		}

		var cfg Config
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(file))), &cfg); err != nil {
			initErr = err
			return
		}

		if cfg.DATA_DIR == "" {
			cfg.DATA_DIR = "./data"
		}
		if cfg.LOG_FILE_NAME == "" {
			cfg.LOG_FILE_NAME = "minibitcask.log"
		}

		appConfig = &cfg
	})
	if initErr != nil {
		return nil, initErr
	}
	return appConfig, nil
}

// GetConfig returns the singleton configuration instance.
// Panics if configuration has not been loaded yet; callers must invoke
// LoadConfig first.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded - call LoadConfig() first")
	}
	return appConfig
}
