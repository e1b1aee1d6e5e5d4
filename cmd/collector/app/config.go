package app

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultListenAddr = ":5000"

// Config is the collector configuration.
type Config struct {
	Settings Settings      `yaml:"settings"`
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
}

// Settings represents global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// ParseLogLevel maps the configured level name onto slog.
func (s Settings) ParseLogLevel() (slog.Level, error) {
	var level slog.Level
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level '%s': %w", s.LogLevel, err)
	}
	return level, nil
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// StorageConfig holds database settings. Each collector run creates a fresh
// session database inside the data directory.
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// LoadConfig reads, defaults and validates the configuration file. An empty
// path yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening config file: %w", err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if config.Server.Listen == "" {
		config.Server.Listen = defaultListenAddr
	}
	if _, err := config.Settings.ParseLogLevel(); err != nil {
		return nil, err
	}

	return &config, nil
}
