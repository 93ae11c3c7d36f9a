package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the remote disposable-email service.
type APIConfig struct {
	// BaseURL is the root URL of the mail service API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// PageSize is the number of message summaries requested per page.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// StorageConfig holds settings for local persistence.
type StorageConfig struct {
	// DBPath is the SQLite message archive location.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// InsecureFileStore allows the session snapshot (including the
	// plaintext account password) to fall back to an on-disk keyring
	// file when no OS keychain is available. Off by default.
	InsecureFileStore bool `mapstructure:"insecure_file_store" yaml:"insecure_file_store"`
}

// LogConfig holds logging preferences. The TUI owns stdout, so logs
// go to a file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API             APIConfig     `mapstructure:"api" yaml:"api"`
	Storage         StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log             LogConfig     `mapstructure:"log" yaml:"log"`
	PollIntervalSec int           `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/tempmail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "tempmail", "config.yaml")
}

// defaultDataDir returns the directory for local state files.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "tempmail")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:  "https://api.mail.tm",
			PageSize: 20,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(defaultDataDir(), "messages.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(defaultDataDir(), "tempmail.log"),
		},
		PollIntervalSec: 15,
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.base_url", "https://api.mail.tm")
	v.SetDefault("api.page_size", 20)
	v.SetDefault("storage.db_path", filepath.Join(defaultDataDir(), "messages.db"))
	v.SetDefault("storage.insecure_file_store", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(defaultDataDir(), "tempmail.log"))
	v.SetDefault("poll_interval_sec", 15)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.API.PageSize <= 0 {
		cfg.API.PageSize = 20
	}
	if cfg.PollIntervalSec <= 0 {
		cfg.PollIntervalSec = 15
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)
	v.Set("poll_interval_sec", cfg.PollIntervalSec)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
