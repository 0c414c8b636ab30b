// Package config handles VitalGraph configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir"`

	// Server
	Server ServerConfig `json:"server"`

	// External collaborators
	MealSync  MealSyncConfig  `json:"meal_sync"`
	CloudSync CloudSyncConfig `json:"cloud_sync"`

	// Features
	Features FeatureConfig `json:"features"`
}

// ServerConfig for the local HTTP server
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// MealSyncConfig for the remote kitchen backend
type MealSyncConfig struct {
	BaseURL string `json:"base_url"`
	Enabled bool   `json:"enabled"`
}

// CloudSyncConfig for the anonymized pattern aggregate
type CloudSyncConfig struct {
	Endpoint string `json:"endpoint"`
	Enabled  bool   `json:"enabled"`
}

// FeatureConfig for feature flags
type FeatureConfig struct {
	EnableAlerts bool `json:"enable_alerts"`
	DebugMode    bool `json:"debug_mode"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir: filepath.Join(home, ".vitalgraph"),
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		MealSync: MealSyncConfig{
			BaseURL: "http://localhost:8000",
			Enabled: true,
		},
		CloudSync: CloudSyncConfig{
			Endpoint: "",
			Enabled:  false,
		},
		Features: FeatureConfig{
			EnableAlerts: true,
			DebugMode:    false,
		},
	}
}

// Load loads config from file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.DataDir, "config.json")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
