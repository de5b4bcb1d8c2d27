package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	// StorageLimit is the maximum number of unpinned history records to
	// retain. Zero or negative means unlimited.
	StorageLimit int `json:"storage_limit"`

	// PreviewLength is the maximum rune count of the derived preview string.
	PreviewLength int `json:"preview_length"`

	PollIntervalMs int `json:"poll_interval_ms"`
	MaxItemSize    int `json:"max_item_size_bytes"`

	ShowNotifications bool `json:"show_notifications"`

	// DataDir overrides the default data directory (~/.everypaste).
	DataDir string `json:"data_dir,omitempty"`
}

func Default() *Config {
	return &Config{
		StorageLimit:  100,
		PreviewLength: 100,

		PollIntervalMs: 150,
		MaxItemSize:    10 * 1024 * 1024, // 10MB

		ShowNotifications: true,
	}
}

func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Return default config if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.validate()

	return config, nil
}

func (c *Config) Save(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) validate() {
	// StorageLimit <= 0 is a valid "unlimited" setting and stays as-is.
	if c.PreviewLength <= 0 {
		c.PreviewLength = 100
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = 150
	}
	if c.MaxItemSize <= 0 {
		c.MaxItemSize = 10 * 1024 * 1024
	}
}
