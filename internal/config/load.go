package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var ErrConfigNotFound = errors.New("config not found")

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	dir := filepath.Join(configDir, "cortexvoice")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: run cortexvoice configure", ErrConfigNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	log.Printf("config: loading configuration from %s", configPath)
	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if config.Providers == nil {
		config.Providers = make(map[string]ProviderConfig)
	}
	config.applyDefaults()

	return &config, nil
}

// applyDefaults fills zero values so hand-trimmed config files keep working.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = def.Capture.SampleRate
	}
	if c.Capture.Channels == 0 {
		c.Capture.Channels = def.Capture.Channels
	}
	if c.Capture.Format == "" {
		c.Capture.Format = def.Capture.Format
	}
	if c.Capture.SliceInterval == 0 {
		c.Capture.SliceInterval = def.Capture.SliceInterval
	}
	if c.Capture.ChannelBufferSize == 0 {
		c.Capture.ChannelBufferSize = def.Capture.ChannelBufferSize
	}
	if c.Stream.ConnectTimeout == 0 {
		c.Stream.ConnectTimeout = def.Stream.ConnectTimeout
	}
	if len(c.Delivery.Backends) == 0 {
		c.Delivery.Backends = def.Delivery.Backends
	}
	if c.Delivery.RequestTimeout == 0 {
		c.Delivery.RequestTimeout = def.Delivery.RequestTimeout
	}
	if c.Notifications.Type == "" {
		c.Notifications.Type = "none"
	}
}

func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(configPath, config)
}

func SaveTo(configPath string, config *Config) error {
	f, err := os.OpenFile(configPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", configPath, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
