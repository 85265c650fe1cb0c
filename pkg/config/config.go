/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the bidcvc configuration
type Config struct {
	DataDir string  `yaml:"data_dir"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
	Encoder Encoder `yaml:"encoder"`
	RTP     RTP     `yaml:"rtp"`
}

// Server contains HTTP API configuration
type Server struct {
	Port int    `yaml:"port"`
	Bind string `yaml:"bind"`
	// APIKey, when set, is required in the X-API-Key header.
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Encoder holds the defaults used when building SPS and AU records
type Encoder struct {
	SPSID  int `yaml:"sps_id"`
	QP     int `yaml:"qp"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// RTP contains packetizer settings
type RTP struct {
	MTU         int `yaml:"mtu"`
	PayloadType int `yaml:"payload_type"`
	ClockRate   int `yaml:"clock_rate"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Server: Server{
			Port: 8080,
			Bind: "127.0.0.1",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Encoder: Encoder{
			SPSID:  0,
			QP:     22,
			Width:  1920,
			Height: 1080,
		},
		RTP: RTP{
			MTU:         1200,
			PayloadType: 96,
			ClockRate:   90000,
		},
	}
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold an API key.
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
		}
	}

	check(c.DataDir != "", "data_dir must not be empty")
	check(inRange(c.Server.Port, 1, 65535), "server.port %d out of range 1..65535", c.Server.Port)
	check(c.Server.Bind != "", "server.bind must not be empty")

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		check(false, "logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		check(false, "logging.format %q must be text or json", c.Logging.Format)
	}

	check(inRange(c.Encoder.SPSID, 0, 255), "encoder.sps_id %d out of range 0..255", c.Encoder.SPSID)
	check(inRange(c.Encoder.QP, 0, 255), "encoder.qp %d out of range 0..255", c.Encoder.QP)
	check(inRange(c.Encoder.Width, 1, 65535), "encoder.width %d out of range 1..65535", c.Encoder.Width)
	check(inRange(c.Encoder.Height, 1, 65535), "encoder.height %d out of range 1..65535", c.Encoder.Height)

	// 12 byte RTP header plus the 1 byte fragment header plus at least one byte.
	check(inRange(c.RTP.MTU, 14, 65535), "rtp.mtu %d out of range 14..65535", c.RTP.MTU)
	check(inRange(c.RTP.PayloadType, 0, 127), "rtp.payload_type %d out of range 0..127", c.RTP.PayloadType)
	check(c.RTP.ClockRate > 0, "rtp.clock_rate must be positive")

	return errors.Join(errs...)
}

func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./bidcvc.yaml"
	}

	return filepath.Join(homeDir, ".config", "bidcvc", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
