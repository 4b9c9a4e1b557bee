// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     config
// Description: Typed TOML configuration for the ct4pwd services and CLI
// Author:      msto63
// Created:     2026-09-14
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvConfigPath names the environment variable holding the config path
const EnvConfigPath = "CT4PWD_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General    GeneralConfig   `toml:"general"`
	Lovelace   LovelaceConfig  `toml:"lovelace"`
	Pipeline   PipelineConfig  `toml:"pipeline"`
	Conditions map[string]bool `toml:"conditions"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
}

// LovelaceConfig holds the compile service configuration
type LovelaceConfig struct {
	Host                 string     `toml:"host"`
	HTTPPort             int        `toml:"http_port"`
	GRPCPort             int        `toml:"grpc_port"`
	ReadTimeout          Duration   `toml:"read_timeout"`
	WriteTimeout         Duration   `toml:"write_timeout"`
	MaxUploadSize        string     `toml:"max_upload_size"`
	DBPath               string     `toml:"db_path"`
	DetectorURL          string     `toml:"detector_url"`
	DetectorTimeout      Duration   `toml:"detector_timeout"`
	LegacyDirectionsOnly bool       `toml:"legacy_directions_only"`
	CacheTTL             Duration   `toml:"cache_ttl"`
	CacheSize            int        `toml:"cache_size"`
	CORS                 CORSConfig `toml:"cors"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `toml:"enabled"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// PipelineConfig holds compiler tuning. Profile, when set, names a
// foundation config file (TOML or YAML) whose pipeline keys take
// precedence over the values below.
type PipelineConfig struct {
	Profile          string  `toml:"profile"`
	RowTolerance     float64 `toml:"row_tolerance"`
	BandWidth        float64 `toml:"band_width"`
	OverlapTolerance float64 `toml:"overlap_tolerance"`
	MaxLoopCount     int     `toml:"max_loop_count"`
	MaxTraceLength   int     `toml:"max_trace_length"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from CT4PWD_CONFIG or the default
// locations
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		defaultPaths := []string{
			"./configs/config.toml",
			"./config.toml",
			filepath.Join(os.Getenv("HOME"), ".config/ct4pwd/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, fmt.Errorf("no config file found, set %s or create configs/config.toml", EnvConfigPath)
	}

	return Load(path)
}

// LoadOrDefault loads path when given, otherwise tries LoadFromEnv and
// falls back to the defaults when no file exists anywhere
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := LoadFromEnv()
	if err != nil {
		if os.Getenv(EnvConfigPath) != "" {
			return nil, err
		}
		return Default(), nil
	}
	return cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "ct4pwd"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "json"
	}

	// Lovelace
	if c.Lovelace.Host == "" {
		c.Lovelace.Host = "0.0.0.0"
	}
	if c.Lovelace.HTTPPort == 0 {
		c.Lovelace.HTTPPort = 8080
	}
	if c.Lovelace.GRPCPort == 0 {
		c.Lovelace.GRPCPort = 9080
	}
	if c.Lovelace.ReadTimeout.Duration == 0 {
		c.Lovelace.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Lovelace.WriteTimeout.Duration == 0 {
		c.Lovelace.WriteTimeout.Duration = 60 * time.Second
	}
	if c.Lovelace.MaxUploadSize == "" {
		c.Lovelace.MaxUploadSize = "16MB"
	}
	if c.Lovelace.DBPath == "" {
		c.Lovelace.DBPath = filepath.Join(c.General.DataDir, "lovelace.db")
	}
	if c.Lovelace.DetectorTimeout.Duration == 0 {
		c.Lovelace.DetectorTimeout.Duration = 15 * time.Second
	}
	if c.Lovelace.CacheTTL.Duration == 0 {
		c.Lovelace.CacheTTL.Duration = 10 * time.Minute
	}
	if c.Lovelace.CacheSize == 0 {
		c.Lovelace.CacheSize = 256
	}
	if len(c.Lovelace.CORS.AllowedOrigins) == 0 {
		c.Lovelace.CORS.AllowedOrigins = []string{"*"}
	}

	// Pipeline; zero band width means per-image estimation
	if c.Pipeline.RowTolerance == 0 {
		c.Pipeline.RowTolerance = 20
	}
	if c.Pipeline.OverlapTolerance == 0 {
		c.Pipeline.OverlapTolerance = 8
	}
	if c.Pipeline.MaxLoopCount == 0 {
		c.Pipeline.MaxLoopCount = 1000
	}
	if c.Pipeline.MaxTraceLength == 0 {
		c.Pipeline.MaxTraceLength = 10000
	}
}

// expandEnvVars expands environment variables in path and URL values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Lovelace.DBPath = os.ExpandEnv(c.Lovelace.DBPath)
	c.Lovelace.DetectorURL = os.ExpandEnv(c.Lovelace.DetectorURL)
	c.Pipeline.Profile = os.ExpandEnv(c.Pipeline.Profile)
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	if c.Lovelace.HTTPPort < 0 || c.Lovelace.HTTPPort > 65535 {
		return fmt.Errorf("lovelace.http_port out of range: %d", c.Lovelace.HTTPPort)
	}
	if c.Lovelace.GRPCPort < 0 || c.Lovelace.GRPCPort > 65535 {
		return fmt.Errorf("lovelace.grpc_port out of range: %d", c.Lovelace.GRPCPort)
	}
	if _, err := ParseSize(c.Lovelace.MaxUploadSize); err != nil {
		return fmt.Errorf("lovelace.max_upload_size: %w", err)
	}
	if c.Pipeline.RowTolerance < 0 || c.Pipeline.BandWidth < 0 || c.Pipeline.OverlapTolerance < 0 {
		return fmt.Errorf("pipeline tolerances must not be negative")
	}
	if c.Pipeline.MaxLoopCount < 0 || c.Pipeline.MaxTraceLength < 0 {
		return fmt.Errorf("pipeline limits must not be negative")
	}
	return nil
}

// HTTPAddress returns host:port of the HTTP listener
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Lovelace.Host, c.Lovelace.HTTPPort)
}

// GRPCAddress returns host:port of the gRPC listener
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Lovelace.Host, c.Lovelace.GRPCPort)
}

// MaxUploadBytes returns max_upload_size in bytes
func (c *Config) MaxUploadBytes() int64 {
	n, err := ParseSize(c.Lovelace.MaxUploadSize)
	if err != nil {
		return 16 << 20
	}
	return n
}

// ParseSize parses sizes like "512", "64KB", "16MB" or "1GB"
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		factor int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * multiplier, nil
}
