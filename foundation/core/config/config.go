// File: config.go
// Title: Core Configuration Implementation
// Description: Implements the Config type: loading from TOML and YAML,
//              dotted-key lookup, environment overrides and typed getters.
// Author: msto63
// Version: v0.2.0
// Created: 2026-09-15
// Modified: 2026-10-03
//
// Change History:
// - 2026-09-15 v0.1.0: Initial implementation with TOML/YAML support
// - 2026-10-03 v0.2.0: GetBoolMap, integer normalisation across formats

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
)

// Format represents the configuration file format
type Format int

const (
	// FormatAuto detects the format from the file extension
	FormatAuto Format = iota
	// FormatTOML represents TOML format
	FormatTOML
	// FormatYAML represents YAML format
	FormatYAML
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Config represents a loaded configuration with thread-safe access
type Config struct {
	mu        sync.RWMutex
	data      map[string]interface{}
	filePath  string
	format    Format
	envPrefix string
}

// LoadOptions defines options for loading configuration
type LoadOptions struct {
	Format    Format
	EnvPrefix string
	Defaults  map[string]interface{}
}

// Load loads configuration from a file, detecting the format
func Load(filePath string) (*Config, error) {
	return LoadWithOptions(filePath, LoadOptions{})
}

// LoadWithOptions loads configuration from a file with custom options
func LoadWithOptions(filePath string, options LoadOptions) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, mdwerror.New("config file path cannot be empty").
			WithCode(mdwerror.CodeMissingConfig).
			WithOperation("config.LoadWithOptions")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		code := mdwerror.CodeConfigError
		if os.IsNotExist(err) {
			code = mdwerror.CodeNotFound
		}
		return nil, mdwerror.Wrap(err, "failed to read config file").
			WithCode(code).
			WithOperation("config.LoadWithOptions").
			WithDetail("filePath", filePath)
	}

	format := options.Format
	if format == FormatAuto {
		format = detectFormat(filePath)
	}

	data, err := parseContent(content, format)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse config file").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("config.LoadWithOptions").
			WithDetail("filePath", filePath).
			WithDetail("format", format.String())
	}

	return &Config{
		data:      mergeDefaults(data, options.Defaults),
		filePath:  filePath,
		format:    format,
		envPrefix: options.EnvPrefix,
	}, nil
}

// LoadFromString parses configuration content. FormatAuto means TOML.
func LoadFromString(content string, format Format) (*Config, error) {
	if format == FormatAuto {
		format = FormatTOML
	}
	data, err := parseContent([]byte(content), format)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse config from string").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("config.LoadFromString").
			WithDetail("format", format.String())
	}
	return &Config{data: data, format: format}, nil
}

func detectFormat(filePath string) Format {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

func parseContent(content []byte, format Format) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
		if data == nil {
			data = make(map[string]interface{})
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return data, nil
}

func mergeDefaults(data, defaults map[string]interface{}) map[string]interface{} {
	if len(defaults) == 0 {
		return data
	}
	result := make(map[string]interface{}, len(data)+len(defaults))
	for k, v := range defaults {
		result[k] = v
	}
	for k, v := range data {
		result[k] = v
	}
	return result
}

// GetString returns a string value with optional default
func (c *Config) GetString(key string, defaultValue ...string) string {
	if env, ok := c.lookupEnv(key); ok {
		return env
	}
	value := c.get(key)
	if value == nil {
		return first(defaultValue, "")
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// GetInt returns an integer value with optional default
func (c *Config) GetInt(key string, defaultValue ...int) int {
	if env, ok := c.lookupEnv(key); ok {
		if n, err := strconv.Atoi(env); err == nil {
			return n
		}
	}
	switch v := c.get(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return first(defaultValue, 0)
}

// GetFloat returns a float value with optional default
func (c *Config) GetFloat(key string, defaultValue ...float64) float64 {
	if env, ok := c.lookupEnv(key); ok {
		if f, err := strconv.ParseFloat(env, 64); err == nil {
			return f
		}
	}
	switch v := c.get(key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return first(defaultValue, 0)
}

// GetBool returns a boolean value with optional default
func (c *Config) GetBool(key string, defaultValue ...bool) bool {
	if env, ok := c.lookupEnv(key); ok {
		if b, err := strconv.ParseBool(env); err == nil {
			return b
		}
	}
	switch v := c.get(key).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return first(defaultValue, false)
}

// GetDuration returns a duration value. Strings use time.ParseDuration,
// bare numbers are seconds.
func (c *Config) GetDuration(key string, defaultValue ...time.Duration) time.Duration {
	raw := c.get(key)
	if env, ok := c.lookupEnv(key); ok {
		raw = env
	}
	switch v := raw.(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return first(defaultValue, 0)
}

// GetStringSlice returns a list of strings
func (c *Config) GetStringSlice(key string, defaultValue ...[]string) []string {
	if env, ok := c.lookupEnv(key); ok {
		parts := strings.Split(env, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	list, ok := c.get(key).([]interface{})
	if !ok {
		return first(defaultValue, nil)
	}
	result := make([]string, 0, len(list))
	for _, item := range list {
		result = append(result, fmt.Sprintf("%v", item))
	}
	return result
}

// GetBoolMap returns the boolean entries of the table at key. Non-boolean
// entries are skipped.
func (c *Config) GetBoolMap(key string) map[string]bool {
	table, ok := c.get(key).(map[string]interface{})
	if !ok {
		return nil
	}
	result := make(map[string]bool, len(table))
	for name, v := range table {
		if b, ok := v.(bool); ok {
			result[name] = b
		}
	}
	return result
}

// Has checks if a configuration key exists
func (c *Config) Has(key string) bool {
	return c.get(key) != nil
}

// Set sets a value at a dotted key, creating intermediate tables
func (c *Config) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		c.data = make(map[string]interface{})
	}
	keys := strings.Split(key, ".")
	current := c.data
	for _, k := range keys[:len(keys)-1] {
		next, ok := current[k].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[k] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
}

// FilePath returns the file the configuration was loaded from
func (c *Config) FilePath() string { return c.filePath }

// Format returns the format the configuration was parsed as
func (c *Config) Format() Format { return c.format }

func (c *Config) get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	current := c.data
	keys := strings.Split(key, ".")
	for i, k := range keys {
		if i == len(keys)-1 {
			return current[k]
		}
		next, ok := current[k].(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

func (c *Config) lookupEnv(key string) (string, bool) {
	if c.envPrefix == "" {
		return "", false
	}
	name := strings.ToUpper(c.envPrefix + "_" + strings.ReplaceAll(key, ".", "_"))
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func first[T any](values []T, fallback T) T {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
