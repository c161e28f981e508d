// Package config provides persistent configuration for the shaum CLI.
//
// Configuration is stored as JSON at ~/.config/shaum/config.json
// (XDG-compliant). The merge priority is: CLI flags > SHAUM_* environment
// variables (optionally from a .env file) > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

const (
	configDirName  = "shaum"
	configFileName = "config.json"

	// MaxOffset bounds hijri_offset in either direction.
	MaxOffset = 3
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"hijri_offset",
	"calendar_method",
	"remote_lookup",
	"format",
	"cache_dir", "cache_backend", "redis_addr",
	"db_path",
	"listen",
	"log_level", "log_format",
}

// Calendar methods accepted by calendar_method.
var CalendarMethods = []string{"HJCoSA", "UAQ", "DIYANET", "MATHEMATICAL"}

// Cache backends accepted by cache_backend.
var CacheBackends = []string{"file", "redis", "memory"}

var logLevels = []string{"debug", "info", "warn", "error", "off"}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	HijriOffset    *int   `json:"hijri_offset,omitempty"` // pointer so we can distinguish "not set" from 0
	CalendarMethod string `json:"calendar_method,omitempty"`
	RemoteLookup   *bool  `json:"remote_lookup,omitempty"`
	Format         string `json:"format,omitempty"` // status-line format: mode name or Go template
	CacheDir       string `json:"cache_dir,omitempty"`
	CacheBackend   string `json:"cache_backend,omitempty"`
	RedisAddr      string `json:"redis_addr,omitempty"`
	DBPath         string `json:"db_path,omitempty"`
	Listen         string `json:"listen,omitempty"`
	LogLevel       string `json:"log_level,omitempty"`
	LogFormat      string `json:"log_format,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	offset := 0
	remote := true
	return Config{
		HijriOffset:  &offset,
		RemoteLookup: &remote,
		Format:       "label",
		CacheBackend: "file",
		RedisAddr:    "localhost:6379",
		Listen:       ":8080",
		LogLevel:     "warn",
		LogFormat:    "text",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
// If the file exists but is invalid JSON, it returns an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "hijri_offset":
		v, err := strconv.Atoi(strings.TrimPrefix(value, "+"))
		if err != nil {
			return fmt.Errorf("invalid hijri_offset %q: must be an integer", value)
		}
		if v < -MaxOffset || v > MaxOffset {
			return fmt.Errorf("invalid hijri_offset %q: must be between %d and %d", value, -MaxOffset, MaxOffset)
		}
		c.HijriOffset = &v
	case "calendar_method":
		if value == "" || strings.EqualFold(value, "auto") {
			c.CalendarMethod = ""
			return nil
		}
		i := slices.IndexFunc(CalendarMethods, func(m string) bool { return strings.EqualFold(m, value) })
		if i < 0 {
			return fmt.Errorf("invalid calendar_method %q: must be one of %s, or auto", value, strings.Join(CalendarMethods, ", "))
		}
		c.CalendarMethod = CalendarMethods[i]
	case "remote_lookup":
		v, err := parseSwitch(value)
		if err != nil {
			return fmt.Errorf("invalid remote_lookup %q: %w", value, err)
		}
		c.RemoteLookup = &v
	case "format":
		c.Format = value
	case "cache_dir":
		c.CacheDir = value
	case "cache_backend":
		v := strings.ToLower(value)
		if !slices.Contains(CacheBackends, v) {
			return fmt.Errorf("invalid cache_backend %q: must be one of %s", value, strings.Join(CacheBackends, ", "))
		}
		c.CacheBackend = v
	case "redis_addr":
		c.RedisAddr = value
	case "db_path":
		c.DBPath = value
	case "listen":
		c.Listen = value
	case "log_level":
		v := strings.ToLower(value)
		if !slices.Contains(logLevels, v) {
			return fmt.Errorf("invalid log_level %q: must be one of %s", value, strings.Join(logLevels, ", "))
		}
		c.LogLevel = v
	case "log_format":
		v := strings.ToLower(value)
		if v != "text" && v != "json" {
			return fmt.Errorf("invalid log_format %q: must be \"text\" or \"json\"", value)
		}
		c.LogFormat = v
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "hijri_offset":
		if c.HijriOffset == nil {
			return "", nil
		}
		return strconv.Itoa(*c.HijriOffset), nil
	case "calendar_method":
		return c.CalendarMethod, nil
	case "remote_lookup":
		if c.RemoteLookup == nil {
			return "", nil
		}
		if *c.RemoteLookup {
			return "on", nil
		}
		return "off", nil
	case "format":
		return c.Format, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "cache_backend":
		return c.CacheBackend, nil
	case "redis_addr":
		return c.RedisAddr, nil
	case "db_path":
		return c.DBPath, nil
	case "listen":
		return c.Listen, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Merge returns a copy of c with every unset field taken from base.
func (c *Config) Merge(base Config) Config {
	out := base
	if c.HijriOffset != nil {
		out.HijriOffset = c.HijriOffset
	}
	if c.RemoteLookup != nil {
		out.RemoteLookup = c.RemoteLookup
	}
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&out.CalendarMethod, c.CalendarMethod},
		{&out.Format, c.Format},
		{&out.CacheDir, c.CacheDir},
		{&out.CacheBackend, c.CacheBackend},
		{&out.RedisAddr, c.RedisAddr},
		{&out.DBPath, c.DBPath},
		{&out.Listen, c.Listen},
		{&out.LogLevel, c.LogLevel},
		{&out.LogFormat, c.LogFormat},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return out
}

// OffsetOrDefault returns the Hijri offset, falling back to the given default.
func (c *Config) OffsetOrDefault(def int) int {
	if c.HijriOffset != nil {
		return *c.HijriOffset
	}
	return def
}

// RemoteLookupOrDefault returns whether remote lookups are enabled.
func (c *Config) RemoteLookupOrDefault(def bool) bool {
	if c.RemoteLookup != nil {
		return *c.RemoteLookup
	}
	return def
}

func parseSwitch(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, errors.New(`must be "on" or "off"`)
}
