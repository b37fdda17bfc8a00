// Package config loads library settings from an optional TOML or YAML file
// named by OBJINFO_CONFIG, then applies OBJINFO_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/hsiuhsiu/objinfo-go/internal/logging"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "OBJINFO_CONFIG"

// Config holds everything the library reads at setup.
type Config struct {
	LogLevel      string `toml:"log_level" yaml:"log_level" env:"OBJINFO_LOG_LEVEL"`
	LogFormat     string `toml:"log_format" yaml:"log_format" env:"OBJINFO_LOG_FORMAT"`
	LogFile       string `toml:"log_file" yaml:"log_file" env:"OBJINFO_LOG_FILE"`
	CacheQueries  bool   `toml:"cache_queries" yaml:"cache_queries" env:"OBJINFO_CACHE"`
	MaxObjectSize int64  `toml:"max_object_size" yaml:"max_object_size" env:"OBJINFO_MAX_OBJECT_SIZE"`
	UseMmap       bool   `toml:"mmap" yaml:"mmap" env:"OBJINFO_MMAP"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel:     "error",
		LogFormat:    "json",
		CacheQueries: true,
		UseMmap:      true,
	}
}

// Validate rejects settings the library cannot act on.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.MaxObjectSize < 0 {
		errs = append(errs, fmt.Errorf("max_object_size must not be negative, got %d", c.MaxObjectSize))
	}
	return errors.Join(errs...)
}

// Load builds a Config from defaults, the file named by OBJINFO_CONFIG (if
// set) and environment overrides, in that order.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv(EnvConfig)); path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return Default(), err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Default(), err
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadFile overlays the file at path onto Default. The format follows the
// extension: .toml, .yaml or .yml.
func LoadFile(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadTOML(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	}
	return Config{}, fmt.Errorf("load config %s: unsupported extension", path)
}

func loadTOML(path string) (Config, error) {
	cfg := Default()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}
	if meta.IsDefined("cache_queries") {
		cfg.CacheQueries = raw.CacheQueries
	}
	if meta.IsDefined("max_object_size") {
		cfg.MaxObjectSize = raw.MaxObjectSize
	}
	if meta.IsDefined("mmap") {
		cfg.UseMmap = raw.UseMmap
	}
	return cfg, nil
}

func loadYAML(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.LogLevel = strings.TrimSpace(cfg.LogLevel)
	cfg.LogFormat = strings.TrimSpace(cfg.LogFormat)
	cfg.LogFile = strings.TrimSpace(cfg.LogFile)
	return cfg, nil
}

// ApplyEnv overrides fields from their `env` tags. Unset or empty variables
// leave the field alone.
func ApplyEnv(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		value := strings.TrimSpace(os.Getenv(name))
		if value == "" {
			continue
		}
		if err := setField(v.Field(i), value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// LoggingConfig returns the logging settings. Output is left nil: opening
// LogFile is up to the caller, which then owns the file.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat}
}
