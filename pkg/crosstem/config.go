package crosstem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize bounds the YAML config file we are willing to parse.
const MaxConfigFileSize = 1024 * 1024

// Config is the runtime configuration shared by the CLI and the library
// constructors that need file locations or tuning knobs.
type Config struct {
	// DataDir holds <lang>_derivations.json, <lang>_inflections.json and
	// etymology.json.
	DataDir string `yaml:"data_dir"`
	// Database is an optional SQLite file. When set, language data is read
	// from it instead of DataDir.
	Database string `yaml:"database"`
	// Language is the default ISO 639-3 code.
	Language string `yaml:"language"`
	// CacheSize is the number of stem results cached per language (0 disables).
	CacheSize int `yaml:"cache_size"`
	// Workers and BatchSize tune corpus ingestion.
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
	// ThresholdOverrides replaces the built-in productivity thresholds.
	ThresholdOverrides map[string]Thresholds `yaml:"threshold_overrides"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		DataDir:   "data",
		Language:  "eng",
		CacheSize: 0,
		Workers:   4,
		BatchSize: 50,
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/crosstem/config.yaml (or the
// platform equivalent). It returns "" if no config directory is known.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "crosstem", "config.yaml")
}

// LoadConfig reads path over DefaultConfig. A missing file is not an error;
// the defaults are returned. CROSSTEM_DATA_DIR overrides data_dir.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		case info.Size() > MaxConfigFileSize:
			return cfg, fmt.Errorf("%w: %s is larger than %d bytes", ErrInvalidConfig, path, MaxConfigFileSize)
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return cfg, err
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
			}
		}
	}
	if dir := os.Getenv("CROSSTEM_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges and language codes.
func (c Config) Validate() error {
	if c.Language != "" && !IsSupported(c.Language) {
		_, err := LookupLanguage(c.Language)
		return err
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	}
	if c.Workers < 0 || c.BatchSize < 0 {
		return fmt.Errorf("%w: workers and batch_size must not be negative", ErrInvalidConfig)
	}
	for code, t := range c.ThresholdOverrides {
		if !IsSupported(code) {
			_, err := LookupLanguage(code)
			return err
		}
		if t.Verb < 0 || t.Other < 0 {
			return fmt.Errorf("%w: thresholds for %s must not be negative", ErrInvalidConfig, code)
		}
	}
	return nil
}

// ThresholdsFor returns the override for code if one is configured, else the
// built-in thresholds.
func (c Config) ThresholdsFor(code string) Thresholds {
	if t, ok := c.ThresholdOverrides[code]; ok {
		return t
	}
	return ThresholdsFor(code)
}
