// Package config handles loading and saving user configuration for dlgview.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/f3rmion/dlgview/internal/text"
)

// FileName is the config file looked up inside the config directory.
const FileName = "config.yaml"

// Config holds all user configuration.
type Config struct {
	DataDir      string       `yaml:"data_dir"`
	TlkDB        string       `yaml:"tlk_db"`
	PlotsCSV     string       `yaml:"plots_csv"`
	DialogCSV    string       `yaml:"dialog_csv"`
	TableTalkCSV string       `yaml:"table_talk_csv"`
	UTCDir       string       `yaml:"utc_dir"`
	AudioDir     string       `yaml:"audio_dir"`
	PlayerGender string       `yaml:"player_gender"`
	CacheSize    int          `yaml:"cache_size"`
	WheelRadius  float64      `yaml:"wheel_radius"`
	Log          LogConfig    `yaml:"log"`
	Server       ServerConfig `yaml:"server"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.TlkDB == "" {
		c.TlkDB = filepath.Join(c.DataDir, "tlk.db")
	}
	if c.PlotsCSV == "" {
		c.PlotsCSV = filepath.Join("plo_727", "plots.csv")
	}
	if c.DialogCSV == "" {
		c.DialogCSV = filepath.Join("DLG", "dialog.csv")
	}
	if c.TableTalkCSV == "" {
		c.TableTalkCSV = filepath.Join("DLG", "csv", "TableTalk.csv")
	}
	if c.UTCDir == "" {
		c.UTCDir = "utc"
	}
	if c.AudioDir == "" {
		c.AudioDir = "all_conv_wav"
	}
	if c.PlayerGender == "" {
		c.PlayerGender = "male"
	}
	if c.CacheSize == 0 {
		c.CacheSize = 64
	}
	if c.WheelRadius == 0 {
		c.WheelRadius = 150
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var errs []string

	if _, err := text.ParseGender(c.PlayerGender); err != nil {
		errs = append(errs, fmt.Sprintf("player_gender: %v", err))
	}
	if c.CacheSize <= 0 {
		errs = append(errs, fmt.Sprintf("cache_size must be positive, got %d", c.CacheSize))
	}
	if c.WheelRadius <= 0 {
		errs = append(errs, fmt.Sprintf("wheel_radius must be positive, got %g", c.WheelRadius))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not text or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Gender returns the parsed player gender, male when unset or invalid.
func (c *Config) Gender() text.Gender {
	g, err := text.ParseGender(c.PlayerGender)
	if err != nil {
		return text.Male
	}
	return g
}

// DataPath resolves p against DataDir unless it is absolute.
func (c *Config) DataPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFile loads configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Load loads config.yaml from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFile(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes configuration to a YAML file.
func Save(path string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// GetConfigDir returns the default configuration directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dlgview"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
