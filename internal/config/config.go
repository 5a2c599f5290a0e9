package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// BaseURLEnv selects the analysis endpoint, overriding the config file.
const BaseURLEnv = "TWEELYZER_API_BASE_URL"

// DefaultBaseURL is the local development address of the analysis API.
const DefaultBaseURL = "http://127.0.0.1:8000"

type Config struct {
	API     API     `yaml:"api"`
	Export  Export  `yaml:"export"`
	Server  Server  `yaml:"server"`
	History History `yaml:"history"`
	Reader  Reader  `yaml:"reader"`
	Logging Logging `yaml:"logging"`
}

type API struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
}

type Export struct {
	Dir string `yaml:"dir"`
}

type Server struct {
	Port     int `yaml:"port"`
	Sessions int `yaml:"sessions"`
}

type History struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
}

type Reader struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for tweelyzer.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "tweelyzer")
}

// DataDir returns the XDG data directory for tweelyzer.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "tweelyzer")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/tweelyzer/config.yaml > ./config.yaml.
// It returns "" when no file exists and none was requested.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file, then applies environment
// overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadDotEnv loads ./.env into the process environment if present.
// Variables already set are not overridden.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		API: API{
			BaseURL: DefaultBaseURL,
			Timeout: 30 * time.Second,
			Retries: 1,
			Backoff: 500 * time.Millisecond,
		},
		Server:  Server{Port: 8080, Sessions: 256},
		Reader:  Reader{Timeout: 15 * time.Second, UserAgent: "Tweelyzer/1.0 (evidence reader)"},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.API.Retries < 0 || cfg.API.Retries > 1 {
		return nil, fmt.Errorf("api.retries must be 0 or 1, got %d", cfg.API.Retries)
	}
	if cfg.API.Timeout <= 0 {
		return nil, fmt.Errorf("api.timeout must be positive, got %s", cfg.API.Timeout)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(BaseURLEnv)); v != "" {
		c.API.BaseURL = v
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.History.DataDir != "" {
		return c.History.DataDir
	}
	return DataDir()
}

// GetExportDir returns the directory reports are written to.
func (c *Config) GetExportDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	return "."
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
