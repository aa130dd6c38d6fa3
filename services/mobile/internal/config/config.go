package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location relative to the repo root.
// POLIMATA_CONFIG overrides it. A missing file leaves the defaults in place.
var ConfigPath = "services/mobile/config.yaml"

const (
	defaultCRMBaseURL = "http://localhost:8000/api/v1"
	defaultCRMTimeout = "30s"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	LogLevel    string `yaml:"logLevel"`
	Language    string `yaml:"language"`
	CRMBaseURL  string `yaml:"crmBaseURL"`
	CRMTimeout  string `yaml:"crmTimeout"`
	SessionPath string `yaml:"sessionPath"`
}

// Load reads config from path (defaults to ConfigPath) and applies environment overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{
		LogLevel:   "warn",
		Language:   "es",
		CRMBaseURL: defaultCRMBaseURL,
		CRMTimeout: defaultCRMTimeout,
	}
	if path == "" {
		path = ConfigPath
	}
	if v := strings.TrimSpace(os.Getenv("POLIMATA_CONFIG")); v != "" {
		path = v
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	if cfg.SessionPath == "" {
		cfg.SessionPath = defaultSessionPath()
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("POLIMATA_LANGUAGE", &cfg.Language)
	setString("CRM_BASE_URL", &cfg.CRMBaseURL)
	setString("CRM_TIMEOUT", &cfg.CRMTimeout)
	setString("POLIMATA_SESSION_PATH", &cfg.SessionPath)
}

func validateConfig(cfg FileConfig) error {
	u, err := url.Parse(strings.TrimSpace(cfg.CRMBaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: crmBaseURL %q must be an absolute URL", cfg.CRMBaseURL)
	}
	if _, err := Timeout(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.SessionPath) == "" {
		return errors.New("config: sessionPath is required (set in config.yaml or POLIMATA_SESSION_PATH)")
	}
	return nil
}

// Timeout returns the per-request backend timeout.
func Timeout(cfg FileConfig) (time.Duration, error) {
	raw := strings.TrimSpace(cfg.CRMTimeout)
	if raw == "" {
		raw = defaultCRMTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: crmTimeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: crmTimeout %q must be positive", raw)
	}
	return d, nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".polimata", "session.json")
	}
	return filepath.Join(home, ".polimata", "session.json")
}
