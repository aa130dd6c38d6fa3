package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location relative to the repo root.
// DASHBOARD_CONFIG overrides it.
var ConfigPath = "services/dashboard/config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                      string   `yaml:"port"`
	LogLevel                  string   `yaml:"logLevel"`
	Language                  string   `yaml:"language"`
	CRMBaseURL                string   `yaml:"crmBaseURL"`
	CRMTimeout                string   `yaml:"crmTimeout"`
	ContactListLimit          int      `yaml:"contactListLimit"`
	RedisAddr                 string   `yaml:"redisAddr"`
	RedisPassword             string   `yaml:"redisPassword"`
	SessionTTL                string   `yaml:"sessionTTL"`
	SessionCookieName         string   `yaml:"sessionCookieName"`
	SessionCookieSecure       bool     `yaml:"sessionCookieSecure"`
	AllowedOrigins            []string `yaml:"allowedOrigins"`
	TrustedProxyCIDRs         []string `yaml:"trustedProxyCidrs"`
	LoginRateLimitPerMinute   int      `yaml:"loginRateLimitPerMinute"`
	ContactRateLimitPerMinute int      `yaml:"contactRateLimitPerMinute"`
	ChatRateLimitPerMinute    int      `yaml:"chatRateLimitPerMinute"`
}

// Load reads config from path (defaults to ConfigPath) and applies environment overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_CONFIG")); v != "" {
		path = v
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
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
	setInt := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString("PORT", &cfg.Port)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("DASHBOARD_LANGUAGE", &cfg.Language)
	setString("CRM_BASE_URL", &cfg.CRMBaseURL)
	setString("CRM_TIMEOUT", &cfg.CRMTimeout)
	setInt("DASHBOARD_CONTACT_LIST_LIMIT", &cfg.ContactListLimit)
	setString("REDIS_ADDR", &cfg.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.RedisPassword)
	setString("DASHBOARD_SESSION_TTL", &cfg.SessionTTL)
	setString("DASHBOARD_SESSION_COOKIE_NAME", &cfg.SessionCookieName)
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_SESSION_COOKIE_SECURE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SessionCookieSecure = b
		}
	}
	if v := os.Getenv("DASHBOARD_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("DASHBOARD_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	setInt("DASHBOARD_LOGIN_RATE_LIMIT_PER_MINUTE", &cfg.LoginRateLimitPerMinute)
	setInt("DASHBOARD_CONTACT_RATE_LIMIT_PER_MINUTE", &cfg.ContactRateLimitPerMinute)
	setInt("DASHBOARD_CHAT_RATE_LIMIT_PER_MINUTE", &cfg.ChatRateLimitPerMinute)
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	if strings.TrimSpace(cfg.CRMBaseURL) == "" {
		return errors.New("config: crmBaseURL is required (set in config.yaml or CRM_BASE_URL)")
	}
	u, err := url.Parse(cfg.CRMBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: crmBaseURL %q must be an absolute URL", cfg.CRMBaseURL)
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required for sessions and rate limiting")
	}
	if _, err := ParseDuration(cfg.CRMTimeout, time.Second); err != nil {
		return fmt.Errorf("config: crmTimeout: %w", err)
	}
	if _, err := ParseDuration(cfg.SessionTTL, time.Hour); err != nil {
		return fmt.Errorf("config: sessionTTL: %w", err)
	}
	if cfg.ContactListLimit < 0 {
		return errors.New("config: contactListLimit must be >= 0")
	}
	if cfg.LoginRateLimitPerMinute < 0 || cfg.ContactRateLimitPerMinute < 0 || cfg.ChatRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

// ParseDuration parses an optional duration; empty yields fallback.
func ParseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", raw)
	}
	return d, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
