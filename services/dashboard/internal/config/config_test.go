package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const baseConfig = `
port: "8090"
logLevel: "info"
crmBaseURL: "http://localhost:8000/api/v1"
redisAddr: "localhost:6379"
sessionTTL: "12h"
allowedOrigins: ["http://localhost:5173"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CRM_BASE_URL", "https://crm.polimata.ai/api/v1")
	t.Setenv("DASHBOARD_ALLOWED_ORIGINS", "https://polimata.ai, https://www.polimata.ai")
	t.Setenv("DASHBOARD_SESSION_COOKIE_SECURE", "true")
	t.Setenv("DASHBOARD_LOGIN_RATE_LIMIT_PER_MINUTE", "3")

	cfg, err := Load(writeConfig(t, baseConfig))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CRMBaseURL != "https://crm.polimata.ai/api/v1" {
		t.Fatalf("crmBaseURL = %q", cfg.CRMBaseURL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://www.polimata.ai" {
		t.Fatalf("allowedOrigins = %v", cfg.AllowedOrigins)
	}
	if !cfg.SessionCookieSecure {
		t.Fatal("sessionCookieSecure = false, want true")
	}
	if cfg.LoginRateLimitPerMinute != 3 {
		t.Fatalf("loginRateLimitPerMinute = %d, want 3", cfg.LoginRateLimitPerMinute)
	}
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	t.Setenv("DASHBOARD_CONFIG", writeConfig(t, baseConfig))
	cfg, err := Load("does-not-exist.yaml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8090" {
		t.Fatalf("port = %q", cfg.Port)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := FileConfig{Port: "8090", CRMBaseURL: "http://localhost:8000/api/v1", RedisAddr: "localhost:6379"}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cases := map[string]func(*FileConfig){
		"missing port":      func(c *FileConfig) { c.Port = "" },
		"relative crm url":  func(c *FileConfig) { c.CRMBaseURL = "/api/v1" },
		"missing redis":     func(c *FileConfig) { c.RedisAddr = "" },
		"bad timeout":       func(c *FileConfig) { c.CRMTimeout = "soon" },
		"negative ttl":      func(c *FileConfig) { c.SessionTTL = "-1h" },
		"negative limit":    func(c *FileConfig) { c.ChatRateLimitPerMinute = -1 },
		"negative list cap": func(c *FileConfig) { c.ContactListLimit = -5 },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("", 10*time.Second)
	if err != nil || d != 10*time.Second {
		t.Fatalf("fallback = %v, %v", d, err)
	}
	d, err = ParseDuration("30s", time.Second)
	if err != nil || d != 30*time.Second {
		t.Fatalf("parsed = %v, %v", d, err)
	}
}
