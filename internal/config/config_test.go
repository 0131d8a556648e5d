package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIConfigFile != "./configs/config.json" {
		t.Fatalf("unexpected api_config_file %q", cfg.APIConfigFile)
	}
	if cfg.HTTPTimeout != 0 {
		t.Fatalf("expected no http timeout by default, got %v", cfg.HTTPTimeout)
	}
	if !cfg.CheckDuplicateRegister {
		t.Fatalf("expected duplicate registration check enabled by default")
	}
	if cfg.StorageTTL != 7*24*time.Hour {
		t.Fatalf("unexpected storage ttl %v", cfg.StorageTTL)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("API_CONFIG_FILE", "/tmp/endpoints.yaml")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "15")
	t.Setenv("CHECK_DUPLICATE_REGISTER", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIConfigFile != "/tmp/endpoints.yaml" {
		t.Fatalf("unexpected api_config_file %q", cfg.APIConfigFile)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("unexpected http timeout %v", cfg.HTTPTimeout)
	}
	if cfg.CheckDuplicateRegister {
		t.Fatalf("expected duplicate registration check disabled")
	}
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "-1")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
}

func TestLoadRunInterval(t *testing.T) {
	t.Setenv("RUN_INTERVAL_SECONDS", "300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RunInterval != 5*time.Minute {
		t.Fatalf("unexpected run interval %v", cfg.RunInterval)
	}
}

func TestLoadRejectsNegativeRunInterval(t *testing.T) {
	t.Setenv("RUN_INTERVAL_SECONDS", "-5")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative run interval")
	}
}

func TestConfigJSONOmitsTestPassword(t *testing.T) {
	t.Setenv("TEST_PASSWORD", "s3cret-Pass")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TestPassword != "s3cret-Pass" {
		t.Fatalf("unexpected test password %q", cfg.TestPassword)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if strings.Contains(string(raw), "s3cret-Pass") {
		t.Fatalf("config JSON leaks test password: %s", raw)
	}
}
