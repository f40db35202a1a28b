package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 8000 {
		t.Errorf("APIPort = %d, want 8000", cfg.APIPort)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
	if !cfg.CacheEnabled || cfg.CacheTTL != time.Hour {
		t.Errorf("cache defaults = %v/%v", cfg.CacheEnabled, cfg.CacheTTL)
	}
	if cfg.IsProduction() {
		t.Error("default environment must not be production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction = false with ENVIRONMENT=production")
	}
	if cfg.CacheEnabled {
		t.Error("CacheEnabled = true with CACHE_ENABLED=false")
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v, want 30s", cfg.RateLimitWindow)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowOrigins = %v", cfg.CORSAllowOrigins)
	}
}

func TestLoadPortFallsBackToPORT(t *testing.T) {
	t.Setenv("PORT", "3333")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 3333 {
		t.Errorf("APIPort = %d, want PORT fallback 3333", cfg.APIPort)
	}
}
