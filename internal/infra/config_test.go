package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("PREVIEW_BASE_URL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.InMemory() {
		t.Fatal("expected in-memory mode without DATABASE_URL")
	}
	if cfg.ModelProvider != ProviderStatic {
		t.Fatalf("ModelProvider = %q, want static", cfg.ModelProvider)
	}
	if cfg.PreviewBaseURL != "http://localhost:8080/v1/previews" {
		t.Fatalf("PreviewBaseURL mismatch: %q", cfg.PreviewBaseURL)
	}
	if cfg.PreviewReadyTimeout != 5*time.Second {
		t.Fatalf("PreviewReadyTimeout = %s", cfg.PreviewReadyTimeout)
	}
	if cfg.ProviderTimeout != time.Minute {
		t.Fatalf("ProviderTimeout = %s", cfg.ProviderTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "1919")
	t.Setenv("MODEL_PROVIDER", "OpenAI")
	t.Setenv("PREVIEW_BASE_URL", "https://preview.example.com/")
	t.Setenv("PREVIEW_READY_TIMEOUT_MS", "2500")
	t.Setenv("WORKER_POLL_INTERVAL", "500ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InMemory() {
		t.Fatal("expected database mode")
	}
	if cfg.ModelProvider != ProviderOpenAI {
		t.Fatalf("ModelProvider = %q", cfg.ModelProvider)
	}
	if cfg.PreviewBaseURL != "https://preview.example.com" {
		t.Fatalf("PreviewBaseURL mismatch: %q", cfg.PreviewBaseURL)
	}
	if cfg.PreviewReadyTimeout != 2500*time.Millisecond || cfg.WorkerPollInterval != 500*time.Millisecond {
		t.Fatalf("durations mismatch: %s %s", cfg.PreviewReadyTimeout, cfg.WorkerPollInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
	if !cfg.TracingEnabled {
		t.Fatal("expected tracing enabled")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "qwen")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
