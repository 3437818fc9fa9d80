package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.BroadcastCeiling != 10 {
		t.Errorf("expected default broadcast ceiling 10, got %d", cfg.BroadcastCeiling)
	}
	if cfg.Host != "http://localhost:8080" {
		t.Errorf("unexpected default host %s", cfg.Host)
	}
	if cfg.IsProduction() {
		t.Error("expected non-production by default")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected default origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("HOST", "https://backend.glassjournal.schemadesign.com/")
	t.Setenv("BROADCAST_CEILING", "25")
	t.Setenv("TIMELINE_API_URL", "https://timeline.example.com/v1")
	t.Setenv("ALLOWED_ORIGINS", "https://glassjournal.schemadesign.com, https://www.schemadesign.com")

	cfg := Load()

	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
	if cfg.Host != "https://backend.glassjournal.schemadesign.com" {
		t.Errorf("expected trailing slash trimmed from host, got %s", cfg.Host)
	}
	if cfg.BroadcastCeiling != 25 {
		t.Errorf("expected ceiling 25, got %d", cfg.BroadcastCeiling)
	}
	if cfg.TimelineAPIURL != "https://timeline.example.com/v1" {
		t.Errorf("unexpected timeline API URL %s", cfg.TimelineAPIURL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://www.schemadesign.com" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadIgnoresInvalidCeiling(t *testing.T) {
	t.Setenv("BROADCAST_CEILING", "not-a-number")

	cfg := Load()
	if cfg.BroadcastCeiling != 10 {
		t.Errorf("expected fallback to 10, got %d", cfg.BroadcastCeiling)
	}
}
