package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("insightq-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.ObjectStore.Enabled {
		t.Fatal("ObjectStore.Enabled should default to false")
	}
	if cfg.Upload.MaxBytes != 64<<20 {
		t.Fatalf("Upload.MaxBytes = %d", cfg.Upload.MaxBytes)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0 {
		t.Fatalf("AI.Temperature = %v, want 0", cfg.AI.Temperature)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"INSIGHTQ_PROFILE": "prod"})
	cfg, err := Load("insightq-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"INSIGHTQ_PROFILE":              "test",
		"INSIGHTQ_SERVICE_NAME":         "insightq-custom",
		"INSIGHTQ_HTTP_ADDR":            ":9999",
		"INSIGHTQ_HTTP_READ_TIMEOUT":    "2s",
		"INSIGHTQ_UPLOAD_MAX_BYTES":     "1048576",
		"INSIGHTQ_OBJECTSTORE_ENABLED":  "true",
		"INSIGHTQ_OBJECTSTORE_ENDPOINT": "s3.example.com",
		"INSIGHTQ_OBJECTSTORE_BUCKET":   "insightq-prod",
		"INSIGHTQ_AI_BASE_URL":          "https://api.example.com",
		"INSIGHTQ_AI_API_KEY":           "secret-key",
		"INSIGHTQ_AI_MODEL":             "gpt-4o-mini",
		"INSIGHTQ_AI_TEMPERATURE":       "0.3",
		"INSIGHTQ_AI_TIMEOUT":           "21s",
		"INSIGHTQ_LOG_LEVEL":            "error",
		"INSIGHTQ_AUTH_REQUIRED":        "true",
		"INSIGHTQ_AUTH_STATIC_KEYS":     "k1:team-a:asker",
	})
	cfg, err := Load("insightq-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "insightq-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Upload.MaxBytes != 1048576 {
		t.Fatalf("Upload.MaxBytes = %d", cfg.Upload.MaxBytes)
	}
	if !cfg.ObjectStore.Enabled {
		t.Fatal("ObjectStore.Enabled = false, want true")
	}
	if cfg.ObjectStore.Endpoint != "s3.example.com" {
		t.Fatalf("ObjectStore.Endpoint = %q", cfg.ObjectStore.Endpoint)
	}
	if cfg.AI.BaseURL != "https://api.example.com" {
		t.Fatalf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Fatalf("AI.Temperature = %v", cfg.AI.Temperature)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.StaticKeys != "k1:team-a:asker" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
}

func TestLoadRejectsInvalidProfile(t *testing.T) {
	_, err := Load("insightq-api", mapLookup(map[string]string{"INSIGHTQ_PROFILE": "staging"}))
	if err == nil {
		t.Fatal("expected error for invalid profile")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	_, err := Load("insightq-api", mapLookup(map[string]string{"INSIGHTQ_AI_TIMEOUT": "soon"}))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
