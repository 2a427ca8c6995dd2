package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("duckflow", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.Database.Path != ":memory:" {
		t.Fatalf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.MotherDuck.Database != "demo_db" {
		t.Fatalf("MotherDuck.Database = %q", cfg.MotherDuck.Database)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Publish.Enabled {
		t.Fatal("Publish.Enabled should default to false")
	}
	if cfg.Publish.Endpoint != "localhost:9000" {
		t.Fatalf("Publish.Endpoint = %q", cfg.Publish.Endpoint)
	}
	if cfg.Metrics.Address != "" {
		t.Fatalf("Metrics.Address = %q", cfg.Metrics.Address)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"DUCKFLOW_PROFILE": "prod"})
	cfg, err := Load("duckflow", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Publish.UseSSL {
		t.Fatal("Publish.UseSSL should default to true in prod")
	}
	if cfg.Publish.AutoCreateBucket {
		t.Fatal("Publish.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"DUCKFLOW_SERVICE_NAME":        "duckflow-demo",
		"DUCKFLOW_DB_PATH":             "/tmp/warehouse.db",
		"DUCKFLOW_MOTHERDUCK_DATABASE": "analytics",
		"DUCKFLOW_PUBLISH_ENABLED":     "true",
		"DUCKFLOW_PUBLISH_ENDPOINT":    "minio.internal:9000",
		"DUCKFLOW_PUBLISH_BUCKET":      "reports",
		"DUCKFLOW_METRICS_ADDR":        ":9102",
		"DUCKFLOW_LOG_LEVEL":           "warn",
		"DUCKFLOW_LOG_JSON":            "false",
	})
	cfg, err := Load("duckflow", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "duckflow-demo" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Database.Path != "/tmp/warehouse.db" {
		t.Fatalf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.MotherDuck.Database != "analytics" {
		t.Fatalf("MotherDuck.Database = %q", cfg.MotherDuck.Database)
	}
	if !cfg.Publish.Enabled {
		t.Fatal("Publish.Enabled should be true")
	}
	if cfg.Publish.Endpoint != "minio.internal:9000" {
		t.Fatalf("Publish.Endpoint = %q", cfg.Publish.Endpoint)
	}
	if cfg.Metrics.Address != ":9102" {
		t.Fatalf("Metrics.Address = %q", cfg.Metrics.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogJSON {
		t.Fatal("LogJSON should be false")
	}
}

func TestLoadRejectsInvalidProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{"DUCKFLOW_PROFILE": "staging"})
	if _, err := Load("duckflow", lookup); err == nil {
		t.Fatal("Load() expected error for invalid profile")
	}
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	lookup := mapLookup(map[string]string{"DUCKFLOW_LOG_LEVEL": "verbose"})
	if _, err := Load("duckflow", lookup); err == nil {
		t.Fatal("Load() expected error for invalid log level")
	}
}

func TestLoadRequiresPublishEndpointWhenEnabled(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"DUCKFLOW_PUBLISH_ENABLED":  "true",
		"DUCKFLOW_PUBLISH_ENDPOINT": "",
	})
	if _, err := Load("duckflow", lookup); err == nil {
		t.Fatal("Load() expected error for missing publish endpoint")
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
