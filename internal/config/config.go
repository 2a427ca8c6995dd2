package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	Database      DatabaseConfig
	MotherDuck    MotherDuckConfig
	Publish       PublishConfig
	Metrics       MetricsConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type DatabaseConfig struct {
	Path string
}

type MotherDuckConfig struct {
	Database string
}

type PublishConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type MetricsConfig struct {
	Address string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("DUCKFLOW_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid DUCKFLOW_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "DUCKFLOW_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DUCKFLOW_DB_PATH", &cfg.Database.Path); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DUCKFLOW_MOTHERDUCK_DATABASE", &cfg.MotherDuck.Database); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DUCKFLOW_PUBLISH_ENABLED", &cfg.Publish.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DUCKFLOW_PUBLISH_ENDPOINT", &cfg.Publish.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DUCKFLOW_PUBLISH_REGION", &cfg.Publish.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DUCKFLOW_PUBLISH_BUCKET", &cfg.Publish.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DUCKFLOW_PUBLISH_ACCESS_KEY", &cfg.Publish.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DUCKFLOW_PUBLISH_SECRET_KEY", &cfg.Publish.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DUCKFLOW_PUBLISH_USE_SSL", &cfg.Publish.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DUCKFLOW_PUBLISH_PREFIX", &cfg.Publish.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DUCKFLOW_PUBLISH_AUTO_CREATE_BUCKET", &cfg.Publish.AutoCreateBucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DUCKFLOW_METRICS_ADDR", &cfg.Metrics.Address); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DUCKFLOW_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "DUCKFLOW_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.Database.Path == "" {
		return Config{}, fmt.Errorf("database path is required")
	}
	if cfg.MotherDuck.Database == "" {
		return Config{}, fmt.Errorf("motherduck database name is required")
	}
	if cfg.Publish.Enabled {
		if cfg.Publish.Endpoint == "" {
			return Config{}, fmt.Errorf("publish endpoint is required when publishing is enabled")
		}
		if cfg.Publish.Bucket == "" {
			return Config{}, fmt.Errorf("publish bucket is required when publishing is enabled")
		}
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "duckflow"},
		Database: DatabaseConfig{
			Path: ":memory:",
		},
		MotherDuck: MotherDuckConfig{
			Database: "demo_db",
		},
		Publish: PublishConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "duckflow",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Metrics: MetricsConfig{
			Address: "",
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Observability.LogJSON = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Publish.UseSSL = true
		cfg.Publish.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
