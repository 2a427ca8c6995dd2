package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/duckflow/duckflow/internal/config"
)

func TestNewLoggerEmitsJSONWithServiceAttributes(t *testing.T) {
	cfg := config.Config{
		Profile: config.ProfileDev,
		Service: config.ServiceConfig{Name: "duckflow-test"},
		Observability: config.ObservabilityConfig{
			LogLevel: slog.LevelInfo,
			LogJSON:  true,
		},
	}

	buf := bytes.NewBuffer(nil)
	logger := NewLogger(cfg, buf)
	logger.Info("hello", slog.String("key", "value"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if record["service"] != "duckflow-test" {
		t.Fatalf("service = %v", record["service"])
	}
	if record["profile"] != "dev" {
		t.Fatalf("profile = %v", record["profile"])
	}
	if record["key"] != "value" {
		t.Fatalf("key = %v", record["key"])
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	cfg := config.Config{
		Profile: config.ProfileTest,
		Service: config.ServiceConfig{Name: "duckflow-test"},
		Observability: config.ObservabilityConfig{
			LogLevel: slog.LevelWarn,
			LogJSON:  false,
		},
	}

	buf := bytes.NewBuffer(nil)
	logger := NewLogger(cfg, buf)
	logger.Debug("should be dropped")
	logger.Warn("should be kept")

	output := buf.String()
	if strings.Contains(output, "should be dropped") {
		t.Fatalf("debug record was emitted: %q", output)
	}
	if !strings.Contains(output, "should be kept") {
		t.Fatalf("warn record missing: %q", output)
	}
}

func TestNewLoggerNilWriterDoesNotPanic(t *testing.T) {
	cfg := config.Config{Service: config.ServiceConfig{Name: "duckflow-test"}}
	logger := NewLogger(cfg, nil)
	logger.Info("discarded")
}
