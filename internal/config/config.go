package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the reasoning core.
type Config struct {
	Port      int
	Version   string
	Evidence  EvidenceConfig
	Retention RetentionConfig
	Hooks     HooksConfig
	Telemetry TelemetryConfig
}

type EvidenceConfig struct {
	// Timeout bounds each evidence source lookup during an assessment.
	Timeout     time.Duration
	MemoryLimit int
}

type RetentionConfig struct {
	JanitorInterval time.Duration
	SessionTTL      time.Duration
	TraceCap        int
	PredictionTTL   time.Duration
	BoundaryTTL     time.Duration
}

type HooksConfig struct {
	Workers   int
	QueueSize int
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("MIMO_PORT", 8080),
		Version: envStr("MIMO_VERSION", "0.4.0"),
		Evidence: EvidenceConfig{
			Timeout:     envDur("MIMO_EVIDENCE_TIMEOUT", 3*time.Second),
			MemoryLimit: envInt("MIMO_EVIDENCE_MEMORY_LIMIT", 10),
		},
		Retention: RetentionConfig{
			JanitorInterval: envDur("MIMO_JANITOR_INTERVAL", time.Minute),
			SessionTTL:      envDur("MIMO_SESSION_TTL", time.Hour),
			TraceCap:        envInt("MIMO_TRACE_CAP", 1000),
			PredictionTTL:   envDur("MIMO_PREDICTION_TTL", time.Hour),
			BoundaryTTL:     envDur("MIMO_BOUNDARY_TTL", 30*24*time.Hour),
		},
		Hooks: HooksConfig{
			Workers:   envInt("MIMO_HOOK_WORKERS", 4),
			QueueSize: envInt("MIMO_HOOK_QUEUE_SIZE", 256),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", true),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "mimo-reasoning-core"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
