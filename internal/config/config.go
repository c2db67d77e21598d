package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"driftwatch/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Check    CheckConfig    `yaml:"check"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Alert    AlertConfig    `yaml:"alert"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// CheckConfig tunes the drift check engine
type CheckConfig struct {
	Metric      string  `yaml:"metric"`
	Bins        int     `yaml:"bins"`
	Strategy    string  `yaml:"strategy"`
	Threshold   float64 `yaml:"threshold"`
	Floor       float64 `yaml:"floor"`
	MaxParallel int     `yaml:"max_parallel"`
}

// MonitorConfig tunes rolling monitoring
type MonitorConfig struct {
	Window           int    `yaml:"window"`
	Frequency        string `yaml:"frequency"`
	RefreshReference bool   `yaml:"refresh_reference"`
	MultiDrift       int    `yaml:"multi_drift"`
}

// AlertConfig wires delivery sinks
type AlertConfig struct {
	LogPath         string        `yaml:"log_path"`
	LogFormat       string        `yaml:"log_format"`
	SlackWebhookURL string        `yaml:"slack_webhook_url"`
	SlackChannel    string        `yaml:"slack_channel"`
	SlackTimeout    time.Duration `yaml:"slack_timeout"`
	KafkaBrokers    []string      `yaml:"kafka_brokers"`
	KafkaTopic      string        `yaml:"kafka_topic"`
}

// DatabaseConfig holds optional history store settings
type DatabaseConfig struct {
	URL     string `yaml:"url"`
	SSLMode string `yaml:"ssl_mode"`
}

// MetricsConfig holds the observability endpoint settings
type MetricsConfig struct {
	Addr    string `yaml:"addr"`
	Enabled bool   `yaml:"enabled"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Check:    loadCheckConfig(),
		Monitor:  loadMonitorConfig(),
		Alert:    loadAlertConfig(),
		Database: loadDatabaseConfig(),
		Metrics:  loadMetricsConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// LoadWithFile reads environment configuration, then overlays a YAML
// document on top of it. File values win over environment values.
func LoadWithFile(path string) (*Config, error) {
	config := &Config{
		Check:    loadCheckConfig(),
		Monitor:  loadMonitorConfig(),
		Alert:    loadAlertConfig(),
		Database: loadDatabaseConfig(),
		Metrics:  loadMetricsConfig(),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadCheckConfig() CheckConfig {
	return CheckConfig{
		Metric:      getEnvOrDefault("DRIFT_METRIC", "psi"),
		Bins:        getEnvIntOrDefault("DRIFT_BINS", 10),
		Strategy:    getEnvOrDefault("DRIFT_STRATEGY", "quantile"),
		Threshold:   getEnvFloatOrDefault("DRIFT_THRESHOLD", 0.2),
		Floor:       getEnvFloatOrDefault("DRIFT_FLOOR", 1e-4),
		MaxParallel: getEnvIntOrDefault("DRIFT_MAX_PARALLEL", 4),
	}
}

func loadMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Window:           getEnvIntOrDefault("MONITOR_WINDOW", 50),
		Frequency:        getEnvOrDefault("MONITOR_FREQUENCY", ""),
		RefreshReference: getEnvBoolOrDefault("MONITOR_REFRESH_REFERENCE", false),
		MultiDrift:       getEnvIntOrDefault("MONITOR_MULTI_DRIFT", 1),
	}
}

func loadAlertConfig() AlertConfig {
	return AlertConfig{
		LogPath:         getEnvOrDefault("ALERT_LOG_PATH", ""),
		LogFormat:       getEnvOrDefault("ALERT_LOG_FORMAT", "jsonl"),
		SlackWebhookURL: getEnvOrDefault("SLACK_WEBHOOK_URL", ""),
		SlackChannel:    getEnvOrDefault("SLACK_CHANNEL", "#alerts"),
		SlackTimeout:    getEnvDurationOrDefault("SLACK_TIMEOUT", 10*time.Second),
		KafkaBrokers:    splitNonEmpty(getEnvOrDefault("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnvOrDefault("KAFKA_TOPIC", "drift-alerts"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Addr:    getEnvOrDefault("METRICS_ADDR", ""),
		Enabled: getEnvBoolOrDefault("METRICS_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Check.Threshold <= 0 {
		return errors.ConfigInvalid("drift threshold must be positive")
	}
	if config.Check.Bins < 2 {
		return errors.ConfigInvalid("bin count must be at least 2")
	}
	if config.Check.Floor <= 0 || config.Check.Floor >= 1 {
		return errors.ConfigInvalid("smoothing floor must be in (0, 1)")
	}
	switch config.Check.Strategy {
	case "quantile", "width":
	default:
		return errors.ConfigInvalid("bin strategy must be quantile or width")
	}
	if config.Check.MaxParallel < 1 {
		return errors.ConfigInvalid("max parallel must be at least 1")
	}
	if config.Monitor.Window < 0 {
		return errors.ConfigInvalid("monitor window cannot be negative")
	}
	if config.Monitor.Window == 0 && config.Monitor.Frequency == "" {
		return errors.ConfigInvalid("monitor needs a window size or a frequency")
	}
	switch config.Monitor.Frequency {
	case "", "hour", "hourly", "day", "daily", "week", "weekly", "month", "monthly":
	default:
		return errors.ConfigInvalid("unknown monitor frequency " + config.Monitor.Frequency)
	}
	switch config.Alert.LogFormat {
	case "jsonl", "csv":
	default:
		return errors.ConfigInvalid("alert log format must be jsonl or csv")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
