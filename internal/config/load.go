package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Load merges Defaults() with RETUNE_* environment overrides and an
// optional config.json in the working directory, then validates the result.
func Load() (*Config, error) {
	cfg := Defaults()

	applyEnvOverrides(cfg)

	if _, err := os.Stat("config.json"); err == nil {
		fileCfg, err := loadFromFile("config.json")
		if err != nil {
			return nil, fmt.Errorf("failed to load config.json: %w", err)
		}
		merge(cfg, fileCfg)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("RETUNE_HOST_LINK_ADDR"); val != "" {
		cfg.HostLinkAddr = val
	}

	if val := os.Getenv("RETUNE_API_ADDR"); val != "" {
		cfg.APIAddr = val
	}

	if val := os.Getenv("RETUNE_TICK_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.TickInterval = d
		}
	}

	if val := os.Getenv("RETUNE_TIMER_POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.TimerPollInterval = d
		}
	}

	if val := os.Getenv("RETUNE_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	if val := os.Getenv("RETUNE_LOG_FORMAT"); val != "" {
		cfg.LogFormat = val
	}

	if val := os.Getenv("RETUNE_AUTH_SECRET"); val != "" {
		cfg.AuthSecret = val
	}

	if val := os.Getenv("RETUNE_AUDIT_DIR"); val != "" {
		cfg.AuditDir = val
	}

	if val := os.Getenv("RETUNE_METRICS_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			cfg.MetricsEnabled = enabled
		}
	}
}

// fileConfig mirrors Config with pointer fields so absent keys are
// distinguishable from zero values.
type fileConfig struct {
	HostLinkAddr      *string `json:"hostLinkAddr"`
	APIAddr           *string `json:"apiAddr"`
	TickInterval      *string `json:"tickInterval"`
	TimerPollInterval *string `json:"timerPollInterval"`
	LogLevel          *string `json:"logLevel"`
	LogFormat         *string `json:"logFormat"`
	AuditDir          *string `json:"auditDir"`
	MetricsEnabled    *bool   `json:"metricsEnabled"`
}

func loadFromFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &fc, nil
}

func merge(cfg *Config, fc *fileConfig) {
	if fc.HostLinkAddr != nil {
		cfg.HostLinkAddr = *fc.HostLinkAddr
	}
	if fc.APIAddr != nil {
		cfg.APIAddr = *fc.APIAddr
	}
	if fc.TickInterval != nil {
		if d, err := time.ParseDuration(*fc.TickInterval); err == nil {
			cfg.TickInterval = d
		}
	}
	if fc.TimerPollInterval != nil {
		if d, err := time.ParseDuration(*fc.TimerPollInterval); err == nil {
			cfg.TimerPollInterval = d
		}
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	if fc.AuditDir != nil {
		cfg.AuditDir = *fc.AuditDir
	}
	if fc.MetricsEnabled != nil {
		cfg.MetricsEnabled = *fc.MetricsEnabled
	}
}

// Validate rejects configurations the daemon cannot run with.
func Validate(cfg *Config) error {
	if cfg.HostLinkAddr == "" {
		return fmt.Errorf("hostLinkAddr must not be empty")
	}
	if cfg.APIAddr == "" {
		return fmt.Errorf("apiAddr must not be empty")
	}
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("tickInterval must be positive, got %v", cfg.TickInterval)
	}
	if cfg.TimerPollInterval <= 0 {
		return fmt.Errorf("timerPollInterval must be positive, got %v", cfg.TimerPollInterval)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logLevel must be debug, info, warn or error, got %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("logFormat must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.AuditDir == "" {
		return fmt.Errorf("auditDir must not be empty")
	}
	return nil
}
