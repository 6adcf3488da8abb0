// Package config loads the retune daemon configuration from defaults,
// RETUNE_* environment overrides and an optional config.json file, in that
// order.
package config

import "time"

// Config holds the daemon configuration.
type Config struct {
	// HostLinkAddr is the TCP address of the retune packet link.
	HostLinkAddr string `json:"hostLinkAddr"`

	// APIAddr is the HTTP operations server address.
	APIAddr string `json:"apiAddr"`

	// TickInterval is the work-loop tick period.
	TickInterval time.Duration `json:"tickInterval"`

	// TimerPollInterval is how often the timer service samples the
	// hardware timestamp counter.
	TimerPollInterval time.Duration `json:"timerPollInterval"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel"`

	// LogFormat is text or json.
	LogFormat string `json:"logFormat"`

	// AuthSecret enables bearer-token auth on the operations API when
	// non-empty.
	AuthSecret string `json:"-"`

	// AuditDir is where the request audit log is written.
	AuditDir string `json:"auditDir"`

	// MetricsEnabled selects real diagnostic counters; when false the
	// scheduler runs with no-op counters and no /metrics endpoint.
	MetricsEnabled bool `json:"metricsEnabled"`
}

// Defaults returns the baseline configuration.
func Defaults() *Config {
	return &Config{
		HostLinkAddr:      ":4267",
		APIAddr:           ":8080",
		TickInterval:      time.Millisecond,
		TimerPollInterval: time.Millisecond,
		LogLevel:          "info",
		LogFormat:         "text",
		AuditDir:          "logs",
		MetricsEnabled:    true,
	}
}
