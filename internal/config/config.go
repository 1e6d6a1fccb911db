// Package config loads the settings of the example driver program. Values are
// layered as defaults, then an optional YAML file, then TASKSERVER_*
// environment variables, then explicitly set command-line flags.
package config

import "time"

// Config holds all driver configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Run     RunConfig     `mapstructure:"run" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig maps onto the task server's options.
type ServerConfig struct {
	StopTimeout   time.Duration `mapstructure:"stop_timeout" validate:"gte=0"`
	RateLimit     float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst     int           `mapstructure:"rate_burst" validate:"gte=0"`
	RetryAttempts int           `mapstructure:"retry_attempts" validate:"gte=1,lte=10"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	Backoff       string        `mapstructure:"backoff" validate:"oneof=exponential jittered decorrelated"`
	// CPUCore pins the worker thread; -1 leaves it unpinned.
	CPUCore int `mapstructure:"cpu_core" validate:"gte=-1"`
}

// RunConfig describes the workload.
type RunConfig struct {
	Clients int           `mapstructure:"clients" validate:"gte=1,lte=64"`
	Tasks   int           `mapstructure:"tasks" validate:"gte=1,lte=1000000"`
	Seed    int64         `mapstructure:"seed"`
	Format  string        `mapstructure:"format" validate:"oneof=table yaml json"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}
