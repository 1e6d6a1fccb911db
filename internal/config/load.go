package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the driver reads, e.g.
// TASKSERVER_RUN_CLIENTS.
const EnvPrefix = "TASKSERVER"

var defaults = map[string]any{
	"server.stop_timeout":   10 * time.Second,
	"server.rate_limit":     0.0,
	"server.rate_burst":     1,
	"server.retry_attempts": 1,
	"server.retry_delay":    10 * time.Millisecond,
	"server.backoff":        "exponential",
	"server.cpu_core":       -1,
	"run.clients":           3,
	"run.tasks":             10,
	"run.seed":              int64(0),
	"run.format":            "table",
	"run.timeout":           30 * time.Second,
	"log.level":             "info",
	"metrics.addr":          "",
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"clients":        "run.clients",
	"tasks":          "run.tasks",
	"seed":           "run.seed",
	"format":         "run.format",
	"timeout":        "run.timeout",
	"stop-timeout":   "server.stop_timeout",
	"rate-limit":     "server.rate_limit",
	"rate-burst":     "server.rate_burst",
	"retry-attempts": "server.retry_attempts",
	"retry-delay":    "server.retry_delay",
	"backoff":        "server.backoff",
	"cpu-core":       "server.cpu_core",
	"log-level":      "log.level",
	"metrics-addr":   "metrics.addr",
}

// RegisterFlags defines the driver's flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("clients", 3, "number of client handles")
	fs.Int("tasks", 10, "tasks submitted per client")
	fs.Int64("seed", 0, "random seed for payload generators (0 = time based)")
	fs.String("format", "table", "output format: table, yaml or json")
	fs.Duration("timeout", 30*time.Second, "deadline for collecting all results")
	fs.Duration("stop-timeout", 10*time.Second, "how long Stop waits for the queue to drain")
	fs.Float64("rate-limit", 0, "tasks per second executed by the worker (0 = unlimited)")
	fs.Int("rate-burst", 1, "rate limiter burst")
	fs.Int("retry-attempts", 1, "attempts per task before it is reported as failed")
	fs.Duration("retry-delay", 10*time.Millisecond, "initial retry delay")
	fs.String("backoff", "exponential", "retry backoff: exponential, jittered or decorrelated")
	fs.Int("cpu-core", -1, "pin the worker thread to this core (-1 = no pinning)")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
}

// Load reads configuration from the optional file at path, the environment
// and fs (which may be nil), then validates it.
func Load(fs *pflag.FlagSet, path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
