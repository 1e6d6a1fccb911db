package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/taskserver/internal/backoff"
)

// BackoffType selects the delay algorithm used between retries.
type BackoffType = backoff.Kind

const (
	// BackoffExponential doubles the delay after every failed attempt (default).
	BackoffExponential = backoff.Exponential
	// BackoffJittered adds ±jitter to the exponential delay.
	BackoffJittered = backoff.Jittered
	// BackoffDecorrelated draws each delay between the initial delay and
	// three times the previous one.
	BackoffDecorrelated = backoff.Decorrelated
)

const (
	defaultQueueCapacity = 64
	defaultMaxDelay      = 30 * time.Second
)

// Option configures a Server.
type Option func(*config)

type config struct {
	logger        *zap.Logger
	registerer    prometheus.Registerer
	queueCapacity int
	stopTimeout   time.Duration
	rateLimiter   *rate.Limiter
	cpuCore       int

	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	backoffType  BackoffType
	jitter       float64

	beforeTaskStart func(ID)
	onTaskEnd       any
	onRetry         func(ID, int, error)
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:        zap.NewNop(),
		queueCapacity: defaultQueueCapacity,
		cpuCore:       -1,
		maxAttempts:   1,
		maxDelay:      defaultMaxDelay,
		backoffType:   BackoffExponential,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithMetrics registers the server's Prometheus collectors with reg when the
// server starts. Each server labels its series with its instance id, so
// several servers can share one registry.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(cfg *config) {
		cfg.registerer = reg
	}
}

// WithQueueCapacity sets the initial size of the pending queue. The queue
// grows as needed; this only avoids early reallocations.
func WithQueueCapacity(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.queueCapacity = n
		}
	}
}

// WithStopTimeout bounds how long Stop waits for the queue to drain.
// Zero (the default) waits forever.
func WithStopTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d >= 0 {
			cfg.stopTimeout = d
		}
	}
}

// WithRetryPolicy retries a failing task body up to maxAttempts times in
// total before its result is resolved as failed. initialDelay is the wait
// before the first retry; later waits follow the backoff strategy.
// Retries happen on the worker, so the next task starts only after the
// current one has settled.
func WithRetryPolicy(maxAttempts int, initialDelay time.Duration) Option {
	return func(cfg *config) {
		if maxAttempts > 0 {
			cfg.maxAttempts = maxAttempts
		}
		if initialDelay > 0 {
			cfg.initialDelay = initialDelay
		}
	}
}

// WithBackoff selects the retry delay algorithm. maxDelay caps every delay;
// jitter (0..1) only applies to BackoffJittered.
//
//	WithBackoff(BackoffJittered, 5*time.Second, 0.2)
func WithBackoff(t BackoffType, maxDelay time.Duration, jitter float64) Option {
	return func(cfg *config) {
		cfg.backoffType = t
		if maxDelay > 0 {
			cfg.maxDelay = maxDelay
		}
		cfg.jitter = jitter
	}
}

// WithRateLimit caps how fast the worker starts task attempts.
//
//	WithRateLimit(10, 5) // 10 attempts/sec with a burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithCPUAffinity locks the worker goroutine to an OS thread pinned to core
// (taken modulo the number of CPUs). Pinning is best effort: on platforms
// without an affinity API the thread is only locked.
func WithCPUAffinity(core int) Option {
	return func(cfg *config) {
		if core >= 0 {
			cfg.cpuCore = core
		}
	}
}

// WithBeforeTaskStart registers a hook called on the worker right before a
// task body runs for the first time.
func WithBeforeTaskStart(fn func(id ID)) Option {
	return func(cfg *config) {
		cfg.beforeTaskStart = fn
	}
}

// WithOnTaskEnd registers a hook called on the worker after a task settles
// and before its result becomes retrievable. fn must be a
// func(ID, T, error) for the server's T; New panics otherwise.
func WithOnTaskEnd[T any](fn func(id ID, value T, err error)) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.onTaskEnd = fn
		}
	}
}

// WithOnRetry registers a hook called after a failed attempt that will be
// retried. attempt counts from 1.
func WithOnRetry(fn func(id ID, attempt int, err error)) Option {
	return func(cfg *config) {
		cfg.onRetry = fn
	}
}
