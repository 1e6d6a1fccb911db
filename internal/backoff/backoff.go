// Package backoff computes the delay the worker sleeps between retries of a
// failing task.
package backoff

import (
	"math/rand"
	"sync"
	"time"
)

// maxShift caps the exponent so 1<<n cannot overflow an int64.
const maxShift = 62

// Kind selects a delay algorithm.
type Kind int

const (
	// Exponential doubles the delay on every retry.
	Exponential Kind = iota
	// Jittered randomises an exponential delay by ±jitter.
	Jittered
	// Decorrelated draws each delay from [initial, 3*previous].
	Decorrelated
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Exponential:
		return "exponential"
	case Jittered:
		return "jittered"
	case Decorrelated:
		return "decorrelated"
	default:
		return "unknown"
	}
}

// ParseKind maps a name produced by Kind.String back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range []Kind{Exponential, Jittered, Decorrelated} {
		if k.String() == name {
			return k, true
		}
	}
	return Exponential, false
}

// Strategy yields the delay before retry number attempt (0 = first retry).
type Strategy interface {
	NextDelay(attempt int, lastErr error) time.Duration
	// Reset clears per-task state before the next task starts retrying.
	Reset()
}

// New builds a strategy of the given kind. jitter is clamped to [0, 1] and
// only used by Jittered.
func New(kind Kind, initial, maxDelay time.Duration, jitter float64) Strategy {
	if maxDelay < initial {
		maxDelay = initial
	}

	switch kind {
	case Jittered:
		return &jittered{
			initial: initial,
			max:     maxDelay,
			jitter:  clamp(jitter, 0, 1),
			rng:     newRand(),
		}
	case Decorrelated:
		return &decorrelated{
			initial: initial,
			max:     maxDelay,
			prev:    initial,
			rng:     newRand(),
		}
	default:
		return exponential{initial: initial, max: maxDelay}
	}
}

type exponential struct {
	initial, max time.Duration
}

func (e exponential) NextDelay(attempt int, _ error) time.Duration {
	return scaled(attempt, e.initial, e.max)
}

func (exponential) Reset() {}

type jittered struct {
	initial, max time.Duration
	jitter       float64

	mu  sync.Mutex
	rng *rand.Rand
}

func (j *jittered) NextDelay(attempt int, _ error) time.Duration {
	if attempt < 0 {
		return 0
	}
	base := scaled(attempt, j.initial, j.max)

	j.mu.Lock()
	factor := 1 + (j.rng.Float64()*2-1)*j.jitter
	j.mu.Unlock()

	return clamp(time.Duration(float64(base)*factor), 0, j.max)
}

func (*jittered) Reset() {}

type decorrelated struct {
	initial, max time.Duration

	mu   sync.Mutex
	prev time.Duration
	rng  *rand.Rand
}

func (d *decorrelated) NextDelay(attempt int, _ error) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if attempt <= 0 {
		d.prev = d.initial
		return d.initial
	}

	upper := min(d.prev*3, d.max)
	span := upper - d.initial
	if span <= 0 {
		d.prev = d.initial
		return d.initial
	}

	d.prev = d.initial + time.Duration(d.rng.Int63n(int64(span)))
	return d.prev
}

func (d *decorrelated) Reset() {
	d.mu.Lock()
	d.prev = d.initial
	d.mu.Unlock()
}

// scaled returns initial * 2^attempt, saturating at maxDelay.
func scaled(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt < 0 || initial <= 0 {
		return 0
	}
	if attempt > maxShift {
		return maxDelay
	}

	d := initial * time.Duration(int64(1)<<uint(attempt))
	if d <= 0 || d > maxDelay || d/time.Duration(int64(1)<<uint(attempt)) != initial {
		return maxDelay
	}
	return d
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- jitter does not need crypto rand
}

func clamp[T int | float64 | time.Duration](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
