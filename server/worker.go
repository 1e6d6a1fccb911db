package server

import (
	"context"
	"errors"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/utkarsh5026/taskserver/internal/cpu"
	"github.com/utkarsh5026/taskserver/internal/metrics"
)

// stackBufSize bounds the stack trace captured for a panicking task.
const stackBufSize = 4096

// work is the worker loop. It runs tasks until the queue is closed and empty.
func (s *Server[T]) work(ctx context.Context) error {
	if s.cfg.cpuCore >= 0 {
		release, core, err := cpu.LockToCore(s.cfg.cpuCore)
		defer release()

		if err != nil {
			s.logger.Warn("worker thread locked but not pinned", zap.Int("cpu_core", core), zap.Error(err))
		} else {
			s.logger.Debug("worker pinned", zap.Int("cpu_core", core))
		}
	}

	for {
		t, ok := s.queue.Pop()
		if !ok {
			return nil
		}
		s.metrics.Dequeued()
		s.execute(ctx, t)
	}
}

// execute runs one task to completion and resolves its result slot.
func (s *Server[T]) execute(ctx context.Context, t *task[T]) {
	log := s.logger.With(zap.Uint64("task_id", uint64(t.id)))
	log.Debug("task started", zap.Duration("queued_for", time.Since(t.enqueued)))

	if s.cfg.beforeTaskStart != nil {
		s.cfg.beforeTaskStart(t.id)
	}

	start := time.Now()
	value, attempts, err := s.processWithRetry(ctx, t)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		var zero T
		value = zero

		var pe *PanicError
		if errors.As(err, &pe) {
			outcome = metrics.OutcomePanic
			log.Error("task panicked", zap.Any("panic", pe.Value), zap.ByteString("stack", pe.Stack))
		} else {
			outcome = metrics.OutcomeFailure
			log.Warn("task failed", zap.Int("attempts", attempts), zap.Error(err))
		}
		err = &TaskError{ID: t.id, Attempts: attempts, Err: err}
	}

	s.metrics.Completed(outcome, elapsed)

	if s.onTaskEnd != nil {
		s.onTaskEnd(t.id, value, err)
	}

	t.future.Resolve(value, err)
	log.Debug("task finished", zap.String("outcome", outcome), zap.Duration("elapsed", elapsed))
}

// processWithRetry runs the task body up to maxAttempts times, waiting on
// the rate limiter before each attempt and on the backoff strategy between
// attempts. It returns the number of attempts made.
func (s *Server[T]) processWithRetry(ctx context.Context, t *task[T]) (T, int, error) {
	var zero T
	var lastErr error

	s.backoff.Reset()

	for attempt := 1; attempt <= s.cfg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, err
		}

		if s.cfg.rateLimiter != nil {
			if err := s.cfg.rateLimiter.Wait(ctx); err != nil {
				return zero, attempt - 1, err
			}
		}

		value, err := s.processWithRecovery(t)
		if err == nil {
			return value, attempt, nil
		}
		lastErr = err

		if attempt == s.cfg.maxAttempts {
			break
		}

		delay := s.backoff.NextDelay(attempt-1, err)
		s.metrics.Retried()
		s.logger.Debug("retrying task",
			zap.Uint64("task_id", uint64(t.id)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if s.cfg.onRetry != nil {
			s.cfg.onRetry(t.id, attempt, err)
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, attempt, ctx.Err()
			}
		}
	}

	return zero, s.cfg.maxAttempts, lastErr
}

// processWithRecovery runs the task body, converting a panic into a
// *PanicError carrying the stack trace.
func (s *Server[T]) processWithRecovery(t *task[T]) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, stackBufSize)
			n := runtime.Stack(buf, false)
			err = &PanicError{Value: r, Stack: buf[:n]}
		}
	}()

	return t.fn()
}
