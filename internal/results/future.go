package results

import (
	"context"
	"sync"
)

// Result carries the outcome of one task.
type Result[T any] struct {
	Value T
	Err   error
}

// Future is a one-shot slot resolved exactly once. Readers wait on Done.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	result Result[T]
}

// NewFuture creates an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve stores the outcome and wakes every waiter. Only the first call has
// any effect; it reports whether this call resolved the future.
func (f *Future[T]) Resolve(value T, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.result = Result[T]{Value: value, Err: err}
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the future is resolved.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.result.Value, f.result.Err
}

// GetWithContext blocks until the future is resolved or ctx is done.
func (f *Future[T]) GetWithContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result.Value, f.result.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet returns the result without blocking. ok is false while unresolved.
func (f *Future[T]) TryGet() (res Result[T], ok bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return res, false
	}
}
