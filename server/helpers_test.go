package server

import (
	"context"
	"errors"
	"testing"
	"time"
)

// startServer starts a server and stops it when the test ends.
func startServer[T any](t *testing.T, opts ...Option) *Server[T] {
	t.Helper()

	s := New[T](opts...)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	t.Cleanup(func() {
		if s.State() == Running {
			_ = s.Stop()
		}
	})
	return s
}

func constant[T any](v T) Func[T] {
	return func() (T, error) {
		return v, nil
	}
}

func failing[T any](err error) Func[T] {
	return func() (T, error) {
		var zero T
		return zero, err
	}
}

// blocking returns a body that waits for release to be closed.
func blocking[T any](release <-chan struct{}, v T) Func[T] {
	return func() (T, error) {
		<-release
		return v, nil
	}
}

// waitForState polls until s reaches want or the deadline passes.
func waitForState[T any](t *testing.T, s *Server[T], want State) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("server did not reach state %s, still %s", want, s.State())
}

var errBoom = errors.New("boom")
