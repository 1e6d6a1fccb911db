package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Retrieve(t *testing.T) {
	t.Run("constants come back in order", func(t *testing.T) {
		s := startServer[float64](t)

		for _, v := range []float64{1.0, 2.0, 3.0} {
			_, err := s.Submit(constant(v))
			require.NoError(t, err)
		}

		for i, want := range []float64{1.0, 2.0, 3.0} {
			got, err := s.Retrieve(ID(i + 1))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("unknown id does not block", func(t *testing.T) {
		s := startServer[int](t)
		for range 5 {
			_, err := s.Submit(constant(0))
			require.NoError(t, err)
		}

		done := make(chan error, 1)
		go func() {
			_, err := s.Retrieve(42)
			done <- err
		}()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrUnknownID)
		case <-time.After(time.Second):
			t.Fatal("Retrieve of an unknown id blocked")
		}

		_, err := s.Retrieve(0)
		assert.ErrorIs(t, err, ErrUnknownID)
	})

	t.Run("retrieve before start", func(t *testing.T) {
		s := New[int]()

		_, err := s.Retrieve(1)
		assert.ErrorIs(t, err, ErrUnknownID)
	})

	t.Run("second retrieve is already consumed", func(t *testing.T) {
		s := startServer[string](t)
		id, err := s.Submit(constant("once"))
		require.NoError(t, err)

		v, err := s.Retrieve(id)
		require.NoError(t, err)
		assert.Equal(t, "once", v)

		_, err = s.Retrieve(id)
		assert.ErrorIs(t, err, ErrAlreadyConsumed)
	})

	t.Run("failing task does not affect siblings", func(t *testing.T) {
		s := startServer[int](t)

		before, _ := s.Submit(constant(1))
		failed, _ := s.Submit(failing[int](errBoom))
		after, _ := s.Submit(constant(3))

		v, err := s.Retrieve(before)
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		v, err = s.Retrieve(failed)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTaskFailed)
		assert.ErrorIs(t, err, errBoom)
		assert.Zero(t, v)

		var te *TaskError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, failed, te.ID)
		assert.Equal(t, 1, te.Attempts)

		v, err = s.Retrieve(after)
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("panic becomes task error", func(t *testing.T) {
		s := startServer[int](t)

		id, _ := s.Submit(func() (int, error) {
			panic("kaboom")
		})
		next, _ := s.Submit(constant(5))

		_, err := s.Retrieve(id)
		assert.ErrorIs(t, err, ErrTaskFailed)

		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "kaboom", pe.Value)
		assert.NotEmpty(t, pe.Stack)
		assert.Contains(t, err.Error(), "kaboom")

		v, err := s.Retrieve(next)
		require.NoError(t, err)
		assert.Equal(t, 5, v)
	})

	t.Run("retrieve blocks until the task runs", func(t *testing.T) {
		s := startServer[int](t)
		release := make(chan struct{})
		id, _ := s.Submit(blocking(release, 9))

		got := make(chan int, 1)
		go func() {
			v, _ := s.Retrieve(id)
			got <- v
		}()

		select {
		case <-got:
			t.Fatal("Retrieve returned before the task ran")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		select {
		case v := <-got:
			assert.Equal(t, 9, v)
		case <-time.After(time.Second):
			t.Fatal("Retrieve did not return after the task ran")
		}
	})

	t.Run("deadline leaves result retrievable", func(t *testing.T) {
		s := startServer[int](t)
		release := make(chan struct{})
		id, _ := s.Submit(blocking(release, 11))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err := s.RetrieveContext(ctx, id)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, s.Outstanding())

		close(release)
		v, err := s.Retrieve(id)
		require.NoError(t, err)
		assert.Equal(t, 11, v)
		assert.Equal(t, 0, s.Outstanding())
	})

	t.Run("concurrent retrieve of one id yields one winner", func(t *testing.T) {
		s := startServer[int](t)
		release := make(chan struct{})
		id, _ := s.Submit(blocking(release, 1))

		const retrievers = 8
		var wins, consumed atomic.Int32
		var wg sync.WaitGroup
		for range retrievers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Retrieve(id)
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, ErrAlreadyConsumed):
					consumed.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(retrievers-1), consumed.Load())
	})

	t.Run("different ids retrieved concurrently", func(t *testing.T) {
		s := startServer[int](t)

		const n = 50
		ids := make([]ID, n)
		for i := range n {
			id, err := s.Submit(constant(i))
			require.NoError(t, err)
			ids[i] = id
		}

		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := s.Retrieve(id)
				if err != nil {
					t.Errorf("retrieve %d failed: %v", id, err)
					return
				}
				if v != i {
					t.Errorf("task %d: expected %d, got %d", id, i, v)
				}
			}()
		}
		wg.Wait()
	})
}
