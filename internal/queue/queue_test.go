package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[int](4)

	for i := range 10 {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, 10, q.Len())

	for i := range 10 {
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestQueue_GrowWrapped(t *testing.T) {
	q := New[int](4)

	// Advance head so the ring wraps before it grows.
	for i := range 3 {
		require.NoError(t, q.Push(i))
	}
	for range 2 {
		_, ok := q.TryPop()
		require.True(t, ok)
	}
	for i := 3; i < 12; i++ {
		require.NoError(t, q.Push(i))
	}

	var got []int
	for {
		v, ok := q.TryPop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, got)
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := New[string](0)
	got := make(chan string, 1)

	go func() {
		v, ok := q.Pop()
		if ok {
			got <- v
		}
	}()

	select {
	case <-got:
		t.Fatal("Pop returned before any push")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, q.Push("hello"))

	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake after push")
	}
}

func TestQueue_Close(t *testing.T) {
	t.Run("push after close fails", func(t *testing.T) {
		q := New[int](0)
		q.Close()

		assert.ErrorIs(t, q.Push(1), ErrClosed)
		assert.True(t, q.IsClosed())
	})

	t.Run("pop drains before reporting closed", func(t *testing.T) {
		q := New[int](0)
		require.NoError(t, q.Push(1))
		require.NoError(t, q.Push(2))
		q.Close()

		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, 1, v)

		v, ok = q.Pop()
		require.True(t, ok)
		assert.Equal(t, 2, v)

		_, ok = q.Pop()
		assert.False(t, ok)
	})

	t.Run("close wakes blocked consumer", func(t *testing.T) {
		q := New[int](0)
		done := make(chan bool, 1)

		go func() {
			_, ok := q.Pop()
			done <- ok
		}()

		time.Sleep(20 * time.Millisecond)
		q.Close()

		select {
		case ok := <-done:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("Close did not wake blocked Pop")
		}
	})

	t.Run("double close is safe", func(t *testing.T) {
		q := New[int](0)
		q.Close()
		assert.NotPanics(t, q.Close)
	})
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 500
	q := New[int](0)

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := range perProducer {
				_ = q.Push(p*perProducer + i)
			}
		}(p)
	}

	seen := make(map[int]bool, producers*perProducer)
	lastPerProducer := make([]int, producers)
	for i := range lastPerProducer {
		lastPerProducer[i] = -1
	}

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for {
			v, ok := q.Pop()
			if !ok {
				return
			}
			seen[v] = true
			p, i := v/perProducer, v%perProducer
			if i <= lastPerProducer[p] {
				t.Errorf("producer %d: item %d popped after %d", p, i, lastPerProducer[p])
			}
			lastPerProducer[p] = i
		}
	}()

	wg.Wait()
	q.Close()
	<-consumed

	assert.Len(t, seen, producers*perProducer)
}
