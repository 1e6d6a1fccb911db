package queue

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Push once Close has been called.
var ErrClosed = errors.New("queue is closed")

// defaultCapacity is the initial ring size when none is given.
const defaultCapacity = 64

// Queue is an unbounded FIFO queue with a blocking Pop.
//
// Producers never block: the ring grows when full. Consumers waiting in Pop
// are woken through a one-slot notification channel, so a Push that lands
// between a consumer's emptiness check and its wait is never lost.
type Queue[T any] struct {
	mu     sync.Mutex
	ring   []T
	mask   int
	head   int
	size   int
	closed bool

	// Notification channel for data (BUFFERED, NEVER CLOSED)
	notifyC chan struct{}

	// Notification channel for shutdown (CLOSED ON Close)
	closeC    chan struct{}
	closeOnce sync.Once
}

// New creates a queue whose ring starts with at least capacity slots.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	capacity = nextPowerOfTwo(capacity)

	return &Queue[T]{
		ring:    make([]T, capacity),
		mask:    capacity - 1,
		notifyC: make(chan struct{}, 1),
		closeC:  make(chan struct{}),
	}
}

// Push appends v to the tail of the queue.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if q.size == len(q.ring) {
		q.grow()
	}
	q.ring[(q.head+q.size)&q.mask] = v
	q.size++
	q.mu.Unlock()

	q.signal()
	return nil
}

// Pop removes and returns the head of the queue, blocking while the queue is
// empty. It returns false once the queue is closed and fully drained.
func (q *Queue[T]) Pop() (T, bool) {
	for {
		if v, ok, closed := q.tryPop(); ok {
			return v, true
		} else if closed {
			var zero T
			return zero, false
		}

		select {
		case <-q.notifyC:
		case <-q.closeC:
		}
	}
}

// TryPop removes the head of the queue without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	v, ok, _ := q.tryPop()
	return v, ok
}

func (q *Queue[T]) tryPop() (v T, ok bool, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return v, false, q.closed
	}

	var zero T
	v = q.ring[q.head]
	q.ring[q.head] = zero
	q.head = (q.head + 1) & q.mask
	q.size--
	return v, true, q.closed
}

// Close stops the queue from accepting new items. Items already queued stay
// available to Pop.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.closeOnce.Do(func() {
		close(q.closeC)
	})
}

// IsClosed reports whether Close has been called.
func (q *Queue[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// signal wakes a waiting consumer without blocking the producer.
func (q *Queue[T]) signal() {
	select {
	case q.notifyC <- struct{}{}:
	default:
	}
}

// grow doubles the ring, unrolling the wrapped segment. Caller holds mu.
func (q *Queue[T]) grow() {
	next := make([]T, len(q.ring)*2)
	n := copy(next, q.ring[q.head:])
	copy(next[n:], q.ring[:q.head])

	q.ring = next
	q.mask = len(next) - 1
	q.head = 0
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
