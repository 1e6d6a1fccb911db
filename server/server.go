package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/taskserver/internal/backoff"
	"github.com/utkarsh5026/taskserver/internal/metrics"
	"github.com/utkarsh5026/taskserver/internal/queue"
	"github.com/utkarsh5026/taskserver/internal/results"
)

// ID identifies a submitted task. Ids start at 1 and increase by one per
// accepted submission; 0 is never issued.
type ID uint64

// Func is a deferred computation executed by the worker.
type Func[T any] func() (T, error)

// Value adapts a computation that cannot fail into a Func.
func Value[T any](fn func() T) Func[T] {
	return func() (T, error) {
		return fn(), nil
	}
}

type task[T any] struct {
	id       ID
	fn       Func[T]
	future   *results.Future[T]
	enqueued time.Time
}

// Server runs submitted tasks one at a time, in submission order, on a
// single background worker, and keeps each result until it is retrieved.
type Server[T any] struct {
	cfg        *config
	instanceID uuid.UUID
	logger     *zap.Logger
	backoff    backoff.Strategy
	onTaskEnd  func(ID, T, error)

	queue *queue.Queue[*task[T]]
	store *results.Store[ID, T]
	done  chan struct{}

	mu      sync.Mutex
	state   State
	lastID  ID
	metrics *metrics.Recorder
}

// New creates a server in the NotStarted state.
//
// New panics if a WithOnTaskEnd hook was registered for a type other than T.
func New[T any](opts ...Option) *Server[T] {
	cfg := newConfig(opts...)
	instanceID := uuid.New()

	s := &Server[T]{
		cfg:        cfg,
		instanceID: instanceID,
		logger:     cfg.logger.With(zap.String("server_id", instanceID.String())),
		backoff:    backoff.New(cfg.backoffType, cfg.initialDelay, cfg.maxDelay, cfg.jitter),
		queue:      queue.New[*task[T]](cfg.queueCapacity),
		store:      results.NewStore[ID, T](),
		done:       make(chan struct{}),
	}

	if cfg.onTaskEnd != nil {
		hook, ok := cfg.onTaskEnd.(func(ID, T, error))
		if !ok {
			var zero T
			panic(fmt.Sprintf("WithOnTaskEnd hook has type %T, but server produces %T values", cfg.onTaskEnd, zero))
		}
		s.onTaskEnd = hook
	}

	return s
}

// Start launches the worker. ctx is passed to task execution: once it is
// cancelled, tasks still in the queue resolve with a *TaskError wrapping the
// context error instead of running. Cancelling ctx does not stop the server;
// call Stop for that.
func (s *Server[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != NotStarted {
		return fmt.Errorf("%w: cannot start a server that is %s", ErrInvalidState, s.state)
	}

	if s.cfg.registerer != nil {
		rec, err := metrics.NewRecorder(s.cfg.registerer, s.instanceID.String())
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		s.metrics = rec
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.work(gctx)
	})

	go func() {
		if err := g.Wait(); err != nil {
			s.logger.Error("worker exited with error", zap.Error(err))
		}

		s.mu.Lock()
		s.state = Stopped
		s.mu.Unlock()

		s.logger.Info("server stopped")
		close(s.done)
	}()

	s.state = Running
	s.logger.Info("server started",
		zap.Int("max_attempts", s.cfg.maxAttempts),
		zap.Bool("rate_limited", s.cfg.rateLimiter != nil),
		zap.Int("cpu_core", s.cfg.cpuCore),
	)
	return nil
}

// Submit enqueues fn and returns its id without waiting for it to run.
// It is safe to call from any number of goroutines.
func (s *Server[T]) Submit(fn Func[T]) (ID, error) {
	if fn == nil {
		s.recorder().Rejected(metrics.ReasonNilTask)
		return 0, ErrNilTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running {
		s.metrics.Rejected(metrics.ReasonInvalidState)
		return 0, fmt.Errorf("%w: cannot submit to a server that is %s", ErrInvalidState, s.state)
	}

	id := s.lastID + 1
	future, err := s.store.Register(id)
	if err != nil {
		return 0, fmt.Errorf("failed to register task %d: %w", id, err)
	}

	t := &task[T]{id: id, fn: fn, future: future, enqueued: time.Now()}
	if err := s.queue.Push(t); err != nil {
		s.store.Discard(id)
		return 0, fmt.Errorf("failed to enqueue task %d: %w", id, err)
	}

	s.lastID = id
	s.metrics.Submitted()
	s.logger.Debug("task submitted", zap.Uint64("task_id", uint64(id)))
	return id, nil
}

// SubmitValue submits a computation that cannot fail.
func (s *Server[T]) SubmitValue(fn func() T) (ID, error) {
	if fn == nil {
		return s.Submit(nil)
	}
	return s.Submit(Value(fn))
}

// Retrieve blocks until the task with the given id has run, then removes and
// returns its result. See RetrieveContext.
func (s *Server[T]) Retrieve(id ID) (T, error) {
	return s.RetrieveContext(context.Background(), id)
}

// RetrieveContext blocks until the task with the given id has run or ctx is
// done. A result can be taken once: later calls return ErrAlreadyConsumed.
// If ctx ends first the context error is returned and the result stays
// available. A failed task yields a *TaskError.
func (s *Server[T]) RetrieveContext(ctx context.Context, id ID) (T, error) {
	var zero T

	s.mu.Lock()
	last := s.lastID
	s.mu.Unlock()

	if id == 0 || id > last {
		return zero, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}

	// Ids are dense, so an issued id without a slot was already taken.
	future, ok := s.store.Lookup(id)
	if !ok {
		return zero, fmt.Errorf("%w: %d", ErrAlreadyConsumed, id)
	}

	select {
	case <-future.Done():
	case <-ctx.Done():
		return zero, fmt.Errorf("retrieve task %d: %w", id, ctx.Err())
	}

	if !s.store.Take(id, future) {
		return zero, fmt.Errorf("%w: %d", ErrAlreadyConsumed, id)
	}

	s.recorder().Retrieved()
	s.logger.Debug("result retrieved", zap.Uint64("task_id", uint64(id)))
	return future.Get()
}

// Stop refuses further submissions, waits for every queued task to run and
// for the worker to exit. With WithStopTimeout it gives up after the timeout
// and returns ErrStopTimeout; the worker keeps draining in the background
// and Done is closed when it finishes.
func (s *Server[T]) Stop() error {
	s.mu.Lock()
	if s.state != Running {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot stop a server that is %s", ErrInvalidState, state)
	}
	s.state = Stopping
	s.queue.Close()
	s.mu.Unlock()

	s.logger.Info("server stopping", zap.Int("pending", s.queue.Len()))

	if err := waitUntil(s.done, s.cfg.stopTimeout); err != nil {
		s.logger.Warn("stop timed out", zap.Duration("timeout", s.cfg.stopTimeout), zap.Int("pending", s.queue.Len()))
		return err
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Server[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the number of tasks waiting to run.
func (s *Server[T]) Pending() int {
	return s.queue.Len()
}

// Outstanding returns the number of submitted tasks whose result has not
// been retrieved yet, whether or not they have run.
func (s *Server[T]) Outstanding() int {
	return s.store.Len()
}

// InstanceID returns the random id that tags this server's logs and metrics.
func (s *Server[T]) InstanceID() uuid.UUID {
	return s.instanceID
}

// Done is closed once the worker has exited after Stop.
func (s *Server[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Server[T]) recorder() *metrics.Recorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}
