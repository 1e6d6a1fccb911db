// Package server provides an asynchronous task server: callers submit
// deferred computations and receive an id immediately, a single background
// worker runs the computations strictly in submission order, and callers
// later block on an id to take its result.
//
// # Basic Usage
//
//	s := server.New[float64]()
//	if err := s.Start(context.Background()); err != nil {
//	    return err
//	}
//	defer s.Stop()
//
//	id, err := s.Submit(func() (float64, error) {
//	    return math.Sqrt(2), nil
//	})
//	if err != nil {
//	    return err
//	}
//	v, err := s.Retrieve(id) // blocks until the worker has run the task
//
// # Ids and Results
//
// Ids start at 1 and grow by one per accepted submission, in the same order
// the worker runs the tasks. Each result can be retrieved exactly once:
//
//   - Retrieve of an id never issued returns ErrUnknownID
//   - Retrieve of an id already taken returns ErrAlreadyConsumed
//   - Retrieve of a task whose body failed or panicked returns a *TaskError,
//     which matches ErrTaskFailed with errors.Is
//
// RetrieveContext honours a deadline; when it expires the result stays in
// place for a later call.
//
// # Clients
//
// A Client records the ids it submitted and collects their results in order:
//
//	c := server.NewClient[float64]("sqrt")
//	for i := range 10 {
//	    c.SubmitValue(s, func() float64 { return math.Sqrt(float64(i)) })
//	}
//	values, err := c.CollectAll(s)
//
// # Lifecycle
//
// A server moves NotStarted → Running → Stopping → Stopped. Submit only
// succeeds while Running. Stop closes the queue, lets the worker run every
// task already queued and returns once it has exited, so every result
// submitted before Stop can still be retrieved afterwards.
//
// # Retry Logic
//
// Failing bodies can be retried on the worker before the failure is
// recorded:
//
//	s := server.New[string](
//	    server.WithRetryPolicy(3, 100*time.Millisecond),
//	    server.WithBackoff(server.BackoffJittered, 2*time.Second, 0.2),
//	)
//
// # Rate Limiting
//
//	s := server.New[Response](server.WithRateLimit(5, 1)) // 5 tasks/sec
//
// # Observability
//
// WithLogger attaches a zap logger; every entry carries the server's
// instance id. WithMetrics registers Prometheus collectors for submissions,
// completions by outcome, queue depth, outstanding results and task
// duration.
package server
