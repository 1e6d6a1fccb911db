package benchmarks

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/utkarsh5026/taskserver/server"
)

// configCase names one set of server options to benchmark.
type configCase struct {
	name string
	opts []server.Option
}

func runConfigBenchmark(b *testing.B, cases []configCase, benchFunc func(b *testing.B, c configCase)) {
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			benchFunc(b, c)
		})
	}
}

func startServer(b *testing.B, opts ...server.Option) *server.Server[int] {
	b.Helper()

	s := server.New[int](opts...)
	if err := s.Start(context.Background()); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() {
		if s.State() == server.Running {
			_ = s.Stop()
		}
	})
	return s
}

// submitAndCollect submits n tasks through one client and collects them.
func submitAndCollect(s *server.Server[int], n int, work func(task int) server.Func[int]) error {
	client := server.NewClient[int]("bench")
	for j := range n {
		if _, err := client.Submit(s, work(j)); err != nil {
			return err
		}
	}
	_, err := client.CollectAll(s)
	return err
}

// =============================================================================
// Benchmark Workload Generators
// =============================================================================

// cpuBoundWork simulates a CPU-intensive operation
func cpuBoundWork(iterations int) func(task int) server.Func[int] {
	return func(task int) server.Func[int] {
		return func() (int, error) {
			result := 0
			for i := range iterations {
				result += i * task
			}
			return result, nil
		}
	}
}

// ioBoundWork simulates an I/O operation with a delay
func ioBoundWork(delay time.Duration) func(task int) server.Func[int] {
	return func(task int) server.Func[int] {
		return func() (int, error) {
			time.Sleep(delay)
			return task * 2, nil
		}
	}
}

// errorProneWork fails with the given probability
func errorProneWork(errorRate float64) func(task int) server.Func[int] {
	return func(task int) server.Func[int] {
		return func() (int, error) {
			if rand.Float64() < errorRate { // #nosec G404 -- benchmark noise
				return 0, errFlaky
			}
			return task, nil
		}
	}
}
