package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskserver"

// Outcome labels for completed tasks.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePanic   = "panic"
)

// Rejection reasons for refused submissions.
const (
	ReasonInvalidState = "invalid_state"
	ReasonNilTask      = "nil_task"
)

// Recorder emits the server's metrics. A nil *Recorder is valid and records
// nothing, so callers never need to check whether metrics are enabled.
type Recorder struct {
	submitted    prometheus.Counter
	completed    *prometheus.CounterVec
	retrieved    prometheus.Counter
	rejected     *prometheus.CounterVec
	retries      prometheus.Counter
	queueDepth   prometheus.Gauge
	outstanding  prometheus.Gauge
	taskDuration prometheus.Histogram
}

// NewRecorder creates the server metrics, labelled with serverID, and
// registers them with registry.
func NewRecorder(registry prometheus.Registerer, serverID string) (*Recorder, error) {
	labels := prometheus.Labels{"server_id": serverID}

	r := &Recorder{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tasks_submitted_total",
			Help:        "Total number of tasks accepted by Submit",
			ConstLabels: labels,
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tasks_completed_total",
			Help:        "Total number of tasks executed by the worker, by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		retrieved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "results_retrieved_total",
			Help:        "Total number of results consumed by Retrieve",
			ConstLabels: labels,
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "submissions_rejected_total",
			Help:        "Total number of submissions refused, by reason",
			ConstLabels: labels,
		}, []string{"reason"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "task_retries_total",
			Help:        "Total number of task retry attempts",
			ConstLabels: labels,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "queue_depth",
			Help:        "Number of tasks waiting for the worker",
			ConstLabels: labels,
		}),
		outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "results_outstanding",
			Help:        "Number of submitted tasks whose result has not been retrieved",
			ConstLabels: labels,
		}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "task_duration_seconds",
			Help:        "Wall time spent executing a task, retries included",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	for _, c := range []prometheus.Collector{
		r.submitted, r.completed, r.retrieved, r.rejected,
		r.retries, r.queueDepth, r.outstanding, r.taskDuration,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Submitted records an accepted task.
func (r *Recorder) Submitted() {
	if r == nil {
		return
	}
	r.submitted.Inc()
	r.queueDepth.Inc()
	r.outstanding.Inc()
}

// Rejected records a refused submission.
func (r *Recorder) Rejected(reason string) {
	if r == nil {
		return
	}
	r.rejected.WithLabelValues(reason).Inc()
}

// Dequeued records that the worker took a task off the queue.
func (r *Recorder) Dequeued() {
	if r == nil {
		return
	}
	r.queueDepth.Dec()
}

// Completed records a finished task.
func (r *Recorder) Completed(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.completed.WithLabelValues(outcome).Inc()
	r.taskDuration.Observe(elapsed.Seconds())
}

// Retried records one retry attempt.
func (r *Recorder) Retried() {
	if r == nil {
		return
	}
	r.retries.Inc()
}

// Retrieved records a consumed result.
func (r *Recorder) Retrieved() {
	if r == nil {
		return
	}
	r.retrieved.Inc()
	r.outstanding.Dec()
}
