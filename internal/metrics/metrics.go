package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nblm"

// Collector groups the RPC core metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	rpcRequests    *prometheus.CounterVec
	rpcDuration    *prometheus.HistogramVec
	refreshes      *prometheus.CounterVec
	polls          *prometheus.CounterVec
	pollBackoffs   prometheus.Counter
	taskTransition *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Batch RPC requests by method codes and outcome.",
		}, []string{"rpcids", "outcome"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Batch RPC round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"rpcids"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refreshes_total",
			Help:      "Bootstrap token refreshes by outcome.",
		}, []string{"outcome"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Status polls by task kind and observed state.",
		}, []string{"kind", "state"}),
		pollBackoffs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "rate_limit_backoffs_total",
			Help:      "Polls answered with a rate limit signal.",
		}),
		taskTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "task_transitions_total",
			Help:      "Task state transitions by kind and target state.",
		}, []string{"kind", "state"}),
	}

	if reg != nil {
		reg.MustRegister(c.rpcRequests, c.rpcDuration, c.refreshes, c.polls, c.pollBackoffs, c.taskTransition)
	}
	return c
}

func (c *Collector) ObserveRPC(rpcIDs, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.rpcRequests.WithLabelValues(rpcIDs, outcome).Inc()
	c.rpcDuration.WithLabelValues(rpcIDs).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveRefresh(outcome string) {
	if c == nil {
		return
	}
	c.refreshes.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObservePoll(kind, state string) {
	if c == nil {
		return
	}
	c.polls.WithLabelValues(kind, state).Inc()
}

func (c *Collector) ObserveBackoff() {
	if c == nil {
		return
	}
	c.pollBackoffs.Inc()
}

func (c *Collector) ObserveTransition(kind, state string) {
	if c == nil {
		return
	}
	c.taskTransition.WithLabelValues(kind, state).Inc()
}
