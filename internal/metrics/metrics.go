package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DrawsExecuted counts committed draws.
	DrawsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doorprize_draws_executed_total",
		Help: "Number of draws committed successfully.",
	})

	// DrawsFailed counts draw attempts that surfaced an error, by kind.
	DrawsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doorprize_draws_failed_total",
		Help: "Number of failed draw attempts.",
	}, []string{"reason"})

	// WinnersSelected counts winners across all committed draws.
	WinnersSelected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doorprize_winners_selected_total",
		Help: "Number of winners selected across all draws.",
	})

	// VotesCast counts accepted votes by category.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doorprize_votes_cast_total",
		Help: "Number of accepted dress-code votes.",
	}, []string{"category"})

	// StreamSubscribers tracks currently connected SSE viewers.
	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "doorprize_stream_subscribers",
		Help: "Currently connected event-stream subscribers.",
	})

	// StreamDropped counts subscribers removed because their stream
	// stopped accepting events.
	StreamDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doorprize_stream_dropped_total",
		Help: "Subscribers dropped due to write failure or backpressure.",
	})
)
