package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the bot's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	votesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "applybot",
			Subsystem: "votes",
			Name:      "cast_total",
			Help:      "Votes recorded, by choice.",
		},
		[]string{"choice"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "applybot",
			Subsystem: "submissions",
			Name:      "total",
			Help:      "Submission attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "applybot",
			Subsystem: "applications",
			Name:      "resolved_total",
			Help:      "Applications closed, by trigger.",
		},
		[]string{"trigger"},
	)

	deliveryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "applybot",
			Subsystem: "notifications",
			Name:      "failed_total",
			Help:      "Result notifications that could not be delivered.",
		},
	)

	conversations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "applybot",
			Subsystem: "conversations",
			Name:      "total",
			Help:      "Conversation flows, by flow and result.",
		},
		[]string{"flow", "result"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "applybot",
			Subsystem: "sweeper",
			Name:      "duration_seconds",
			Help:      "Duration of deadline sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

func init() {
	Registry.MustRegister(
		votesCast,
		submissions,
		resolutions,
		deliveryFailures,
		conversations,
		sweepDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func VoteCast(choice string)                { votesCast.WithLabelValues(choice).Inc() }
func SubmissionOutcome(outcome string)      { submissions.WithLabelValues(outcome).Inc() }
func Resolved(trigger string)               { resolutions.WithLabelValues(trigger).Inc() }
func DeliveryFailed()                       { deliveryFailures.Inc() }
func ConversationStarted(flow string)       { conversations.WithLabelValues(flow, "started").Inc() }
func ConversationFinished(flow, res string) { conversations.WithLabelValues(flow, res).Inc() }
func SweepObserved(seconds float64)         { sweepDuration.Observe(seconds) }

// Router serves /metrics and /healthz for the ops listener.
func Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))

	return r
}
