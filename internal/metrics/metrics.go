// Package metrics exposes the client-side Prometheus series.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ramen",
		Subsystem: "api_client",
		Name:      "requests_total",
		Help:      "Requests sent to the ramen API by method and status (0 = no response).",
	}, []string{"method", "status"})

	remoteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ramen",
		Subsystem: "api_client",
		Name:      "request_duration_seconds",
		Help:      "Latency of ramen API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	staleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ramen",
		Subsystem: "controller",
		Name:      "stale_responses_total",
		Help:      "List responses discarded because a newer request superseded them.",
	}, []string{"list"})

	replyFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ramen",
		Subsystem: "controller",
		Name:      "reply_fetches_total",
		Help:      "Reply list fetches by outcome.",
	}, []string{"outcome"})

	mediaFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ramen",
		Subsystem: "controller",
		Name:      "media_failures_total",
		Help:      "Failed media deletions and uploads during staged submits.",
	}, []string{"step"})

	workspaces = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ramen",
		Subsystem: "bff",
		Name:      "workspaces",
		Help:      "Live browser workspaces.",
	})
)

func ObserveRemote(method string, status int, elapsed time.Duration) {
	remoteRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	remoteLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func StaleResponse(list string) { staleResponses.WithLabelValues(list).Inc() }

func ReplyFetch(ok bool) {
	if ok {
		replyFetches.WithLabelValues("ok").Inc()
		return
	}
	replyFetches.WithLabelValues("error").Inc()
}

func MediaDeleteFailed() { mediaFailures.WithLabelValues("delete").Inc() }

func MediaUploadFailed() { mediaFailures.WithLabelValues("upload").Inc() }

func SetWorkspaces(n int) { workspaces.Set(float64(n)) }
