// Package metrics exposes Prometheus counters and histograms for the
// security-relevant operations a reviewer would want a dashboard on:
// unlock attempts, terminal session lifecycle, and host key events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rite_bridge"

// Registry is a dedicated registry rather than the global default, so a
// test process can spin up a fresh one per run without collector collisions.
var Registry = prometheus.NewRegistry()

var (
	UnlockAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "unlock_attempts_total",
			Help:      "Total vault unlock attempts by outcome.",
		},
		[]string{"outcome"}, // success, wrong_password, locked_out
	)

	VaultLockouts = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "lockouts_total",
			Help:      "Total number of times the vault entered a rate-limit lockout.",
		},
	)

	SessionsOpened = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "opened_total",
			Help:      "Total terminal sessions opened by transport.",
		},
		[]string{"transport"}, // ssh, local
	)

	SessionsActive = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Currently open terminal sessions by transport.",
		},
		[]string{"transport"},
	)

	SessionDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "duration_seconds",
			Help:      "Terminal session lifetime from open to close.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16), // 1s to ~9h
		},
		[]string{"transport"},
	)

	HostKeyEvents = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hostkeys",
			Name:      "events_total",
			Help:      "Host key verification outcomes by event kind.",
		},
		[]string{"kind"}, // added, changed, rejected
	)

	RPCRequests = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "JSON-RPC requests handled by method and outcome.",
		},
		[]string{"method", "outcome"}, // outcome: ok, error
	)

	RPCDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "JSON-RPC request handling latency by method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
