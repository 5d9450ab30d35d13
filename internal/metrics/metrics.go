// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Claims counts claim attempts by kind (geo|token) and outcome
	Claims = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "happybox",
		Name:      "claims_total",
		Help:      "Claim attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	// RedemptionLocks counts successfully acquired redemption locks
	RedemptionLocks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "happybox",
		Name:      "redemption_locks_acquired_total",
		Help:      "Redemption locks acquired.",
	})

	// ThrottleRejections counts claims rejected by the per-source throttle
	ThrottleRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "happybox",
		Name:      "throttle_rejections_total",
		Help:      "Claims rejected by the source throttle.",
	})

	// IssuanceAttempts counts reward issuance calls by result
	IssuanceAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "happybox",
		Name:      "issuance_attempts_total",
		Help:      "Reward issuance attempts by result.",
	}, []string{"result"})
)
