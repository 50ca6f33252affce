package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts lifecycle transition attempts by operation and
	// outcome (applied, guard_failed, forbidden, invalid_state, error).
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestay_transitions_total",
		Help: "Lifecycle transition attempts by operation and outcome.",
	}, []string{"operation", "outcome"})

	// NotificationsTotal counts notification enqueue attempts.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestay_notifications_total",
		Help: "Notification enqueue attempts by status.",
	}, []string{"status"})

	// CertificatesIssued counts issued certificates by application kind.
	CertificatesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestay_certificates_issued_total",
		Help: "Certificates issued by application kind.",
	}, []string{"kind"})
)
