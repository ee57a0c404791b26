package smtp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for emailsTotal.
const (
	outcomeSent          = "sent"
	outcomeNotConfigured = "not_configured"
	outcomeSecretError   = "secret_error"
	outcomeFailed        = "failed"
)

var (
	emailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "casa",
		Subsystem: "smtp",
		Name:      "emails_total",
		Help:      "Outbound email attempts by outcome.",
	}, []string{"outcome"})

	sendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "casa",
		Subsystem: "smtp",
		Name:      "send_duration_seconds",
		Help:      "Time spent delivering a message to the relay.",
		Buckets:   prometheus.DefBuckets,
	})
)
