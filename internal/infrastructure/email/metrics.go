package email

import "github.com/prometheus/client_golang/prometheus"

var (
	dispatchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_dispatch_attempts_total",
			Help: "Email delivery attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "email_dispatch_duration_seconds",
			Help: "Time spent on a single email delivery attempt",
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(dispatchAttempts)
	prometheus.MustRegister(dispatchDuration)
}
