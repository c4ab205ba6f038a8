package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "The HTTP request latencies in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

// LogMetricsInitialization logs that metrics have been initialized
func (s *Server) LogMetricsInitialization() {
	s.logger.Info("Prometheus metrics initialized and registered")
	s.logger.WithFields(logrus.Fields{
		"http_requests_total":             "Counter for HTTP requests by method, endpoint, status",
		"http_request_duration":           "Histogram for HTTP request duration by method, endpoint",
		"email_dispatch_attempts_total":   "Counter for outbound email attempts by provider, outcome",
		"email_dispatch_duration_seconds": "Histogram for outbound email latency by provider",
		"metrics_endpoint":                "/metrics",
	}).Debug("Available Prometheus metrics")
}

var metricsHandler http.Handler = promhttp.Handler()

func (s *Server) metricsEndpoint(c echo.Context) error {
	s.logger.Debug("Serving Prometheus metrics")
	metricsHandler.ServeHTTP(c.Response(), c.Request())
	return nil
}
