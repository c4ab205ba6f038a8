package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName        = "account-lifecycle"
	healthProbeTimeout = 2 * time.Second
)

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
}

// healthCheck probes every dependency in parallel; any failure degrades
// the service and answers 503.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
	defer cancel()

	deps := s.probeDependencies(ctx)
	overall := "healthy"
	for _, d := range deps {
		if d.Status != "healthy" {
			overall = "degraded"
		}
	}

	version := s.config.Version
	if version == "" {
		version = "dev"
	}
	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":       overall,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"version":      version,
		"service":      serviceName,
		"dependencies": deps,
	})
}

func (s *Server) probeDependencies(ctx context.Context) map[string]dependencyStatus {
	var (
		mu  sync.Mutex
		g   errgroup.Group
		out = make(map[string]dependencyStatus, len(s.healthCheckers))
	)
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		hc := hc
		g.Go(func() error {
			start := time.Now()
			err := hc.Check(ctx)
			st := dependencyStatus{Status: "healthy", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				st.Status = "unhealthy"
				s.logger.WithFields(logrus.Fields{"dependency": hc.Name()}).WithError(err).Warn("health check failed")
			}
			mu.Lock()
			out[hc.Name()] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
