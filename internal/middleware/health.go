package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain probe such as Scratch.Writable.
type CheckFunc func() error

func (f CheckFunc) Check(context.Context) error { return f() }

// Check is one readiness probe. A failing non-critical probe degrades the
// service without taking it out of rotation.
type Check struct {
	Name     string
	Critical bool
	Checker  HealthChecker
}

// HealthStatus represents the health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual check status
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ReadinessHandler answers 503 only when a critical check fails.
func ReadinessHandler(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := HealthStatus{
			Status:    "ready",
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckStatus, len(checks)),
		}

		for _, c := range checks {
			err := c.Checker.Check(ctx)
			switch {
			case err == nil:
				health.Checks[c.Name] = CheckStatus{Status: "healthy"}
			case c.Critical:
				health.Status = "unhealthy"
				health.Checks[c.Name] = CheckStatus{Status: "unhealthy", Message: err.Error()}
			default:
				if health.Status == "ready" {
					health.Status = "degraded"
				}
				health.Checks[c.Name] = CheckStatus{Status: "degraded", Message: err.Error()}
			}
		}

		statusCode := http.StatusOK
		if health.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}

// LivenessHandler creates a liveness check handler (simplest check)
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
