package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"marketscope/pkg/logger"
)

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	postgres    *sqlx.DB
	redis       *redis.Client // optional
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler. redis may be nil when the change
// feed is not configured; its check is then skipped.
func New(
	log *logger.Logger,
	postgres *sqlx.DB,
	redis *redis.Client,
	serviceName string,
	version string,
) *Handler {
	return &Handler{
		log:         log,
		postgres:    postgres,
		redis:       redis,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness checks if service is ready to accept traffic
// Used by Kubernetes readiness probe
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks, healthy, total := h.runChecks(ctx)

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if healthy < total {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warnw("Readiness check failed", "checks", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(status)
}

// HandleHealth returns detailed health status (includes all checks)
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks, healthy, total := h.runChecks(ctx)

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if healthy == 0 {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else if healthy < total {
		// Still return 200 for degraded
		status.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(status)
}

func (h *Handler) runChecks(ctx context.Context) (map[string]ComponentHealth, int, int) {
	checks := make(map[string]ComponentHealth)
	healthy, total := 0, 0

	total++
	pg := h.checkPostgres(ctx)
	checks["postgres"] = pg
	if pg.Status == "healthy" {
		healthy++
	}

	if h.redis != nil {
		total++
		rd := h.checkRedis(ctx)
		checks["redis"] = rd
		if rd.Status == "healthy" {
			healthy++
		}
	}

	return checks, healthy, total
}

// checkPostgres verifies PostgreSQL connectivity
func (h *Handler) checkPostgres(ctx context.Context) ComponentHealth {
	start := time.Now()
	err := h.postgres.PingContext(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Errorw("Postgres health check failed", "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}

// checkRedis verifies Redis connectivity
func (h *Handler) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()
	err := h.redis.Ping(ctx).Err()
	elapsed := time.Since(start)

	if err != nil {
		h.log.Errorw("Redis health check failed", "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}
