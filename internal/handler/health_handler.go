// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kiosk-client/internal/config"
	"kiosk-client/internal/model"
	"kiosk-client/internal/printer"
	"kiosk-client/internal/utils"
)

// SnapshotProvider reports the printer state
type SnapshotProvider interface {
	Snapshot() printer.Snapshot
}

// HealthHandler handles health check requests
type HealthHandler struct {
	device    SnapshotProvider
	config    *config.Config
	logger    *utils.ServiceLogger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(device SnapshotProvider, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		device:    device,
		config:    config,
		logger:    utils.NewServiceLogger(logger, "health-handler"),
		startTime: time.Now(),
	}
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Service health including the printer state. A printer that is not ready degrades the status but the service stays up.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is up"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).String(),
		Checks:    make(map[string]CheckResult),
	}

	snapshot := h.device.Snapshot()
	printerCheck := CheckResult{
		Status:  "healthy",
		Message: string(snapshot.State),
		Data: map[string]interface{}{
			"paper_level": snapshot.PaperLevel,
			"error":       snapshot.Error,
			"device":      snapshot.Device.String(),
		},
	}
	if snapshot.State != model.DeviceStateReady {
		printerCheck.Status = "unhealthy"
		health.Status = "degraded"
	} else if snapshot.PaperLevel != model.PaperOK {
		printerCheck.Status = "degraded"
		health.Status = "degraded"
	}
	health.Checks["printer"] = printerCheck

	c.JSON(http.StatusOK, health)
}

// ReadinessCheck reports whether prints can be accepted
// @Summary Readiness check
// @Description Ready when the printer holds an open handle in the READY state
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	snapshot := h.device.Snapshot()
	if snapshot.State != model.DeviceStateReady {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "printer state " + string(snapshot.State),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for liveness probes
// @Summary Liveness check
// @Description Check if service is alive
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
