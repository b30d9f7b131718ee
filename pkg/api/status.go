package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VeltaLabs/veltalk-client/pkg/network"
)

// StatusResponse reports a snapshot of the connection supervisor.
type StatusResponse struct {
	Success  bool          `json:"success"`
	ClientID string        `json:"clientId"`
	Stats    network.Stats `json:"stats"`
}

// HealthResponse contains liveness information for probes.
type HealthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"` // "healthy", "degraded", "unhealthy"
	State   string `json:"state"`
	Uptime  string `json:"uptime"`
}

// handleStatus handles GET /api/v1/status
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Success:  true,
		ClientID: s.core.ClientID(),
		Stats:    s.core.Stats(),
	})
}

// handleHealth handles GET /health and GET /api/v1/health
func (s *Server) handleHealth(c *gin.Context) {
	state := s.core.State()

	status := "degraded"
	switch state {
	case network.StateReady:
		status = "healthy"
	case network.StateDisconnected, network.StateClosing:
		status = "unhealthy"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Success: true,
		Status:  status,
		State:   state.String(),
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
	})
}
