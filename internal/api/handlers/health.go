package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/troikatech/voicehub/pkg/providers"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Providers []string          `json:"providers"`
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	services := map[string]string{
		"api":      "healthy",
		"database": "unknown",
		"redis":    "unknown",
	}

	// Check Redis connection
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		services["redis"] = "unhealthy"
	} else {
		services["redis"] = "healthy"
	}

	// Check MongoDB connection
	if err := h.mongoClient.Ping(ctx); err != nil {
		services["database"] = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	// List connected voice providers; health never calls the vendors
	var connected []string
	for _, ap := range providers.GetAgencyProviders(h.credentials()) {
		connected = append(connected, string(ap.Provider))
	}

	overallStatus := "healthy"
	for _, status := range services {
		if status == "unhealthy" {
			overallStatus = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  services,
		Providers: connected,
	})
}
