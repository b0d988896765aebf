package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/troikatech/voicehub/pkg/metrics"
)

func (h *Handler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Snapshot())
}
