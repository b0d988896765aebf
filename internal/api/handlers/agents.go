package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/voicehub/pkg/errors"
	"github.com/troikatech/voicehub/pkg/metrics"
	"github.com/troikatech/voicehub/pkg/providers"
)

type AgentRequest struct {
	Name    string                 `json:"name" binding:"required"`
	VoiceID string                 `json:"voice_id"`
	Config  map[string]interface{} `json:"config"`
}

type UpdateAgentRequest struct {
	Name    string                 `json:"name"`
	VoiceID string                 `json:"voice_id"`
	Config  map[string]interface{} `json:"config"`
}

func (h *Handler) ListAgents(c *gin.Context) {
	clt, ok := h.providerClient(c)
	if !ok {
		return
	}

	start := time.Now()
	agents, err := clt.ListAgents(c.Request.Context())
	metrics.RecordRequest("/api/providers/agents", err == nil, time.Since(start))
	if err != nil {
		errors.UpstreamError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  agents,
		"count": len(agents),
	})
}

func (h *Handler) GetAgent(c *gin.Context) {
	clt, ok := h.providerClient(c)
	if !ok {
		return
	}

	agent, err := clt.GetAgent(c.Request.Context(), c.Param("agent_id"))
	if err != nil {
		errors.UpstreamError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, agent)
}

func (h *Handler) CreateAgent(c *gin.Context) {
	clt, ok := h.providerClient(c)
	if !ok {
		return
	}

	var req AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, err.Error())
		return
	}

	agent, err := clt.CreateAgent(c.Request.Context(), providers.AgentInput{
		Name:    req.Name,
		VoiceID: req.VoiceID,
		Config:  req.Config,
	})
	if err != nil {
		errors.UpstreamError(c, err, h.logger)
		return
	}

	h.logger.Info("Agent created",
		zap.String("provider", string(clt.Provider())),
		zap.String("agent_id", agent.ExternalID),
	)

	c.JSON(http.StatusCreated, agent)
}

func (h *Handler) UpdateAgent(c *gin.Context) {
	clt, ok := h.providerClient(c)
	if !ok {
		return
	}

	var req UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, err.Error())
		return
	}

	agent, err := clt.UpdateAgent(c.Request.Context(), c.Param("agent_id"), providers.AgentInput{
		Name:    req.Name,
		VoiceID: req.VoiceID,
		Config:  req.Config,
	})
	if err != nil {
		errors.UpstreamError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, agent)
}

func (h *Handler) DeleteAgent(c *gin.Context) {
	clt, ok := h.providerClient(c)
	if !ok {
		return
	}

	agentID := c.Param("agent_id")
	if err := clt.DeleteAgent(c.Request.Context(), agentID); err != nil {
		errors.UpstreamError(c, err, h.logger)
		return
	}

	h.logger.Info("Agent deleted",
		zap.String("provider", string(clt.Provider())),
		zap.String("agent_id", agentID),
	)

	c.JSON(http.StatusOK, gin.H{"message": "agent deleted"})
}

// EnsureWebhookConfig repairs an agent's webhook event subscription so
// call lifecycle deliveries reach this service. Only meaningful for
// vendors with per-agent webhook settings.
func (h *Handler) EnsureWebhookConfig(c *gin.Context) {
	clt, ok := h.providerClient(c)
	if !ok {
		return
	}

	retell, ok := clt.(*providers.RetellClient)
	if !ok {
		errors.BadRequest(c, "webhook configuration is managed at the account level for "+string(clt.Provider()))
		return
	}

	agentID := c.Param("agent_id")
	reconciled, err := retell.EnsureAgentWebhookConfig(c.Request.Context(), agentID)
	if err != nil {
		errors.UpstreamError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reconciled": reconciled,
		"events":     providers.RequiredWebhookEvents,
	})
}
