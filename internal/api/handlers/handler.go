package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/troikatech/voicehub/pkg/env"
	"github.com/troikatech/voicehub/pkg/errors"
	"github.com/troikatech/voicehub/pkg/logger"
	"github.com/troikatech/voicehub/pkg/mongo"
	"github.com/troikatech/voicehub/pkg/providers"
	"github.com/troikatech/voicehub/pkg/ws"
)

const callsCollection = "calls"

type Handler struct {
	cfg         *env.Config
	redisClient *redis.Client
	mongoClient *mongo.Client
	logger      *zap.Logger
	hub         *ws.Hub
}

func NewHandler(
	cfg *env.Config,
	redisClient *redis.Client,
	mongoClient *mongo.Client,
	hub *ws.Hub,
) *Handler {
	return &Handler{
		cfg:         cfg,
		redisClient: redisClient,
		mongoClient: mongoClient,
		logger:      logger.Log,
		hub:         hub,
	}
}

func (h *Handler) credentials() providers.AgencyCredentials {
	return providers.AgencyCredentials{
		RetellAPIKey:     h.cfg.RetellAPIKey,
		VapiAPIKey:       h.cfg.VapiAPIKey,
		ElevenLabsAPIKey: h.cfg.ElevenLabsAPIKey,
	}
}

func (h *Handler) webhookSecret(p providers.Provider) string {
	switch p {
	case providers.ProviderRetell:
		return h.cfg.RetellWebhookSecret
	case providers.ProviderVapi:
		return h.cfg.VapiWebhookSecret
	case providers.ProviderElevenLabs:
		return h.cfg.ElevenLabsWebhookSecret
	}
	return ""
}

// providerClient resolves the :provider route param to a configured vendor
// client. Writes the error response itself when resolution fails.
func (h *Handler) providerClient(c *gin.Context) (providers.VoiceProviderClient, bool) {
	provider := providers.Provider(c.Param("provider"))
	if !provider.Valid() {
		errors.BadRequest(c, "unknown provider: "+c.Param("provider"))
		return nil, false
	}

	clt, err := h.credentials().ClientFor(provider)
	if err != nil {
		errors.NotFound(c, "provider not configured: "+string(provider))
		return nil, false
	}
	return clt, true
}
