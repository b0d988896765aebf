package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/voicehub/pkg/errors"
	"github.com/troikatech/voicehub/pkg/logger"
	"github.com/troikatech/voicehub/pkg/metrics"
	"github.com/troikatech/voicehub/pkg/otel"
	"github.com/troikatech/voicehub/pkg/providers"
	"github.com/troikatech/voicehub/pkg/webhook"
	"github.com/troikatech/voicehub/pkg/ws"
)

// ProviderWebhook receives call lifecycle deliveries from the vendors.
// The raw body is verified against the per-vendor shared secret before
// any parsing happens.
func (h *Handler) ProviderWebhook(c *gin.Context) {
	provider := providers.Provider(c.Param("provider"))
	if !provider.Valid() {
		errors.BadRequest(c, "unknown provider: "+c.Param("provider"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		errors.BadRequest(c, "failed to read request body")
		return
	}

	signature := c.GetHeader(webhook.SignatureHeader(string(provider)))
	if err := webhook.VerifySignature(h.webhookSecret(provider), body, signature); err != nil {
		metrics.RecordWebhookEvent(string(provider), false)
		h.logger.Warn("Webhook signature verification failed",
			zap.String("provider", string(provider)),
			zap.Error(err),
		)
		errors.Unauthorized(c, "invalid webhook signature")
		return
	}

	event, err := providers.ParseWebhookEvent(provider, body)
	if err != nil {
		metrics.RecordWebhookEvent(string(provider), false)
		errors.BadRequest(c, err.Error())
		return
	}

	metrics.RecordWebhookEvent(string(provider), true)

	if event.Call != nil {
		h.upsertCall(c.Request.Context(), event.Call)
	}

	h.publishEvent(event)

	c.JSON(http.StatusOK, gin.H{"message": "webhook processed"})
}

// upsertCall stores the call keyed by (provider, external_id). Webhook
// deliveries can arrive out of order or duplicated; last write wins.
func (h *Handler) upsertCall(ctx context.Context, call *providers.NormalizedCall) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := otel.WithCollectionSpan(ctx, callsCollection, "UPDATE", func(ctx context.Context) error {
		return h.mongoClient.NewQuery(callsCollection).
			Eq("provider", string(call.Provider)).
			Eq("external_id", call.ExternalID).
			Upsert(ctx, call)
	})
	if err != nil {
		h.logger.Error("Failed to store call from webhook",
			zap.String("provider", string(call.Provider)),
			zap.String("call_id", call.ExternalID),
			zap.Error(err),
		)
		return
	}

	h.logger.Debug("Call stored from webhook",
		zap.String("provider", string(call.Provider)),
		zap.String("call_id", call.ExternalID),
		zap.String("status", string(call.Status)),
		logger.MaskPhone("to_number", call.ToNumber),
	)
}

func (h *Handler) publishEvent(event *providers.WebhookEvent) {
	wsEvent := ws.Event{
		Provider: string(event.Provider),
		Type:     event.Type,
	}
	if event.Call != nil {
		wsEvent.CallID = event.Call.ExternalID
		wsEvent.AgentID = event.Call.AgentExternalID
		wsEvent.Payload = event.Call
	}
	h.hub.Publish(wsEvent)
}
