package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/troikatech/voicehub/pkg/errors"
	"github.com/troikatech/voicehub/pkg/metrics"
	"github.com/troikatech/voicehub/pkg/otel"
	"github.com/troikatech/voicehub/pkg/providers"
	"github.com/troikatech/voicehub/pkg/utils"
)

// ListProviderCalls proxies a call listing straight to the vendor. The
// cursor is the vendor's own token, passed through both ways.
func (h *Handler) ListProviderCalls(c *gin.Context) {
	clt, ok := h.providerClient(c)
	if !ok {
		return
	}

	cursor, limit := utils.ParseCursor(c)
	params := providers.ListCallsParams{
		AgentExternalID: c.Query("agent_id"),
		Limit:           limit,
		SortDescending:  c.DefaultQuery("sort", "desc") == "desc",
		Cursor:          cursor,
	}

	start := time.Now()
	page, err := clt.ListCalls(c.Request.Context(), params)
	metrics.RecordRequest("/api/providers/calls", err == nil, time.Since(start))
	if err != nil {
		errors.UpstreamError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, utils.PaginatedResponse{
		Data:       page.Calls,
		Limit:      limit,
		Count:      len(page.Calls),
		NextCursor: page.NextCursor,
	})
}

func (h *Handler) GetProviderCall(c *gin.Context) {
	clt, ok := h.providerClient(c)
	if !ok {
		return
	}

	call, err := clt.GetCall(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		errors.UpstreamError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, call)
}

// ListStoredCalls serves the local call store, populated by webhooks and
// the background sync job. Supports cross-provider filtering the vendor
// APIs cannot do themselves.
func (h *Handler) ListStoredCalls(c *gin.Context) {
	pagination := utils.ParsePagination(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	query := h.mongoClient.NewQuery(callsCollection)
	if provider := c.Query("provider"); provider != "" {
		if !providers.Provider(provider).Valid() {
			errors.BadRequest(c, "unknown provider: "+provider)
			return
		}
		query.Eq("provider", provider)
	}
	if agentID := c.Query("agent_id"); agentID != "" {
		query.Eq("agent_external_id", agentID)
	}
	if status := c.Query("status"); status != "" {
		query.Eq("status", status)
	}

	var calls []providers.NormalizedCall
	err := otel.WithCollectionSpan(ctx, callsCollection, "SELECT", func(ctx context.Context) error {
		return query.
			SortBy("started_at", true).
			Limit(int64(pagination.Limit)).
			Skip(int64((pagination.Page - 1) * pagination.Limit)).
			Find(ctx, &calls)
	})
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}

	total, _ := query.Count(ctx)

	c.JSON(http.StatusOK, utils.PaginatedResponse{
		Data:  calls,
		Page:  pagination.Page,
		Limit: pagination.Limit,
		Count: len(calls),
		Total: total,
	})
}

func (h *Handler) GetStoredCall(c *gin.Context) {
	provider := providers.Provider(c.Param("provider"))
	if !provider.Valid() {
		errors.BadRequest(c, "unknown provider: "+c.Param("provider"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var call providers.NormalizedCall
	found, err := h.mongoClient.NewQuery(callsCollection).
		Eq("provider", string(provider)).
		Eq("external_id", c.Param("external_id")).
		FindOne(ctx, &call)
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}
	if !found {
		errors.NotFound(c, "call not found")
		return
	}

	c.JSON(http.StatusOK, call)
}
