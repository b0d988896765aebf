package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/troikatech/voicehub/pkg/env"
	"github.com/troikatech/voicehub/pkg/logger"
)

const wsWriteTimeout = 10 * time.Second

// createWebSocketUpgrader creates a WebSocket upgrader with origin validation
func createWebSocketUpgrader(cfg *env.Config) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// In development, allow all origins
			if cfg.AppEnv == "development" {
				return true
			}
			if origin == "" {
				return true
			}

			if cfg.CORSAllowedOrigins == "*" {
				return true
			}
			for _, allowed := range strings.Split(cfg.CORSAllowedOrigins, ",") {
				if origin == strings.TrimSpace(allowed) {
					return true
				}
			}

			// Log rejected origins for security monitoring
			logger.Log.Warn("WebSocket connection rejected - invalid origin",
				zap.String("origin", origin),
				zap.String("remote_addr", r.RemoteAddr),
			)
			return false
		},
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		EnableCompression: true,
	}
}

// TranscriptsWebSocket streams live call events to dashboard clients. Each
// connection gets its own hub subscription; a client that stops reading is
// dropped by the hub rather than stalling webhook processing.
func (h *Handler) TranscriptsWebSocket(c *gin.Context) {
	upgrader := createWebSocketUpgrader(h.cfg)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade to WebSocket",
			zap.Error(err),
			zap.String("origin", c.GetHeader("Origin")),
			zap.String("remote_addr", c.Request.RemoteAddr),
		)
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	h.logger.Info("Transcript WebSocket connection established",
		zap.String("remote_addr", c.Request.RemoteAddr),
	)

	// Reader goroutine detects client disconnect; inbound frames are ignored
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				// Dropped by the hub for falling behind
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
