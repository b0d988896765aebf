package middleware

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const traceIDHeader = "X-Trace-ID"
const requestIDHeader = "X-Request-ID"

// TraceMiddleware adds trace ID and request ID to context
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get or generate trace ID
		traceID := c.GetHeader(traceIDHeader)
		if traceID == "" {
			traceID = generateTraceID()
		}

		// Request ID is always fresh, one per request
		requestID := uuid.NewString()

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(traceIDHeader, traceID)
		c.Header(requestIDHeader, requestID)

		c.Next()
	}
}

func generateTraceID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
