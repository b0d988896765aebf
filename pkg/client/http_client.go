package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/troikatech/voicehub/pkg/circuitbreaker"
	"github.com/troikatech/voicehub/pkg/logger"
	"github.com/troikatech/voicehub/pkg/metrics"
	"github.com/troikatech/voicehub/pkg/retry"
)

// HTTPClient wraps http.Client with retry, circuit breaker, and tolerant
// JSON response decoding for one vendor's API.
type HTTPClient struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	providerName   string
	retryConfig    retry.Config
	logger         *zap.Logger
}

// Request describes a single vendor API request. Headers always win over
// the defaults; passing "Accept": "*/*" and a nil Body yields the minimal
// header set some vendor endpoints (publish, delete) require.
type Request struct {
	Method  string
	URL     string
	Path    string // vendor path used in error classification
	Headers map[string]string
	Body    interface{} // marshaled as JSON when non-nil
}

// New creates an HTTP client bound to one vendor
func New(providerName string, timeout time.Duration) *HTTPClient {
	log := logger.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		circuitBreaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		providerName:   providerName,
		retryConfig:    retry.DefaultConfig(),
		logger:         log,
	}
}

// Do performs the request with retry on transient failures (network errors,
// 429, 5xx) and exponential backoff. Non-retryable 4xx responses fail fast.
//
// The boolean result reports whether a JSON body was decoded into out.
// A 2xx response with an empty body, a non-JSON content type, or a body
// that claims JSON but does not parse resolves to (false, nil); several
// vendor endpoints mis-declare content types on empty success bodies.
func (c *HTTPClient) Do(ctx context.Context, req Request, out interface{}) (bool, error) {
	start := time.Now()
	path := req.Path
	if path == "" {
		path = req.URL
	}

	tracer := otel.Tracer("provider-client")
	ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", req.Method, path),
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("voicehub.provider", c.providerName),
			attribute.String("http.method", req.Method),
		),
	)
	defer span.End()

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return false, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	retryCfg := c.retryConfig
	retryCfg.OnRetry = func(attempt int, delay time.Duration) {
		metrics.RecordProviderRetry(c.providerName)
		c.logger.Warn("Retrying provider request",
			zap.String("provider", c.providerName),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
	}

	var status int
	var body []byte
	var contentType string

	err := c.circuitBreaker.Execute(ctx, func() error {
		return retry.Do(ctx, retryCfg, func() error {
			httpReq, reqErr := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(payload))
			if reqErr != nil {
				return retry.Permanent(reqErr)
			}
			if req.Body != nil {
				httpReq.Header.Set("Content-Type", "application/json")
			}
			httpReq.Header.Set("Accept", "application/json")
			for k, v := range req.Headers {
				httpReq.Header.Set(k, v)
			}

			resp, doErr := c.client.Do(httpReq)
			if doErr != nil {
				return doErr
			}
			defer resp.Body.Close()

			respBody, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return readErr
			}

			if resp.StatusCode >= 400 {
				apiErr := &VendorAPIError{
					Provider: c.providerName,
					Status:   resp.StatusCode,
					Path:     path,
				}
				// Raw bodies never leave this boundary; log for diagnosis only.
				c.logger.Debug("Provider returned error response",
					zap.String("provider", c.providerName),
					zap.String("path", path),
					zap.Int("status", resp.StatusCode),
					zap.String("body", truncate(string(respBody), 512)),
				)
				if apiErr.Retryable() {
					return apiErr
				}
				return retry.Permanent(apiErr)
			}

			status = resp.StatusCode
			body = respBody
			contentType = resp.Header.Get("Content-Type")
			return nil
		})
	})

	latency := time.Since(start)
	metrics.RecordProviderCall(c.providerName, err == nil, latency)
	metrics.UpdateCircuitBreaker(c.providerName,
		c.circuitBreaker.GetState().String(),
		int64(c.circuitBreaker.Failures()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, c.classify(err)
	}

	span.SetAttributes(attribute.Int("http.status_code", status))
	span.SetStatus(codes.Ok, "")

	return decodeBody(body, contentType, out), nil
}

// classify maps retry/breaker failures onto the shared error taxonomy.
// VendorAPIError passes through untouched; everything else becomes a
// TransportError carrying the attempt count and last cause.
func (c *HTTPClient) classify(err error) error {
	var apiErr *VendorAPIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	attempts := c.retryConfig.MaxAttempts
	if errors.Is(err, circuitbreaker.ErrOpen) {
		attempts = 0
	}
	return &TransportError{Attempts: attempts, Err: err}
}

// decodeBody reports whether a JSON body was decoded into out
func decodeBody(body []byte, contentType string, out interface{}) bool {
	if out == nil || len(body) == 0 {
		return false
	}
	if contentType != "" && !strings.Contains(contentType, "json") {
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		// Vendors are inconsistent about content-type correctness;
		// treat an unparsable body as no body.
		return false
	}
	return true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
