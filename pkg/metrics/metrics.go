package metrics

import (
	"sync"
	"time"
)

// Metrics holds in-process counters for the service
type Metrics struct {
	mu sync.RWMutex

	// API request metrics
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	EndpointRequests   map[string]int64
	EndpointErrors     map[string]int64

	// Vendor call metrics, keyed by provider name
	ProviderCalls   map[string]int64
	ProviderErrors  map[string]int64
	ProviderRetries map[string]int64
	ProviderLatency map[string][]time.Duration

	// Webhook metrics, keyed by provider name
	WebhookEvents   map[string]int64
	WebhookRejected map[string]int64

	// Circuit breaker state, keyed by provider name
	CircuitBreakerState    map[string]string
	CircuitBreakerFailures map[string]int64

	StartTime time.Time
}

var globalMetrics = &Metrics{
	EndpointRequests:       make(map[string]int64),
	EndpointErrors:         make(map[string]int64),
	ProviderCalls:          make(map[string]int64),
	ProviderErrors:         make(map[string]int64),
	ProviderRetries:        make(map[string]int64),
	ProviderLatency:        make(map[string][]time.Duration),
	WebhookEvents:          make(map[string]int64),
	WebhookRejected:        make(map[string]int64),
	CircuitBreakerState:    make(map[string]string),
	CircuitBreakerFailures: make(map[string]int64),
	StartTime:              time.Now(),
}

// RecordRequest records an API request
func RecordRequest(endpoint string, success bool, latency time.Duration) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.TotalRequests++
	if success {
		globalMetrics.SuccessfulRequests++
	} else {
		globalMetrics.FailedRequests++
		globalMetrics.EndpointErrors[endpoint]++
	}
	globalMetrics.EndpointRequests[endpoint]++
}

// RecordProviderCall records an outbound vendor API call
func RecordProviderCall(provider string, success bool, latency time.Duration) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.ProviderCalls[provider]++
	if !success {
		globalMetrics.ProviderErrors[provider]++
	}

	// Keep only the last 100 latency samples per provider
	if len(globalMetrics.ProviderLatency[provider]) >= 100 {
		globalMetrics.ProviderLatency[provider] = globalMetrics.ProviderLatency[provider][1:]
	}
	globalMetrics.ProviderLatency[provider] = append(globalMetrics.ProviderLatency[provider], latency)
}

// RecordProviderRetry records a retried vendor API attempt
func RecordProviderRetry(provider string) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.ProviderRetries[provider]++
}

// RecordWebhookEvent records an inbound vendor webhook delivery
func RecordWebhookEvent(provider string, accepted bool) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.WebhookEvents[provider]++
	if !accepted {
		globalMetrics.WebhookRejected[provider]++
	}
}

// UpdateCircuitBreaker updates circuit breaker state for a provider
func UpdateCircuitBreaker(provider, state string, failures int64) {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()

	globalMetrics.CircuitBreakerState[provider] = state
	globalMetrics.CircuitBreakerFailures[provider] = failures
}

// Snapshot returns a copy of the current metrics for reporting
func Snapshot() map[string]interface{} {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	providerAvgLatency := make(map[string]int64)
	for provider, samples := range globalMetrics.ProviderLatency {
		if len(samples) == 0 {
			continue
		}
		var total time.Duration
		for _, s := range samples {
			total += s
		}
		providerAvgLatency[provider] = (total / time.Duration(len(samples))).Milliseconds()
	}

	return map[string]interface{}{
		"uptime_seconds":           int64(time.Since(globalMetrics.StartTime).Seconds()),
		"total_requests":           globalMetrics.TotalRequests,
		"successful_requests":      globalMetrics.SuccessfulRequests,
		"failed_requests":          globalMetrics.FailedRequests,
		"endpoint_requests":        copyCounts(globalMetrics.EndpointRequests),
		"endpoint_errors":          copyCounts(globalMetrics.EndpointErrors),
		"provider_calls":           copyCounts(globalMetrics.ProviderCalls),
		"provider_errors":          copyCounts(globalMetrics.ProviderErrors),
		"provider_retries":         copyCounts(globalMetrics.ProviderRetries),
		"provider_avg_latency_ms":  providerAvgLatency,
		"webhook_events":           copyCounts(globalMetrics.WebhookEvents),
		"webhook_rejected":         copyCounts(globalMetrics.WebhookRejected),
		"circuit_breaker_state":    copyStrings(globalMetrics.CircuitBreakerState),
		"circuit_breaker_failures": copyCounts(globalMetrics.CircuitBreakerFailures),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyStrings(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
