package providers

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout is the per-attempt timeout applied to vendor API
// requests; cmd/server overrides it from PROVIDER_TIMEOUT_MS.
var DefaultTimeout = 30 * time.Second

// VoiceProviderClient is the uniform interface over all vendor clients.
// Implementations are stateless beyond the bound API key, so one handle is
// safe to share across concurrent requests.
type VoiceProviderClient interface {
	// Provider returns the vendor this client is bound to
	Provider() Provider

	ListAgents(ctx context.Context) ([]NormalizedAgent, error)
	GetAgent(ctx context.Context, externalID string) (*NormalizedAgent, error)
	CreateAgent(ctx context.Context, input AgentInput) (*NormalizedAgent, error)
	UpdateAgent(ctx context.Context, externalID string, input AgentInput) (*NormalizedAgent, error)
	DeleteAgent(ctx context.Context, externalID string) error

	// ListCalls surfaces the vendor's raw pagination cursor; cursor
	// semantics are deliberately not unified across providers.
	ListCalls(ctx context.Context, params ListCallsParams) (*CallPage, error)
	GetCall(ctx context.Context, externalID string) (*NormalizedCall, error)
}

// AgencyCredentials holds the per-vendor API keys an agency has
// configured. Keys are opaque bearer tokens supplied by the settings
// subsystem; this layer never persists them.
type AgencyCredentials struct {
	RetellAPIKey     string
	VapiAPIKey       string
	ElevenLabsAPIKey string
}

func (c AgencyCredentials) KeyFor(p Provider) string {
	switch p {
	case ProviderRetell:
		return c.RetellAPIKey
	case ProviderVapi:
		return c.VapiAPIKey
	case ProviderElevenLabs:
		return c.ElevenLabsAPIKey
	}
	return ""
}

// ClientFor constructs the client for one provider using the agency's key
func (c AgencyCredentials) ClientFor(p Provider) (VoiceProviderClient, error) {
	return GetProviderClient(p, c.KeyFor(p))
}

// AgencyProvider pairs a provider with its constructed client
type AgencyProvider struct {
	Provider Provider
	Client   VoiceProviderClient
}

// GetProviderClient constructs the vendor client for one provider,
// wrapped in the uniform interface.
func GetProviderClient(provider Provider, apiKey string) (VoiceProviderClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key is required", provider)
	}
	switch provider {
	case ProviderRetell:
		return NewRetellClient(apiKey), nil
	case ProviderVapi:
		return NewVapiClient(apiKey), nil
	case ProviderElevenLabs:
		return NewElevenLabsClient(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// GetAgencyProviders instantiates one client per vendor the agency holds
// a key for. Providers without a key are skipped; an unconfigured vendor
// is a valid state, not a fault.
func GetAgencyProviders(creds AgencyCredentials) []AgencyProvider {
	var result []AgencyProvider
	for _, p := range All() {
		key := creds.KeyFor(p)
		if key == "" {
			continue
		}
		clt, err := GetProviderClient(p, key)
		if err != nil {
			continue
		}
		result = append(result, AgencyProvider{Provider: p, Client: clt})
	}
	return result
}
