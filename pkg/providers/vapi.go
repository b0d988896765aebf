package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/troikatech/voicehub/pkg/client"
	"github.com/troikatech/voicehub/pkg/logger"
	"go.uber.org/zap"
)

const vapiBaseURL = "https://api.vapi.ai"

// VapiClient talks to the Vapi REST API. Vapi calls its agents
// "assistants"; that vocabulary stays inside this file.
type VapiClient struct {
	apiKey  string
	baseURL string
	http    *client.HTTPClient
	logger  *zap.Logger
}

// NewVapiClient creates a Vapi client bound to one API key
func NewVapiClient(apiKey string) *VapiClient {
	log := logger.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &VapiClient{
		apiKey:  apiKey,
		baseURL: vapiBaseURL,
		http:    client.New(string(ProviderVapi), DefaultTimeout),
		logger:  log,
	}
}

func (c *VapiClient) Provider() Provider { return ProviderVapi }

func (c *VapiClient) authHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}
}

func (c *VapiClient) ListAgents(ctx context.Context) ([]NormalizedAgent, error) {
	var raw []map[string]interface{}
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + "/assistant",
		Path:    "/assistant",
		Headers: c.authHeaders(),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []NormalizedAgent{}, nil
	}

	agents := make([]NormalizedAgent, 0, len(raw))
	for _, a := range raw {
		agents = append(agents, normalizeVapiAgent(a))
	}
	return agents, nil
}

func (c *VapiClient) GetAgent(ctx context.Context, externalID string) (*NormalizedAgent, error) {
	var raw map[string]interface{}
	path := "/assistant/" + externalID
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + path,
		Path:    path,
		Headers: c.authHeaders(),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("vapi returned no assistant body for %s", externalID)
	}

	agent := normalizeVapiAgent(raw)
	return &agent, nil
}

func (c *VapiClient) CreateAgent(ctx context.Context, input AgentInput) (*NormalizedAgent, error) {
	var raw map[string]interface{}
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + "/assistant",
		Path:    "/assistant",
		Headers: c.authHeaders(),
		Body:    vapiAgentPayload(input),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("vapi returned no assistant body on create")
	}

	agent := normalizeVapiAgent(raw)
	return &agent, nil
}

func (c *VapiClient) UpdateAgent(ctx context.Context, externalID string, input AgentInput) (*NormalizedAgent, error) {
	var raw map[string]interface{}
	path := "/assistant/" + externalID
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodPatch,
		URL:     c.baseURL + path,
		Path:    path,
		Headers: c.authHeaders(),
		Body:    vapiAgentPayload(input),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return c.GetAgent(ctx, externalID)
	}

	agent := normalizeVapiAgent(raw)
	return &agent, nil
}

func (c *VapiClient) DeleteAgent(ctx context.Context, externalID string) error {
	path := "/assistant/" + externalID
	_, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodDelete,
		URL:     c.baseURL + path,
		Path:    path,
		Headers: c.authHeaders(),
	}, nil)
	return err
}

// ListCalls pages through /call. Vapi has no pagination token; the cursor
// surfaced here is the createdAt of the last call, fed back as the
// createdAtLt bound of the next request.
func (c *VapiClient) ListCalls(ctx context.Context, params ListCallsParams) (*CallPage, error) {
	query := url.Values{}
	if params.AgentExternalID != "" {
		query.Set("assistantId", params.AgentExternalID)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Cursor != "" {
		query.Set("createdAtLt", params.Cursor)
	}
	if !params.SortDescending {
		query.Set("sortOrder", "ASC")
	}

	requestURL := c.baseURL + "/call"
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var raw []vapiCall
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     requestURL,
		Path:    "/call",
		Headers: c.authHeaders(),
	}, &raw)
	if err != nil {
		return nil, err
	}

	page := &CallPage{Calls: []NormalizedCall{}}
	if !ok {
		return page, nil
	}
	for _, vc := range raw {
		page.Calls = append(page.Calls, normalizeVapiCall(vc))
	}
	if params.Limit > 0 && len(raw) == params.Limit {
		page.NextCursor = raw[len(raw)-1].CreatedAt
	}
	return page, nil
}

func (c *VapiClient) GetCall(ctx context.Context, externalID string) (*NormalizedCall, error) {
	var raw vapiCall
	path := "/call/" + externalID
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + path,
		Path:    path,
		Headers: c.authHeaders(),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("vapi returned no call body for %s", externalID)
	}

	call := normalizeVapiCall(raw)
	return &call, nil
}

func vapiAgentPayload(input AgentInput) map[string]interface{} {
	payload := make(map[string]interface{}, len(input.Config)+2)
	for k, v := range input.Config {
		payload[k] = v
	}
	if input.Name != "" {
		payload["name"] = input.Name
	}
	if input.VoiceID != "" {
		voice, _ := payload["voice"].(map[string]interface{})
		if voice == nil {
			voice = make(map[string]interface{})
		}
		voice["voiceId"] = input.VoiceID
		payload["voice"] = voice
	}
	return payload
}
