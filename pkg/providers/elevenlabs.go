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

const elevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsClient talks to the ElevenLabs Conversational AI API. Calls
// are "conversations" there; authentication uses the xi-api-key header
// instead of a bearer token.
type ElevenLabsClient struct {
	apiKey  string
	baseURL string
	http    *client.HTTPClient
	logger  *zap.Logger
}

// NewElevenLabsClient creates an ElevenLabs client bound to one API key
func NewElevenLabsClient(apiKey string) *ElevenLabsClient {
	log := logger.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &ElevenLabsClient{
		apiKey:  apiKey,
		baseURL: elevenLabsBaseURL,
		http:    client.New(string(ProviderElevenLabs), DefaultTimeout),
		logger:  log,
	}
}

func (c *ElevenLabsClient) Provider() Provider { return ProviderElevenLabs }

func (c *ElevenLabsClient) authHeaders() map[string]string {
	return map[string]string{
		"xi-api-key": c.apiKey,
	}
}

type elevenLabsAgentList struct {
	Agents     []map[string]interface{} `json:"agents"`
	NextCursor string                   `json:"next_cursor"`
	HasMore    bool                     `json:"has_more"`
}

func (c *ElevenLabsClient) ListAgents(ctx context.Context) ([]NormalizedAgent, error) {
	var raw elevenLabsAgentList
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + "/v1/convai/agents",
		Path:    "/v1/convai/agents",
		Headers: c.authHeaders(),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []NormalizedAgent{}, nil
	}

	agents := make([]NormalizedAgent, 0, len(raw.Agents))
	for _, a := range raw.Agents {
		agents = append(agents, normalizeElevenLabsAgent(a))
	}
	return agents, nil
}

func (c *ElevenLabsClient) GetAgent(ctx context.Context, externalID string) (*NormalizedAgent, error) {
	var raw map[string]interface{}
	path := "/v1/convai/agents/" + externalID
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
		return nil, fmt.Errorf("elevenlabs returned no agent body for %s", externalID)
	}

	agent := normalizeElevenLabsAgent(raw)
	return &agent, nil
}

func (c *ElevenLabsClient) CreateAgent(ctx context.Context, input AgentInput) (*NormalizedAgent, error) {
	var raw map[string]interface{}
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + "/v1/convai/agents/create",
		Path:    "/v1/convai/agents/create",
		Headers: c.authHeaders(),
		Body:    elevenLabsAgentPayload(input),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("elevenlabs returned no agent body on create")
	}

	// The create response only carries the new agent_id; re-fetch for the
	// full configuration.
	agentID := getString(raw, "agent_id")
	if agentID == "" {
		return nil, fmt.Errorf("elevenlabs create response missing agent_id")
	}
	return c.GetAgent(ctx, agentID)
}

func (c *ElevenLabsClient) UpdateAgent(ctx context.Context, externalID string, input AgentInput) (*NormalizedAgent, error) {
	var raw map[string]interface{}
	path := "/v1/convai/agents/" + externalID
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodPatch,
		URL:     c.baseURL + path,
		Path:    path,
		Headers: c.authHeaders(),
		Body:    elevenLabsAgentPayload(input),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return c.GetAgent(ctx, externalID)
	}

	agent := normalizeElevenLabsAgent(raw)
	return &agent, nil
}

// DeleteAgent removes an agent; the endpoint answers 204 with no body.
func (c *ElevenLabsClient) DeleteAgent(ctx context.Context, externalID string) error {
	path := "/v1/convai/agents/" + externalID
	_, err := c.http.Do(ctx, client.Request{
		Method: http.MethodDelete,
		URL:    c.baseURL + path,
		Path:   path,
		Headers: map[string]string{
			"xi-api-key": c.apiKey,
			"Accept":     "*/*",
		},
	}, nil)
	return err
}

type elevenLabsConversationList struct {
	Conversations []elevenLabsConversation `json:"conversations"`
	NextCursor    string                   `json:"next_cursor"`
	HasMore       bool                     `json:"has_more"`
}

func (c *ElevenLabsClient) ListCalls(ctx context.Context, params ListCallsParams) (*CallPage, error) {
	query := url.Values{}
	if params.AgentExternalID != "" {
		query.Set("agent_id", params.AgentExternalID)
	}
	if params.Limit > 0 {
		query.Set("page_size", strconv.Itoa(params.Limit))
	}
	if params.Cursor != "" {
		query.Set("cursor", params.Cursor)
	}
	// The endpoint only returns newest-first; ascending order is not
	// offered, callers get descending regardless of SortDescending.

	requestURL := c.baseURL + "/v1/convai/conversations"
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var raw elevenLabsConversationList
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     requestURL,
		Path:    "/v1/convai/conversations",
		Headers: c.authHeaders(),
	}, &raw)
	if err != nil {
		return nil, err
	}

	page := &CallPage{Calls: []NormalizedCall{}}
	if !ok {
		return page, nil
	}
	for _, conv := range raw.Conversations {
		page.Calls = append(page.Calls, c.normalizeConversation(conv))
	}
	if raw.HasMore {
		page.NextCursor = raw.NextCursor
	}
	return page, nil
}

func (c *ElevenLabsClient) GetCall(ctx context.Context, externalID string) (*NormalizedCall, error) {
	var raw elevenLabsConversation
	path := "/v1/convai/conversations/" + externalID
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
		return nil, fmt.Errorf("elevenlabs returned no conversation body for %s", externalID)
	}

	call := c.normalizeConversation(raw)
	return &call, nil
}

// normalizeConversation is a method because the audio URL is derived from
// the client's base URL rather than reported by the vendor.
func (c *ElevenLabsClient) normalizeConversation(conv elevenLabsConversation) NormalizedCall {
	call := normalizeElevenLabsConversation(conv)
	if conv.HasAudio {
		call.AudioURL = c.baseURL + "/v1/convai/conversations/" + conv.ConversationID + "/audio"
	}
	return call
}

func elevenLabsAgentPayload(input AgentInput) map[string]interface{} {
	payload := make(map[string]interface{}, len(input.Config)+2)
	for k, v := range input.Config {
		payload[k] = v
	}
	if input.Name != "" {
		payload["name"] = input.Name
	}
	if input.VoiceID != "" {
		conversationConfig, _ := payload["conversation_config"].(map[string]interface{})
		if conversationConfig == nil {
			conversationConfig = make(map[string]interface{})
		}
		tts, _ := conversationConfig["tts"].(map[string]interface{})
		if tts == nil {
			tts = make(map[string]interface{})
		}
		tts["voice_id"] = input.VoiceID
		conversationConfig["tts"] = tts
		payload["conversation_config"] = conversationConfig
	}
	return payload
}
