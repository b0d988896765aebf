package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/troikatech/voicehub/pkg/client"
	"github.com/troikatech/voicehub/pkg/logger"
	"go.uber.org/zap"
)

const retellBaseURL = "https://api.retellai.com"

// RetellClient talks to the Retell AI REST API
type RetellClient struct {
	apiKey  string
	baseURL string
	http    *client.HTTPClient
	logger  *zap.Logger
}

// NewRetellClient creates a Retell client bound to one API key
func NewRetellClient(apiKey string) *RetellClient {
	log := logger.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &RetellClient{
		apiKey:  apiKey,
		baseURL: retellBaseURL,
		http:    client.New(string(ProviderRetell), DefaultTimeout),
		logger:  log,
	}
}

func (c *RetellClient) Provider() Provider { return ProviderRetell }

func (c *RetellClient) authHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}
}

func (c *RetellClient) ListAgents(ctx context.Context) ([]NormalizedAgent, error) {
	var raw []map[string]interface{}
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + "/list-agents",
		Path:    "/list-agents",
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
		agents = append(agents, normalizeRetellAgent(a))
	}
	return agents, nil
}

func (c *RetellClient) GetAgent(ctx context.Context, externalID string) (*NormalizedAgent, error) {
	var raw map[string]interface{}
	path := "/get-agent/" + externalID
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
		return nil, fmt.Errorf("retell returned no agent body for %s", externalID)
	}

	agent := normalizeRetellAgent(raw)
	return &agent, nil
}

func (c *RetellClient) CreateAgent(ctx context.Context, input AgentInput) (*NormalizedAgent, error) {
	var raw map[string]interface{}
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + "/create-agent",
		Path:    "/create-agent",
		Headers: c.authHeaders(),
		Body:    retellAgentPayload(input),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("retell returned no agent body on create")
	}

	agent := normalizeRetellAgent(raw)
	return &agent, nil
}

func (c *RetellClient) UpdateAgent(ctx context.Context, externalID string, input AgentInput) (*NormalizedAgent, error) {
	var raw map[string]interface{}
	path := "/update-agent/" + externalID
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodPatch,
		URL:     c.baseURL + path,
		Path:    path,
		Headers: c.authHeaders(),
		Body:    retellAgentPayload(input),
	}, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Retell echoes the agent back; fall back to a re-fetch if it
		// ever stops doing so.
		return c.GetAgent(ctx, externalID)
	}

	agent := normalizeRetellAgent(raw)
	return &agent, nil
}

// DeleteAgent removes an agent. Retell answers 204 with no body and no
// JSON content type, so the request goes out with a bare Accept header
// and any 2xx counts as success.
func (c *RetellClient) DeleteAgent(ctx context.Context, externalID string) error {
	path := "/delete-agent/" + externalID
	_, err := c.http.Do(ctx, client.Request{
		Method: http.MethodDelete,
		URL:    c.baseURL + path,
		Path:   path,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
			"Accept":        "*/*",
		},
	}, nil)
	return err
}

// PublishAgent promotes the agent's draft configuration to the published
// version used for live calls. The endpoint returns an empty or non-JSON
// body on success.
func (c *RetellClient) PublishAgent(ctx context.Context, externalID string) error {
	path := "/publish-agent/" + externalID
	_, err := c.http.Do(ctx, client.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + path,
		Path:   path,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
			"Accept":        "*/*",
		},
	}, nil)
	return err
}

type retellListCallsRequest struct {
	FilterCriteria *retellFilterCriteria `json:"filter_criteria,omitempty"`
	SortOrder      string                `json:"sort_order,omitempty"`
	Limit          int                   `json:"limit,omitempty"`
	PaginationKey  string                `json:"pagination_key,omitempty"`
}

type retellFilterCriteria struct {
	AgentID []string `json:"agent_id,omitempty"`
}

func (c *RetellClient) ListCalls(ctx context.Context, params ListCallsParams) (*CallPage, error) {
	sortOrder := "ascending"
	if params.SortDescending {
		sortOrder = "descending"
	}
	body := retellListCallsRequest{
		SortOrder:     sortOrder,
		Limit:         params.Limit,
		PaginationKey: params.Cursor,
	}
	if params.AgentExternalID != "" {
		body.FilterCriteria = &retellFilterCriteria{AgentID: []string{params.AgentExternalID}}
	}

	var raw []retellCall
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + "/v2/list-calls",
		Path:    "/v2/list-calls",
		Headers: c.authHeaders(),
		Body:    body,
	}, &raw)
	if err != nil {
		return nil, err
	}

	page := &CallPage{Calls: []NormalizedCall{}}
	if !ok {
		return page, nil
	}
	for _, rc := range raw {
		page.Calls = append(page.Calls, normalizeRetellCall(rc))
	}
	// Retell pages by passing the last call id of the previous page.
	if params.Limit > 0 && len(raw) == params.Limit {
		page.NextCursor = raw[len(raw)-1].CallID
	}
	return page, nil
}

func (c *RetellClient) GetCall(ctx context.Context, externalID string) (*NormalizedCall, error) {
	var raw retellCall
	path := "/v2/get-call/" + externalID
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
		return nil, fmt.Errorf("retell returned no call body for %s", externalID)
	}

	call := normalizeRetellCall(raw)
	return &call, nil
}

// KnowledgeBase is Retell's knowledge-base record in vendor shape
type KnowledgeBase struct {
	KnowledgeBaseID   string `json:"knowledge_base_id"`
	KnowledgeBaseName string `json:"knowledge_base_name"`
	Status            string `json:"status"`
}

// KnowledgeBaseSource is one document or URL attached to a knowledge base
type KnowledgeBaseSource struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CreateKnowledgeBase creates a knowledge base from uploaded documents.
// Retell only accepts these as multipart/form-data, which goes through
// the dedicated upload primitive rather than the shared JSON transport.
func (c *RetellClient) CreateKnowledgeBase(ctx context.Context, name string, texts []string, urls []string, files []KnowledgeBaseSource) (*KnowledgeBase, error) {
	fields := map[string]string{
		"knowledge_base_name": name,
	}
	if len(texts) > 0 {
		encoded, err := json.Marshal(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to encode knowledge base texts: %w", err)
		}
		fields["knowledge_base_texts"] = string(encoded)
	}
	if len(urls) > 0 {
		encoded, err := json.Marshal(urls)
		if err != nil {
			return nil, fmt.Errorf("failed to encode knowledge base urls: %w", err)
		}
		fields["knowledge_base_urls"] = string(encoded)
	}

	formFiles := make([]client.FormFile, 0, len(files))
	for _, f := range files {
		formFiles = append(formFiles, client.FormFile{
			Field:       "knowledge_base_files",
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Content:     f.Content,
		})
	}

	body, err := c.http.UploadMultipart(ctx, c.baseURL+"/create-knowledge-base", c.authHeaders(), fields, formFiles)
	if err != nil {
		return nil, err
	}

	var kb KnowledgeBase
	if err := json.Unmarshal(body, &kb); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base response: %w", err)
	}
	return &kb, nil
}

// AddKnowledgeBaseSources attaches additional documents to an existing
// knowledge base, again via multipart.
func (c *RetellClient) AddKnowledgeBaseSources(ctx context.Context, knowledgeBaseID string, files []KnowledgeBaseSource) (*KnowledgeBase, error) {
	formFiles := make([]client.FormFile, 0, len(files))
	for _, f := range files {
		formFiles = append(formFiles, client.FormFile{
			Field:       "knowledge_base_files",
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Content:     f.Content,
		})
	}

	url := c.baseURL + "/add-knowledge-base-sources/" + knowledgeBaseID
	body, err := c.http.UploadMultipart(ctx, url, c.authHeaders(), nil, formFiles)
	if err != nil {
		return nil, err
	}

	var kb KnowledgeBase
	if err := json.Unmarshal(body, &kb); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base response: %w", err)
	}
	return &kb, nil
}

func (c *RetellClient) ListKnowledgeBases(ctx context.Context) ([]KnowledgeBase, error) {
	var kbs []KnowledgeBase
	ok, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + "/list-knowledge-bases",
		Path:    "/list-knowledge-bases",
		Headers: c.authHeaders(),
	}, &kbs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []KnowledgeBase{}, nil
	}
	return kbs, nil
}

func (c *RetellClient) DeleteKnowledgeBase(ctx context.Context, knowledgeBaseID string) error {
	path := "/delete-knowledge-base/" + knowledgeBaseID
	_, err := c.http.Do(ctx, client.Request{
		Method: http.MethodDelete,
		URL:    c.baseURL + path,
		Path:   path,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
			"Accept":        "*/*",
		},
	}, nil)
	return err
}

// retellAgentPayload builds the vendor-native create/update body. Config
// keys pass through untouched; the typed fields win on conflict.
func retellAgentPayload(input AgentInput) map[string]interface{} {
	payload := make(map[string]interface{}, len(input.Config)+2)
	for k, v := range input.Config {
		payload[k] = v
	}
	if input.Name != "" {
		payload["agent_name"] = input.Name
	}
	if input.VoiceID != "" {
		payload["voice_id"] = input.VoiceID
	}
	return payload
}
