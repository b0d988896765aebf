package providers

import (
	"encoding/json"
	"fmt"
)

// Canonical webhook event types
const (
	EventCallStarted       = "call_started"
	EventCallEnded         = "call_ended"
	EventCallAnalyzed      = "call_analyzed"
	EventTranscriptUpdated = "transcript_updated"
)

// WebhookEvent is a vendor webhook delivery mapped onto the canonical
// event vocabulary. Call is nil for deliveries that carry no call object.
type WebhookEvent struct {
	Provider Provider        `json:"provider"`
	Type     string          `json:"type"`
	Call     *NormalizedCall `json:"call,omitempty"`
}

// ParseWebhookEvent decodes a raw vendor webhook body into a canonical
// event. The raw body must already be signature-verified by the caller.
func ParseWebhookEvent(provider Provider, body []byte) (*WebhookEvent, error) {
	switch provider {
	case ProviderRetell:
		return parseRetellWebhook(body)
	case ProviderVapi:
		return parseVapiWebhook(body)
	case ProviderElevenLabs:
		return parseElevenLabsWebhook(body)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func parseRetellWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Event string     `json:"event"`
		Call  *retellCall `json:"call"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if payload.Event == "" {
		return nil, fmt.Errorf("webhook payload missing event")
	}

	event := &WebhookEvent{Provider: ProviderRetell, Type: payload.Event}
	if payload.Call != nil {
		call := normalizeRetellCall(*payload.Call)
		event.Call = &call
	}
	return event, nil
}

func parseVapiWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Message struct {
			Type string    `json:"type"`
			Call *vapiCall `json:"call"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if payload.Message.Type == "" {
		return nil, fmt.Errorf("webhook payload missing message type")
	}

	event := &WebhookEvent{Provider: ProviderVapi, Type: mapVapiEventType(payload.Message.Type, payload.Message.Call)}
	if payload.Message.Call != nil {
		call := normalizeVapiCall(*payload.Message.Call)
		event.Call = &call
	}
	return event, nil
}

func mapVapiEventType(messageType string, call *vapiCall) string {
	switch messageType {
	case "end-of-call-report":
		return EventCallAnalyzed
	case "transcript":
		return EventTranscriptUpdated
	case "status-update":
		if call != nil {
			switch mapVapiStatus(call.Status, call.EndedReason) {
			case CallStatusCompleted, CallStatusFailed:
				return EventCallEnded
			}
		}
		return EventCallStarted
	default:
		return messageType
	}
}

func parseElevenLabsWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Type string                  `json:"type"`
		Data *elevenLabsConversation `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if payload.Type == "" {
		return nil, fmt.Errorf("webhook payload missing type")
	}

	eventType := payload.Type
	if payload.Type == "post_call_transcription" {
		eventType = EventCallAnalyzed
	}

	event := &WebhookEvent{Provider: ProviderElevenLabs, Type: eventType}
	if payload.Data != nil {
		call := normalizeElevenLabsConversation(*payload.Data)
		event.Call = &call
	}
	return event, nil
}
