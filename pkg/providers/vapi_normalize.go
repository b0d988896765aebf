package providers

import (
	"math"
	"strings"
	"time"
)

// vapiCall is Vapi's vendor-native call shape. Timestamps are ISO-8601
// strings and cost is in whole dollars.
type vapiCall struct {
	ID          string  `json:"id"`
	AssistantID string  `json:"assistantId"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	EndedReason string  `json:"endedReason"`
	CreatedAt   string  `json:"createdAt"`
	StartedAt   string  `json:"startedAt"`
	EndedAt     string  `json:"endedAt"`
	Cost        float64 `json:"cost"`
	Transcript  string  `json:"transcript"`
	RecordingURL string `json:"recordingUrl"`
	Summary     string  `json:"summary"`
	Analysis    *struct {
		Summary string `json:"summary"`
	} `json:"analysis"`
	Customer *struct {
		Number string `json:"number"`
	} `json:"customer"`
	PhoneNumber *struct {
		Number string `json:"number"`
	} `json:"phoneNumber"`
	Metadata map[string]interface{} `json:"metadata"`
}

var vapiStatusMap = map[string]CallStatus{
	"queued":      CallStatusQueued,
	"ringing":     CallStatusInProgress,
	"in-progress": CallStatusInProgress,
	"forwarding":  CallStatusInProgress,
	"ended":       CallStatusCompleted,
}

// mapVapiStatus folds status and endedReason together: an ended call
// whose reason names a pipeline or connection failure is failed, not
// completed. Unknown statuses are treated as not-yet-final.
func mapVapiStatus(status, endedReason string) CallStatus {
	mapped, ok := vapiStatusMap[status]
	if !ok {
		return CallStatusQueued
	}
	if mapped == CallStatusCompleted && vapiReasonIsFailure(endedReason) {
		return CallStatusFailed
	}
	return mapped
}

func vapiReasonIsFailure(reason string) bool {
	if reason == "" {
		return false
	}
	return strings.HasPrefix(reason, "pipeline-error") ||
		strings.HasPrefix(reason, "call.start.error") ||
		strings.Contains(reason, "failed")
}

func mapVapiDirection(callType string) CallDirection {
	if strings.HasPrefix(callType, "outbound") {
		return DirectionOutbound
	}
	return DirectionInbound
}

func parseVapiTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func normalizeVapiCall(vc vapiCall) NormalizedCall {
	started := parseVapiTime(vc.StartedAt)
	if started.IsZero() {
		// queued calls have no startedAt yet; createdAt is the closest
		// vendor-reported anchor.
		started = parseVapiTime(vc.CreatedAt)
	}
	ended := parseVapiTime(vc.EndedAt)

	direction := mapVapiDirection(vc.Type)
	var from, to string
	customer := ""
	platformNumber := ""
	if vc.Customer != nil {
		customer = vc.Customer.Number
	}
	if vc.PhoneNumber != nil {
		platformNumber = vc.PhoneNumber.Number
	}
	if direction == DirectionOutbound {
		from, to = platformNumber, customer
	} else {
		from, to = customer, platformNumber
	}

	summary := vc.Summary
	if summary == "" && vc.Analysis != nil {
		summary = vc.Analysis.Summary
	}

	return NormalizedCall{
		ExternalID:      vc.ID,
		AgentExternalID: vc.AssistantID,
		Provider:        ProviderVapi,
		Status:          mapVapiStatus(vc.Status, vc.EndedReason),
		Direction:       direction,
		DurationSeconds: durationBetween(started, ended),
		// Vapi reports whole dollars; scale to cents.
		CostCents:  nonNegative(int(math.Round(vc.Cost * 100))),
		FromNumber: from,
		ToNumber:   to,
		Transcript: vc.Transcript,
		AudioURL:   vc.RecordingURL,
		Summary:    summary,
		StartedAt:  started,
		EndedAt:    timePtr(ended),
		Metadata:   vc.Metadata,
	}
}

func normalizeVapiAgent(raw map[string]interface{}) NormalizedAgent {
	agent := NormalizedAgent{
		ExternalID: getString(raw, "id"),
		Name:       getString(raw, "name"),
		Provider:   ProviderVapi,
		CreatedAt:  parseVapiTime(getString(raw, "createdAt")),
		Config:     raw,
	}
	if voice := getMap(raw, "voice"); voice != nil {
		agent.VoiceID = getString(voice, "voiceId")
	}
	return agent
}
