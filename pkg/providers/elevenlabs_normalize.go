package providers

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// elevenLabsConversation covers both the list-item and detail shapes of a
// ConvAI conversation. Durations arrive in native seconds and cost in
// credits, which the platform bills at one cent per credit.
type elevenLabsConversation struct {
	ConversationID    string `json:"conversation_id"`
	AgentID           string `json:"agent_id"`
	AgentName         string `json:"agent_name"`
	Status            string `json:"status"`
	CallDurationSecs  int    `json:"call_duration_secs"`
	StartTimeUnixSecs int64  `json:"start_time_unix_secs"`
	Direction         string `json:"direction"`
	HasAudio          bool   `json:"has_audio"`
	Metadata          *struct {
		StartTimeUnixSecs int64   `json:"start_time_unix_secs"`
		CallDurationSecs  int     `json:"call_duration_secs"`
		Cost              float64 `json:"cost"`
		PhoneCall         *struct {
			ExternalNumber string `json:"external_number"`
			AgentNumber    string `json:"agent_number"`
			Direction      string `json:"direction"`
		} `json:"phone_call"`
	} `json:"metadata"`
	Transcript []struct {
		Role    string `json:"role"`
		Message string `json:"message"`
	} `json:"transcript"`
	Analysis *struct {
		TranscriptSummary string `json:"transcript_summary"`
		CallSuccessful    string `json:"call_successful"`
	} `json:"analysis"`
}

var elevenLabsStatusMap = map[string]CallStatus{
	"initiated":   CallStatusQueued,
	"in-progress": CallStatusInProgress,
	"processing":  CallStatusInProgress,
	"done":        CallStatusCompleted,
	"failed":      CallStatusFailed,
}

func mapElevenLabsStatus(status string) CallStatus {
	if s, ok := elevenLabsStatusMap[status]; ok {
		return s
	}
	return CallStatusQueued
}

func normalizeElevenLabsConversation(conv elevenLabsConversation) NormalizedCall {
	startSecs := conv.StartTimeUnixSecs
	durationSecs := conv.CallDurationSecs
	costCredits := 0.0
	direction := conv.Direction
	var from, to string

	if conv.Metadata != nil {
		if conv.Metadata.StartTimeUnixSecs > 0 {
			startSecs = conv.Metadata.StartTimeUnixSecs
		}
		if conv.Metadata.CallDurationSecs > 0 {
			durationSecs = conv.Metadata.CallDurationSecs
		}
		costCredits = conv.Metadata.Cost
		if pc := conv.Metadata.PhoneCall; pc != nil {
			if direction == "" {
				direction = pc.Direction
			}
			if strings.EqualFold(direction, "outbound") {
				from, to = pc.AgentNumber, pc.ExternalNumber
			} else {
				from, to = pc.ExternalNumber, pc.AgentNumber
			}
		}
	}

	var started time.Time
	if startSecs > 0 {
		started = time.Unix(startSecs, 0).UTC()
	}
	durationSecs = nonNegative(durationSecs)

	var ended *time.Time
	status := mapElevenLabsStatus(conv.Status)
	if !started.IsZero() && durationSecs > 0 &&
		(status == CallStatusCompleted || status == CallStatusFailed) {
		e := started.Add(time.Duration(durationSecs) * time.Second)
		ended = &e
	}

	mappedDirection := DirectionInbound
	if strings.EqualFold(direction, "outbound") {
		mappedDirection = DirectionOutbound
	}

	call := NormalizedCall{
		ExternalID:      conv.ConversationID,
		AgentExternalID: conv.AgentID,
		Provider:        ProviderElevenLabs,
		Status:          status,
		Direction:       mappedDirection,
		DurationSeconds: durationSecs,
		// Credits bill at one cent each; the value is used as cents
		// without rescaling.
		CostCents:  nonNegative(int(math.Round(costCredits))),
		FromNumber: from,
		ToNumber:   to,
		Transcript: flattenElevenLabsTranscript(conv),
		StartedAt:  started,
		EndedAt:    ended,
	}
	if conv.Analysis != nil {
		call.Summary = conv.Analysis.TranscriptSummary
	}
	return call
}

func flattenElevenLabsTranscript(conv elevenLabsConversation) string {
	if len(conv.Transcript) == 0 {
		return ""
	}
	lines := make([]string, 0, len(conv.Transcript))
	for _, turn := range conv.Transcript {
		if turn.Message == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Message))
	}
	return strings.Join(lines, "\n")
}

func normalizeElevenLabsAgent(raw map[string]interface{}) NormalizedAgent {
	agent := NormalizedAgent{
		ExternalID: getString(raw, "agent_id"),
		Name:       getString(raw, "name"),
		Provider:   ProviderElevenLabs,
		Config:     raw,
	}
	if secs, ok := getFloat(raw, "created_at_unix_secs"); ok && secs > 0 {
		agent.CreatedAt = time.Unix(int64(secs), 0).UTC()
	}
	if metadata := getMap(raw, "metadata"); metadata != nil && agent.CreatedAt.IsZero() {
		if secs, ok := getFloat(metadata, "created_at_unix_secs"); ok && secs > 0 {
			agent.CreatedAt = time.Unix(int64(secs), 0).UTC()
		}
	}
	if conversationConfig := getMap(raw, "conversation_config"); conversationConfig != nil {
		if tts := getMap(conversationConfig, "tts"); tts != nil {
			agent.VoiceID = getString(tts, "voice_id")
		}
	}
	return agent
}
