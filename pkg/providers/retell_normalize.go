package providers

import (
	"math"
	"time"
)

// retellCall is Retell's vendor-native call shape. Timestamps are epoch
// milliseconds and combined_cost is already denominated in cents.
type retellCall struct {
	CallID         string `json:"call_id"`
	AgentID        string `json:"agent_id"`
	CallStatus     string `json:"call_status"`
	Direction      string `json:"direction"`
	FromNumber     string `json:"from_number"`
	ToNumber       string `json:"to_number"`
	StartTimestamp int64  `json:"start_timestamp"`
	EndTimestamp   int64  `json:"end_timestamp"`
	Transcript     string `json:"transcript"`
	RecordingURL   string `json:"recording_url"`
	CallAnalysis   *struct {
		CallSummary   string `json:"call_summary"`
		UserSentiment string `json:"user_sentiment"`
	} `json:"call_analysis"`
	CallCost *struct {
		CombinedCost float64 `json:"combined_cost"`
	} `json:"call_cost"`
	Metadata map[string]interface{} `json:"metadata"`
}

// retellStatusMap maps Retell call lifecycle states onto the canonical
// set. Unknown values are treated as not-yet-final.
var retellStatusMap = map[string]CallStatus{
	"registered":    CallStatusQueued,
	"ongoing":       CallStatusInProgress,
	"ended":         CallStatusCompleted,
	"error":         CallStatusFailed,
	"not_connected": CallStatusFailed,
}

func mapRetellStatus(status string) CallStatus {
	if s, ok := retellStatusMap[status]; ok {
		return s
	}
	return CallStatusQueued
}

func mapRetellDirection(direction string) CallDirection {
	if direction == "outbound" {
		return DirectionOutbound
	}
	return DirectionInbound
}

func normalizeRetellCall(rc retellCall) NormalizedCall {
	started := epochMillis(rc.StartTimestamp)
	ended := epochMillis(rc.EndTimestamp)

	// combined_cost is already in hundredths; rounding only, no rescale.
	costCents := 0
	if rc.CallCost != nil {
		costCents = nonNegative(int(math.Round(rc.CallCost.CombinedCost)))
	}

	call := NormalizedCall{
		ExternalID:      rc.CallID,
		AgentExternalID: rc.AgentID,
		Provider:        ProviderRetell,
		Status:          mapRetellStatus(rc.CallStatus),
		Direction:       mapRetellDirection(rc.Direction),
		DurationSeconds: durationBetween(started, ended),
		CostCents:       costCents,
		FromNumber:      rc.FromNumber,
		ToNumber:        rc.ToNumber,
		Transcript:      rc.Transcript,
		AudioURL:        rc.RecordingURL,
		StartedAt:       started,
		EndedAt:         timePtr(ended),
		Metadata:        rc.Metadata,
	}
	if rc.CallAnalysis != nil {
		call.Summary = rc.CallAnalysis.CallSummary
		call.Sentiment = rc.CallAnalysis.UserSentiment
	}
	return call
}

// normalizeRetellAgent lifts a raw Retell agent into the canonical shape.
// The full vendor payload is retained in Config so the agent editor can
// round-trip fields this layer does not model.
func normalizeRetellAgent(raw map[string]interface{}) NormalizedAgent {
	var createdAt time.Time
	if ms, ok := getFloat(raw, "last_modification_timestamp"); ok {
		createdAt = epochMillis(int64(ms))
	}
	return NormalizedAgent{
		ExternalID: getString(raw, "agent_id"),
		Name:       getString(raw, "agent_name"),
		Provider:   ProviderRetell,
		VoiceID:    getString(raw, "voice_id"),
		CreatedAt:  createdAt,
		Config:     raw,
	}
}
