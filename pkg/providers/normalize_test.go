package providers

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

const retellCallFixture = `{
	"call_id": "call_b54b9e2c8e5",
	"agent_id": "agent_9f3a1",
	"call_status": "ended",
	"direction": "outbound",
	"from_number": "+14155550100",
	"to_number": "+14155550123",
	"start_timestamp": 1714608475945,
	"end_timestamp": 1714608535945,
	"transcript": "Agent: Hello?\nUser: Hi there.",
	"recording_url": "https://retell-recordings.example.com/call_b54b9e2c8e5.wav",
	"call_analysis": {
		"call_summary": "Customer confirmed their appointment.",
		"user_sentiment": "Positive"
	},
	"call_cost": {"combined_cost": 83.5},
	"metadata": {"campaign": "spring-outreach"}
}`

const vapiCallFixture = `{
	"id": "c9d9b6e0-7f2a-4e7a-9b1a-5d2f0c3a4b5c",
	"assistantId": "as_77120",
	"type": "inboundPhoneCall",
	"status": "ended",
	"endedReason": "customer-ended-call",
	"createdAt": "2024-05-01T23:27:40.000Z",
	"startedAt": "2024-05-01T23:27:55.000Z",
	"endedAt": "2024-05-01T23:30:25.000Z",
	"cost": 0.42,
	"transcript": "AI: Thanks for calling.\nUser: I'd like to reschedule.",
	"recordingUrl": "https://vapi-recordings.example.com/c9d9b6e0.wav",
	"summary": "Caller rescheduled to Friday.",
	"customer": {"number": "+14155550188"},
	"phoneNumber": {"number": "+14155550101"},
	"metadata": {"source": "website"}
}`

const elevenLabsCallFixture = `{
	"conversation_id": "conv_01hv9x2t",
	"agent_id": "agent_el_443",
	"status": "done",
	"has_audio": true,
	"metadata": {
		"start_time_unix_secs": 1714608475,
		"call_duration_secs": 95,
		"cost": 140,
		"phone_call": {
			"external_number": "+14155550144",
			"agent_number": "+14155550102",
			"direction": "outbound"
		}
	},
	"transcript": [
		{"role": "agent", "message": "Good afternoon."},
		{"role": "user", "message": "Hello."}
	],
	"analysis": {
		"transcript_summary": "Short greeting call.",
		"call_successful": "success"
	}
}`

func TestNormalizeRetellCall(t *testing.T) {
	var rc retellCall
	if err := json.Unmarshal([]byte(retellCallFixture), &rc); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	call := normalizeRetellCall(rc)

	if call.Provider != ProviderRetell {
		t.Errorf("provider = %v", call.Provider)
	}
	if call.Status != CallStatusCompleted {
		t.Errorf("status = %v, want completed", call.Status)
	}
	if call.Direction != DirectionOutbound {
		t.Errorf("direction = %v, want outbound", call.Direction)
	}
	if call.DurationSeconds != 60 {
		t.Errorf("duration = %d, want 60", call.DurationSeconds)
	}
	// combined_cost is already in cents; only rounded, never rescaled.
	if call.CostCents != 84 {
		t.Errorf("cost = %d cents, want 84", call.CostCents)
	}
	if call.Summary != "Customer confirmed their appointment." {
		t.Errorf("summary = %q", call.Summary)
	}
	if call.Sentiment != "Positive" {
		t.Errorf("sentiment = %q", call.Sentiment)
	}
	if call.EndedAt == nil {
		t.Error("ended_at = nil, want set")
	}
	if call.StartedAt != time.UnixMilli(1714608475945).UTC() {
		t.Errorf("started_at = %v", call.StartedAt)
	}
}

func TestNormalizeVapiCall(t *testing.T) {
	var vc vapiCall
	if err := json.Unmarshal([]byte(vapiCallFixture), &vc); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	call := normalizeVapiCall(vc)

	if call.Status != CallStatusCompleted {
		t.Errorf("status = %v, want completed", call.Status)
	}
	if call.Direction != DirectionInbound {
		t.Errorf("direction = %v, want inbound", call.Direction)
	}
	if call.DurationSeconds != 150 {
		t.Errorf("duration = %d, want 150", call.DurationSeconds)
	}
	// Vapi bills in dollars; 0.42 must become 42 cents.
	if call.CostCents != 42 {
		t.Errorf("cost = %d cents, want 42", call.CostCents)
	}
	if call.FromNumber != "+14155550188" || call.ToNumber != "+14155550101" {
		t.Errorf("from/to = %q/%q", call.FromNumber, call.ToNumber)
	}
	if call.Summary != "Caller rescheduled to Friday." {
		t.Errorf("summary = %q", call.Summary)
	}
}

func TestNormalizeElevenLabsCall(t *testing.T) {
	var conv elevenLabsConversation
	if err := json.Unmarshal([]byte(elevenLabsCallFixture), &conv); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	call := normalizeElevenLabsConversation(conv)

	if call.Status != CallStatusCompleted {
		t.Errorf("status = %v, want completed", call.Status)
	}
	if call.Direction != DirectionOutbound {
		t.Errorf("direction = %v, want outbound", call.Direction)
	}
	if call.DurationSeconds != 95 {
		t.Errorf("duration = %d, want 95", call.DurationSeconds)
	}
	// Credits are used as cents without rescaling.
	if call.CostCents != 140 {
		t.Errorf("cost = %d cents, want 140", call.CostCents)
	}
	if call.FromNumber != "+14155550102" || call.ToNumber != "+14155550144" {
		t.Errorf("from/to = %q/%q", call.FromNumber, call.ToNumber)
	}
	if call.Transcript != "agent: Good afternoon.\nuser: Hello." {
		t.Errorf("transcript = %q", call.Transcript)
	}
	if call.EndedAt == nil {
		t.Error("ended_at = nil, want derived from duration")
	}
}

func TestStatusMappingIsTotal(t *testing.T) {
	canonical := map[CallStatus]bool{
		CallStatusQueued:     true,
		CallStatusInProgress: true,
		CallStatusCompleted:  true,
		CallStatusFailed:     true,
	}

	retellStatuses := []string{"registered", "ongoing", "ended", "error", "not_connected", "some_future_state", ""}
	for _, s := range retellStatuses {
		if got := mapRetellStatus(s); !canonical[got] {
			t.Errorf("mapRetellStatus(%q) = %v, not canonical", s, got)
		}
	}

	vapiStatuses := []string{"queued", "ringing", "in-progress", "forwarding", "ended", "some_future_state", ""}
	for _, s := range vapiStatuses {
		if got := mapVapiStatus(s, ""); !canonical[got] {
			t.Errorf("mapVapiStatus(%q) = %v, not canonical", s, got)
		}
	}
	if got := mapVapiStatus("ended", "pipeline-error-openai-llm-failed"); got != CallStatusFailed {
		t.Errorf("mapVapiStatus(ended, pipeline-error) = %v, want failed", got)
	}

	elevenStatuses := []string{"initiated", "in-progress", "processing", "done", "failed", "some_future_state", ""}
	for _, s := range elevenStatuses {
		if got := mapElevenLabsStatus(s); !canonical[got] {
			t.Errorf("mapElevenLabsStatus(%q) = %v, not canonical", s, got)
		}
	}
}

func TestNormalizeToleratesMissingFields(t *testing.T) {
	t.Run("retell missing end and cost", func(t *testing.T) {
		call := normalizeRetellCall(retellCall{
			CallID:         "call_live",
			AgentID:        "agent_1",
			CallStatus:     "ongoing",
			StartTimestamp: 1714608475945,
		})
		if call.DurationSeconds != 0 {
			t.Errorf("duration = %d, want 0", call.DurationSeconds)
		}
		if call.CostCents != 0 {
			t.Errorf("cost = %d, want 0", call.CostCents)
		}
		if call.EndedAt != nil {
			t.Error("ended_at set for live call")
		}
	})

	t.Run("vapi queued call", func(t *testing.T) {
		call := normalizeVapiCall(vapiCall{
			ID:        "c1",
			Status:    "queued",
			CreatedAt: "2024-05-01T23:27:40.000Z",
		})
		if call.DurationSeconds != 0 || call.CostCents != 0 {
			t.Errorf("duration/cost = %d/%d, want 0/0", call.DurationSeconds, call.CostCents)
		}
		if call.StartedAt.IsZero() {
			t.Error("started_at zero, want createdAt fallback")
		}
	})

	t.Run("elevenlabs without metadata", func(t *testing.T) {
		call := normalizeElevenLabsConversation(elevenLabsConversation{
			ConversationID: "conv_live",
			Status:         "in-progress",
		})
		if call.DurationSeconds != 0 || call.CostCents != 0 {
			t.Errorf("duration/cost = %d/%d, want 0/0", call.DurationSeconds, call.CostCents)
		}
	})
}

func TestNormalizeIsIdempotent(t *testing.T) {
	var rc retellCall
	if err := json.Unmarshal([]byte(retellCallFixture), &rc); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	first := normalizeRetellCall(rc)
	second := normalizeRetellCall(rc)
	if !reflect.DeepEqual(first, second) {
		t.Error("normalizeRetellCall not idempotent")
	}

	var vc vapiCall
	if err := json.Unmarshal([]byte(vapiCallFixture), &vc); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if !reflect.DeepEqual(normalizeVapiCall(vc), normalizeVapiCall(vc)) {
		t.Error("normalizeVapiCall not idempotent")
	}

	var conv elevenLabsConversation
	if err := json.Unmarshal([]byte(elevenLabsCallFixture), &conv); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if !reflect.DeepEqual(normalizeElevenLabsConversation(conv), normalizeElevenLabsConversation(conv)) {
		t.Error("normalizeElevenLabsConversation not idempotent")
	}
}

func TestNormalizeAgentFixtures(t *testing.T) {
	retellAgent := map[string]interface{}{
		"agent_id":                    "agent_9f3a1",
		"agent_name":                  "Appointment Bot",
		"voice_id":                    "11labs-Adrian",
		"last_modification_timestamp": float64(1714608475945),
		"response_engine":             map[string]interface{}{"type": "retell-llm"},
	}
	a := normalizeRetellAgent(retellAgent)
	if a.ExternalID != "agent_9f3a1" || a.Name != "Appointment Bot" || a.VoiceID != "11labs-Adrian" {
		t.Errorf("retell agent = %+v", a)
	}
	if _, ok := a.Config["response_engine"]; !ok {
		t.Error("retell agent config lost vendor fields")
	}

	vapiAgent := map[string]interface{}{
		"id":        "as_77120",
		"name":      "Front Desk",
		"createdAt": "2024-05-01T23:27:40.000Z",
		"voice":     map[string]interface{}{"provider": "11labs", "voiceId": "paula"},
	}
	v := normalizeVapiAgent(vapiAgent)
	if v.ExternalID != "as_77120" || v.VoiceID != "paula" {
		t.Errorf("vapi agent = %+v", v)
	}
	if v.CreatedAt.IsZero() {
		t.Error("vapi agent created_at not parsed")
	}

	elevenAgent := map[string]interface{}{
		"agent_id": "agent_el_443",
		"name":     "Receptionist",
		"conversation_config": map[string]interface{}{
			"tts": map[string]interface{}{"voice_id": "cgSgspJ2msm6clMCkdW9"},
		},
		"metadata": map[string]interface{}{"created_at_unix_secs": float64(1714608475)},
	}
	e := normalizeElevenLabsAgent(elevenAgent)
	if e.ExternalID != "agent_el_443" || e.VoiceID != "cgSgspJ2msm6clMCkdW9" {
		t.Errorf("elevenlabs agent = %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("elevenlabs agent created_at not parsed")
	}
}
