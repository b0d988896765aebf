package providers

import "time"

// Provider identifies one of the supported voice-AI platforms
type Provider string

const (
	ProviderRetell     Provider = "retell"
	ProviderVapi       Provider = "vapi"
	ProviderElevenLabs Provider = "elevenlabs"
)

// All lists every supported provider, in factory order
func All() []Provider {
	return []Provider{ProviderRetell, ProviderVapi, ProviderElevenLabs}
}

// Valid reports whether p names a supported provider
func (p Provider) Valid() bool {
	switch p {
	case ProviderRetell, ProviderVapi, ProviderElevenLabs:
		return true
	}
	return false
}

// CallStatus is the canonical call lifecycle state
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

// CallDirection is the canonical call direction
type CallDirection string

const (
	DirectionInbound  CallDirection = "inbound"
	DirectionOutbound CallDirection = "outbound"
)

// NormalizedAgent is the vendor-agnostic agent record. ExternalID plus
// Provider uniquely identifies an agent; the ID is always vendor-assigned,
// never invented here.
type NormalizedAgent struct {
	ExternalID string    `json:"external_id" bson:"external_id"`
	Name       string    `json:"name" bson:"name"`
	Provider   Provider  `json:"provider" bson:"provider"`
	VoiceID    string    `json:"voice_id,omitempty" bson:"voice_id,omitempty"`
	VoiceName  string    `json:"voice_name,omitempty" bson:"voice_name,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`

	// Config carries vendor-specific fields untouched so the agent editor
	// can round-trip them. This layer never interprets its contents.
	Config map[string]interface{} `json:"config,omitempty" bson:"config,omitempty"`
}

// NormalizedCall is the vendor-agnostic call record. DurationSeconds and
// CostCents are always non-negative and in fixed units regardless of how
// the vendor reports them.
type NormalizedCall struct {
	ExternalID      string        `json:"external_id" bson:"external_id"`
	AgentExternalID string        `json:"agent_external_id" bson:"agent_external_id"`
	Provider        Provider      `json:"provider" bson:"provider"`
	Status          CallStatus    `json:"status" bson:"status"`
	Direction       CallDirection `json:"direction" bson:"direction"`
	DurationSeconds int           `json:"duration_seconds" bson:"duration_seconds"`
	CostCents       int           `json:"cost_cents" bson:"cost_cents"`
	FromNumber      string        `json:"from_number,omitempty" bson:"from_number,omitempty"`
	ToNumber        string        `json:"to_number,omitempty" bson:"to_number,omitempty"`
	Transcript      string        `json:"transcript,omitempty" bson:"transcript,omitempty"`
	AudioURL        string        `json:"audio_url,omitempty" bson:"audio_url,omitempty"`
	Summary         string        `json:"summary,omitempty" bson:"summary,omitempty"`
	Sentiment       string        `json:"sentiment,omitempty" bson:"sentiment,omitempty"`
	StartedAt       time.Time     `json:"started_at" bson:"started_at"`
	EndedAt         *time.Time    `json:"ended_at,omitempty" bson:"ended_at,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// ListCallsParams are the shared call-listing parameters. Cursor is the
// vendor's raw pagination token and is deliberately opaque; its semantics
// differ per provider.
type ListCallsParams struct {
	AgentExternalID string
	Limit           int
	SortDescending  bool
	Cursor          string
}

// CallPage is one page of normalized calls plus the vendor's raw cursor
// for the next page, empty when the vendor reported no further results.
type CallPage struct {
	Calls      []NormalizedCall `json:"calls"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// AgentInput is the create/update payload for an agent. Config is passed
// through to the vendor in its native shape.
type AgentInput struct {
	Name    string                 `json:"name"`
	VoiceID string                 `json:"voice_id,omitempty"`
	Config  map[string]interface{} `json:"config,omitempty"`
}
