package providers

import (
	"context"
	"net/http"

	"github.com/troikatech/voicehub/pkg/client"
	"go.uber.org/zap"
)

// RequiredWebhookEvents is the event set every agent must emit so
// downstream consumers receive live-transcript and analysis updates.
var RequiredWebhookEvents = []string{
	"call_started",
	"call_ended",
	"call_analyzed",
	"transcript_updated",
}

// retellWebhookUpdate carries only the event subscription list. The
// webhook_url field must stay absent from the payload entirely: Retell
// reads a missing field as "keep the account-level delivery URL" and an
// empty string as "disable delivery", which are very different things.
type retellWebhookUpdate struct {
	WebhookEvents []string `json:"webhook_events"`
}

// EnsureAgentWebhookConfig converges the agent's webhook-event
// subscriptions to the required set. It is idempotent and safe to re-run.
//
// Only the mandatory update in step one can fail the call. Publishing is
// known to silently not persist on some Retell plans, and verification
// reads the live configuration which may lag the draft, so steps two and
// three degrade to warnings. The returned boolean means "reconciliation
// ran to completion", not "convergence verified"; operators watching for
// guaranteed delivery must treat the warnings as their signal.
func (c *RetellClient) EnsureAgentWebhookConfig(ctx context.Context, agentID string) (bool, error) {
	path := "/update-agent/" + agentID
	_, err := c.http.Do(ctx, client.Request{
		Method:  http.MethodPatch,
		URL:     c.baseURL + path,
		Path:    path,
		Headers: c.authHeaders(),
		Body:    retellWebhookUpdate{WebhookEvents: RequiredWebhookEvents},
	}, nil)
	if err != nil {
		return false, err
	}

	if err := c.PublishAgent(ctx, agentID); err != nil {
		c.logger.Warn("Failed to publish agent after webhook update; draft config is still correct",
			zap.String("agent_id", agentID),
			zap.Error(err),
		)
	}

	agent, err := c.GetAgent(ctx, agentID)
	if err != nil {
		c.logger.Warn("Could not re-fetch agent to verify webhook config",
			zap.String("agent_id", agentID),
			zap.Error(err),
		)
		return true, nil
	}

	observed := webhookEventsFromConfig(agent.Config)
	var missing []string
	for _, required := range RequiredWebhookEvents {
		if !observed[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		c.logger.Warn("Agent webhook config verification incomplete",
			zap.String("agent_id", agentID),
			zap.Strings("expected", RequiredWebhookEvents),
			zap.Strings("missing", missing),
		)
	}

	return true, nil
}

func webhookEventsFromConfig(config map[string]interface{}) map[string]bool {
	observed := make(map[string]bool)
	events, ok := config["webhook_events"].([]interface{})
	if !ok {
		return observed
	}
	for _, e := range events {
		if s, ok := e.(string); ok {
			observed[s] = true
		}
	}
	return observed
}
