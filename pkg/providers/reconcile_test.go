package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeRetell stands in for the Retell API during reconciliation tests
type fakeRetell struct {
	updateStatus  int
	publishStatus int
	agentEvents   []string

	updateBody   map[string]interface{}
	publishCalls int
	getCalls     int
}

func (f *fakeRetell) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/update-agent/", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&f.updateBody)
		if f.updateStatus >= 400 {
			w.WriteHeader(f.updateStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"agent_id": "agent_1"})
	})
	mux.HandleFunc("/publish-agent/", func(w http.ResponseWriter, r *http.Request) {
		f.publishCalls++
		if f.publishStatus >= 400 {
			w.WriteHeader(f.publishStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/get-agent/", func(w http.ResponseWriter, r *http.Request) {
		f.getCalls++
		events := make([]interface{}, 0, len(f.agentEvents))
		for _, e := range f.agentEvents {
			events = append(events, e)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"agent_id":       "agent_1",
			"agent_name":     "Reception",
			"webhook_events": events,
		})
	})
	return mux
}

func newReconcileFixture(t *testing.T, fake *fakeRetell) (*RetellClient, func()) {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	c := NewRetellClient("key_r")
	c.baseURL = server.URL
	return c, server.Close
}

func TestEnsureAgentWebhookConfig_HappyPath(t *testing.T) {
	fake := &fakeRetell{agentEvents: RequiredWebhookEvents}
	c, done := newReconcileFixture(t, fake)
	defer done()

	attempted, err := c.EnsureAgentWebhookConfig(context.Background(), "agent_1")
	if err != nil {
		t.Fatalf("EnsureAgentWebhookConfig() error = %v, want nil", err)
	}
	if !attempted {
		t.Error("attempted = false, want true")
	}
	if fake.publishCalls != 1 {
		t.Errorf("publish calls = %d, want 1", fake.publishCalls)
	}
	if fake.getCalls != 1 {
		t.Errorf("verification fetches = %d, want 1", fake.getCalls)
	}

	events, _ := fake.updateBody["webhook_events"].([]interface{})
	if len(events) != len(RequiredWebhookEvents) {
		t.Errorf("update sent %d events, want %d", len(events), len(RequiredWebhookEvents))
	}
	// Sending webhook_url at all would override the account-level URL;
	// the field must be absent, not empty.
	if _, present := fake.updateBody["webhook_url"]; present {
		t.Error("update payload contains webhook_url, must be omitted")
	}
}

func TestEnsureAgentWebhookConfig_PublishFailureIsNonFatal(t *testing.T) {
	fake := &fakeRetell{
		publishStatus: http.StatusForbidden,
		agentEvents:   []string{"call_started", "call_ended"},
	}
	c, done := newReconcileFixture(t, fake)
	defer done()

	attempted, err := c.EnsureAgentWebhookConfig(context.Background(), "agent_1")
	if err != nil {
		t.Fatalf("EnsureAgentWebhookConfig() error = %v, want nil despite publish failure", err)
	}
	if !attempted {
		t.Error("attempted = false, want true")
	}
	if fake.getCalls != 1 {
		t.Errorf("verification fetches = %d, want 1 (verify still runs)", fake.getCalls)
	}
}

func TestEnsureAgentWebhookConfig_UpdateFailurePropagates(t *testing.T) {
	fake := &fakeRetell{updateStatus: http.StatusBadRequest}
	c, done := newReconcileFixture(t, fake)
	defer done()

	attempted, err := c.EnsureAgentWebhookConfig(context.Background(), "agent_1")
	if err == nil {
		t.Fatal("EnsureAgentWebhookConfig() error = nil, want error when update fails")
	}
	if attempted {
		t.Error("attempted = true, want false")
	}
	if fake.publishCalls != 0 {
		t.Errorf("publish calls = %d, want 0 after failed update", fake.publishCalls)
	}
}

func TestEnsureAgentWebhookConfig_Idempotent(t *testing.T) {
	fake := &fakeRetell{agentEvents: RequiredWebhookEvents}
	c, done := newReconcileFixture(t, fake)
	defer done()

	for i := 0; i < 2; i++ {
		attempted, err := c.EnsureAgentWebhookConfig(context.Background(), "agent_1")
		if err != nil || !attempted {
			t.Fatalf("run %d: attempted=%v err=%v", i, attempted, err)
		}
	}
}
