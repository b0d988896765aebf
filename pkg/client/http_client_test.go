package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/troikatech/voicehub/pkg/retry"
)

func testClient(t *testing.T) *HTTPClient {
	t.Helper()
	c := New("retell", 5*time.Second)
	c.retryConfig = retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}
	return c
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"agent_id":"ag_123"}`))
	}))
	defer server.Close()

	var out struct {
		AgentID string `json:"agent_id"`
	}
	ok, err := testClient(t).Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    server.URL,
	}, &out)

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if !ok {
		t.Fatal("Do() ok = false, want true")
	}
	if attempts != 3 {
		t.Errorf("server attempts = %d, want 3", attempts)
	}
	if out.AgentID != "ag_123" {
		t.Errorf("decoded agent_id = %q, want ag_123", out.AgentID)
	}
}

func TestDo_FailsFastOnClientError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"agent not found"}`))
	}))
	defer server.Close()

	_, err := testClient(t).Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    server.URL,
		Path:   "/get-agent/ag_missing",
	}, &struct{}{})

	var apiErr *VendorAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Do() error = %v, want *VendorAPIError", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.Status)
	}
	if apiErr.Path != "/get-agent/ag_missing" {
		t.Errorf("path = %q, want /get-agent/ag_missing", apiErr.Path)
	}
	if attempts != 1 {
		t.Errorf("server attempts = %d, want 1 (no retry on 4xx)", attempts)
	}
}

func TestDo_RetryableStatusExhaustsAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(t).Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    server.URL,
	}, &struct{}{})

	var apiErr *VendorAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Do() error = %v, want *VendorAPIError", err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", apiErr.Status)
	}
	if attempts != 3 {
		t.Errorf("server attempts = %d, want 3", attempts)
	}
}

func TestDo_EmptyNonJSONBodyResolvesToNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var out map[string]interface{}
	ok, err := testClient(t).Do(context.Background(), Request{
		Method: http.MethodDelete,
		URL:    server.URL,
	}, &out)

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if ok {
		t.Error("Do() ok = true, want false for empty non-JSON body")
	}
}

func TestDo_MisdeclaredJSONBodyResolvesToNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	var out map[string]interface{}
	ok, err := testClient(t).Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    server.URL,
	}, &out)

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if ok {
		t.Error("Do() ok = true, want false for unparsable JSON body")
	}
}

func TestDo_NetworkFailureReturnsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	_, err := testClient(t).Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    server.URL,
	}, &struct{}{})

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Do() error = %v, want *TransportError", err)
	}
	if transportErr.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", transportErr.Attempts)
	}
	if transportErr.Err == nil {
		t.Error("TransportError.Err = nil, want last cause")
	}
}

func TestUploadMultipart_SendsFieldsAndFiles(t *testing.T) {
	var gotContentType, gotField, gotFilename string
	var gotFile []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotField = r.FormValue("knowledge_base_name")
		file, header, err := r.FormFile("knowledge_base_files")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		buf := make([]byte, header.Size)
		file.Read(buf)
		gotFile = buf

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"knowledge_base_id":"kb_1"}`))
	}))
	defer server.Close()

	body, err := testClient(t).UploadMultipart(context.Background(), server.URL, nil,
		map[string]string{"knowledge_base_name": "faq"},
		[]FormFile{{
			Field:    "knowledge_base_files",
			Filename: "faq.txt",
			Content:  []byte("q and a"),
		}},
	)

	if err != nil {
		t.Fatalf("UploadMultipart() error = %v, want nil", err)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("content type = %q, want multipart/form-data", gotContentType)
	}
	if gotField != "faq" {
		t.Errorf("field = %q, want faq", gotField)
	}
	if gotFilename != "faq.txt" {
		t.Errorf("filename = %q, want faq.txt", gotFilename)
	}
	if string(gotFile) != "q and a" {
		t.Errorf("file content = %q, want %q", gotFile, "q and a")
	}
	if string(body) != `{"knowledge_base_id":"kb_1"}` {
		t.Errorf("body = %s", body)
	}
}

func TestUploadMultipart_ClassifiesVendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"unsupported file type"}`))
	}))
	defer server.Close()

	_, err := testClient(t).UploadMultipart(context.Background(), server.URL, nil, nil, nil)

	var apiErr *VendorAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("UploadMultipart() error = %v, want *VendorAPIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", apiErr.Status)
	}
}
