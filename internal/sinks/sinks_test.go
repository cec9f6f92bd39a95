package sinks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/pkg/logging"
)

func testPayload() *leads.Payload {
	return &leads.Payload{
		FirstName:   "Jane",
		LastName:    "Doe",
		Phone:       "+16075551234",
		Email:       "jane@x.com",
		Zip:         "13901",
		QuizAnswers: `{"homeowner":"yes","variant":"a"}`,
		PageURL:     "https://x",
		Timestamp:   "2024-01-01T00:00:00Z",
	}
}

func TestReceiverSinkDeliver(t *testing.T) {
	var received leads.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("receiver got undecodable body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Lead recorded"})
	}))
	defer srv.Close()

	sink, err := NewReceiverSink(ReceiverConfig{URL: srv.URL, Logger: logging.Default()})
	if err != nil {
		t.Fatalf("NewReceiverSink: %v", err)
	}

	if err := sink.Deliver(context.Background(), testPayload()); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if received.FirstName != "Jane" || received.QuizAnswers == "" {
		t.Errorf("receiver saw wrong payload: %+v", received)
	}
}

func TestReceiverSinkInBodyFailure(t *testing.T) {
	// HTTP 200 with success:false is still a delivery failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Missing required field: email"})
	}))
	defer srv.Close()

	sink, err := NewReceiverSink(ReceiverConfig{URL: srv.URL, Logger: logging.Default()})
	if err != nil {
		t.Fatalf("NewReceiverSink: %v", err)
	}

	err = sink.Deliver(context.Background(), testPayload())
	if err == nil {
		t.Fatal("expected error for success:false response")
	}
}

func TestReceiverSinkBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink, _ := NewReceiverSink(ReceiverConfig{URL: srv.URL, Logger: logging.Default()})
	if err := sink.Deliver(context.Background(), testPayload()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestAutomationSinkDeliver(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("automation got undecodable body: %v", err)
		}
		// Opaque non-JSON body; only the status matters to the caller.
		_, _ = w.Write([]byte("Accepted!"))
	}))
	defer srv.Close()

	sink, err := NewAutomationSink(AutomationConfig{URL: srv.URL, Logger: logging.Default()})
	if err != nil {
		t.Fatalf("NewAutomationSink: %v", err)
	}

	if err := sink.Deliver(context.Background(), testPayload()); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if received["first_name"] != "Jane" || received["phone"] != "+16075551234" {
		t.Errorf("automation saw wrong payload: %v", received)
	}
	if _, ok := received["quiz_answers"]; ok {
		t.Error("automation payload must not carry quiz_answers")
	}
}

func TestAutomationSinkBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	sink, _ := NewAutomationSink(AutomationConfig{URL: srv.URL, Logger: logging.Default()})
	if err := sink.Deliver(context.Background(), testPayload()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestSinkConfigRequiresURL(t *testing.T) {
	if _, err := NewReceiverSink(ReceiverConfig{}); err == nil {
		t.Error("expected error for missing receiver URL")
	}
	if _, err := NewAutomationSink(AutomationConfig{}); err == nil {
		t.Error("expected error for missing automation URL")
	}
}
