package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/pkg/logging"
)

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func capturedLead() *leads.Lead {
	return &leads.Lead{
		ID:          "lead-1",
		FirstName:   "Jane",
		LastName:    "Doe",
		Phone:       "+16075551234",
		Email:       "jane@x.com",
		Zip:         "13901",
		QuizAnswers: `{"homeowner":"yes","variant":"a"}`,
		PageURL:     "https://x",
	}
}

func TestLeadCapturedSendsEmail(t *testing.T) {
	sender := &mockEmailSender{}
	svc := NewService(sender, "sales@brighthome.test", logging.Default())

	if err := svc.LeadCaptured(context.Background(), capturedLead()); err != nil {
		t.Fatalf("LeadCaptured returned error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "sales@brighthome.test" {
		t.Errorf("unexpected recipient: %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "Jane Doe") {
		t.Errorf("subject should name the lead, got %q", msg.Subject)
	}
	for _, want := range []string{"+16075551234", "jane@x.com", "13901"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if msg.HTML == "" {
		t.Error("expected an HTML body")
	}
}

func TestLeadCapturedSkipsWhenUnconfigured(t *testing.T) {
	svc := NewService(nil, "", logging.Default())
	if err := svc.LeadCaptured(context.Background(), capturedLead()); err != nil {
		t.Fatalf("unconfigured service must be a no-op, got %v", err)
	}

	sender := &mockEmailSender{}
	svc = NewService(sender, "", logging.Default())
	if err := svc.LeadCaptured(context.Background(), capturedLead()); err != nil {
		t.Fatalf("missing recipient must be a no-op, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no sends, got %d", len(sender.sent))
	}
}

func TestLeadCapturedPropagatesSendError(t *testing.T) {
	sender := &mockEmailSender{callErr: errors.New("smtp down")}
	svc := NewService(sender, "sales@brighthome.test", logging.Default())

	if err := svc.LeadCaptured(context.Background(), capturedLead()); err == nil {
		t.Fatal("expected error from failing sender")
	}
}

func TestStubEmailSenderNeverFails(t *testing.T) {
	stub := NewStubEmailSender(logging.Default())
	if err := stub.Send(context.Background(), EmailMessage{To: "x@y.z", Subject: "hi"}); err != nil {
		t.Fatalf("stub sender returned error: %v", err)
	}
}
