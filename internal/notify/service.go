package notify

import (
	"context"
	"fmt"

	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/pkg/logging"
)

// Service sends sales-team notifications for captured leads.
type Service struct {
	email     EmailSender
	recipient string
	logger    *logging.Logger
}

// NewService creates a notification service. A nil sender or empty recipient
// disables notifications without breaking callers.
func NewService(email EmailSender, recipient string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:     email,
		recipient: recipient,
		logger:    logger,
	}
}

// LeadCaptured emails the sales team about a newly accepted lead.
func (s *Service) LeadCaptured(ctx context.Context, lead *leads.Lead) error {
	if s.email == nil || s.recipient == "" {
		s.logger.Debug("notify: email sender not configured, skipping lead notification")
		return nil
	}

	name := lead.FirstName
	if lead.LastName != "" {
		name += " " + lead.LastName
	}

	subject := fmt.Sprintf("New Lead - %s", name)
	body := fmt.Sprintf(`A new lead just came in from the quiz!

Name: %s
Phone: %s
Email: %s
Zip: %s
Quiz Answers: %s
Source: %s

Please follow up while the lead is warm.`,
		name, lead.Phone, lead.Email, lead.Zip, lead.QuizAnswers, lead.PageURL)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #10b981;">New Lead</h2>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Name:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Phone:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><a href="tel:%s">%s</a></td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Email:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><a href="mailto:%s">%s</a></td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Zip:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Source:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
</table>
<p style="background: #f0fdf4; padding: 12px; border-radius: 8px; border-left: 4px solid #10b981;">
  Please follow up while the lead is warm.
</p>
</div>`,
		name, lead.Phone, lead.Phone, lead.Email, lead.Email, lead.Zip, lead.PageURL)

	msg := EmailMessage{
		To:      s.recipient,
		Subject: subject,
		Body:    body,
		HTML:    html,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: failed to send lead notification", "error", err, "to", s.recipient)
		return fmt.Errorf("notify: send lead notification: %w", err)
	}

	s.logger.Info("notify: lead notification sent", "to", s.recipient, "lead_id", lead.ID)
	return nil
}
