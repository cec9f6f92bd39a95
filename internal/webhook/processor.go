// Package webhook implements the lead-capture receiver: it validates raw
// request bodies, appends accepted leads to the spreadsheet store and logs
// rejected payloads for manual recovery.
package webhook

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/internal/notify"
	"github.com/brighthome/leadquiz/internal/observability/metrics"
	"github.com/brighthome/leadquiz/pkg/logging"
)

var tracer = otel.Tracer("leadquiz.internal.webhook")

// Response is the in-body result of processing one webhook request. The HTTP
// status is always 200; success or failure is signaled here.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// rowStore is the slice of the sheet store the processor needs.
type rowStore interface {
	AppendLead(p *leads.Payload) error
	AppendError(message, stack, rawPayload string) error
}

// leadNotifier fans a captured lead out to the sales team.
type leadNotifier interface {
	LeadCaptured(ctx context.Context, lead *leads.Lead) error
}

// Processor validates and persists incoming lead payloads.
type Processor struct {
	store    rowStore
	repo     leads.Repository
	notifier leadNotifier
	metrics  *metrics.LeadMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewProcessor creates a webhook processor. The sheet store is required;
// repo and notifier are optional best-effort extras.
func NewProcessor(store rowStore, repo leads.Repository, notifier leadNotifier, m *metrics.LeadMetrics, logger *logging.Logger) *Processor {
	if store == nil {
		panic("webhook: row store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{
		store:    store,
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   logger.WithComponent("webhook"),
		now:      time.Now,
	}
}

var _ leadNotifier = (*notify.Service)(nil)

// Process handles one raw POST body. Validation runs in a fixed order and
// the first failure short-circuits: body present, JSON parses, then each
// required field in sequence. Failures are durably logged with the raw
// payload; the error-log write itself is best-effort and never raises.
func (p *Processor) Process(ctx context.Context, raw []byte) Response {
	ctx, span := tracer.Start(ctx, "webhook.process")
	defer span.End()
	start := p.now()

	if len(strings.TrimSpace(string(raw))) == 0 {
		return p.reject(ctx, "No data received", raw, start)
	}

	var payload leads.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		span.RecordError(err)
		return p.reject(ctx, "Invalid JSON payload", raw, start)
	}

	for _, f := range []struct {
		name  string
		value string
	}{
		{"first_name", payload.FirstName},
		{"email", payload.Email},
		{"phone", payload.Phone},
		{"zip", payload.Zip},
	} {
		if strings.TrimSpace(f.value) == "" {
			return p.reject(ctx, "Missing required field: "+f.name, raw, start)
		}
	}

	// The client already normalized the phone, but the receiver does not
	// trust the client.
	payload.Phone = leads.NormalizePhone(payload.Phone)
	payload.Email = leads.NormalizeEmail(payload.Email)
	span.SetAttributes(attribute.String("lead.zip", payload.Zip))

	if err := p.store.AppendLead(&payload); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to append lead row", "error", err)
		return p.reject(ctx, "Failed to save lead", raw, start)
	}

	p.persistAndNotify(ctx, &payload)

	p.metrics.ObserveReceiver("accepted", time.Since(start).Seconds())
	p.logger.Info("lead captured", "zip", payload.Zip, "page_url", payload.PageURL)
	return Response{
		Success:   true,
		Message:   "Lead captured",
		Timestamp: p.now().UTC().Format(time.RFC3339),
	}
}

// persistAndNotify stores the lead in the relational repository and emails
// the sales team. Both are best-effort relative to the row append: the lead
// is already durable in the sheet, so failures here only get logged.
func (p *Processor) persistAndNotify(ctx context.Context, payload *leads.Payload) {
	if p.repo == nil {
		return
	}
	lead, err := p.repo.Create(ctx, payload)
	if err != nil {
		p.logger.Error("failed to persist lead", "error", err)
		return
	}
	if p.notifier != nil {
		if err := p.notifier.LeadCaptured(ctx, lead); err != nil {
			p.logger.Error("failed to notify sales team", "error", err)
		}
	}
}

func (p *Processor) reject(ctx context.Context, message string, raw []byte, start time.Time) Response {
	p.logError(ctx, message, raw)
	p.metrics.ObserveReceiver("rejected", time.Since(start).Seconds())
	p.logger.Warn("lead rejected", "reason", message)
	return Response{Success: false, Error: message}
}

// logError appends an error-log row. It must never raise: a failure while
// writing the error log is swallowed so it cannot mask the original error.
func (p *Processor) logError(ctx context.Context, message string, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while writing error log", "panic", r)
		}
	}()
	if err := p.store.AppendError(message, "webhook.Process", string(raw)); err != nil {
		p.logger.Error("failed to write error log row", "error", err)
	}
}
