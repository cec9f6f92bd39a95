package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/pkg/logging"
)

// ReceiverSink posts the full lead payload to the spreadsheet-backed webhook
// receiver. The receiver signals errors in-body with HTTP 200, so a 2xx
// status alone does not mean the lead was recorded.
type ReceiverSink struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// ReceiverConfig controls how the receiver sink behaves.
type ReceiverConfig struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewReceiverSink creates a configured receiver sink.
func NewReceiverSink(cfg ReceiverConfig) (*ReceiverSink, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("sinks: receiver URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &ReceiverSink{
		url:        url,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (s *ReceiverSink) Name() string { return "receiver" }

type receiverResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Deliver posts the payload and checks the in-body success flag.
func (s *ReceiverSink) Deliver(ctx context.Context, payload *leads.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sinks: encode receiver payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sinks: build receiver request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sinks: receiver request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("sinks: read receiver response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sinks: receiver returned status %d", resp.StatusCode)
	}

	var parsed receiverResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("sinks: receiver returned unparseable body: %w", err)
	}
	if !parsed.Success {
		return fmt.Errorf("sinks: receiver rejected lead: %s", parsed.Error)
	}

	s.logger.Info("lead delivered to receiver", "email", payload.Email)
	return nil
}
