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

// AutomationSink posts a slimmed-down record to the marketing-automation
// webhook. The response body is opaque; only the HTTP status is inspected.
type AutomationSink struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// AutomationConfig controls how the automation sink behaves.
type AutomationConfig struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewAutomationSink creates a configured automation sink.
func NewAutomationSink(cfg AutomationConfig) (*AutomationSink, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("sinks: automation webhook URL is required")
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
	return &AutomationSink{
		url:        url,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (s *AutomationSink) Name() string { return "automation" }

type automationPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Zip       string `json:"zip,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Deliver posts the subset payload and checks only the status code.
func (s *AutomationSink) Deliver(ctx context.Context, payload *leads.Payload) error {
	body, err := json.Marshal(automationPayload{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Zip:       payload.Zip,
		Address:   payload.Address,
	})
	if err != nil {
		return fmt.Errorf("sinks: encode automation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sinks: build automation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sinks: automation request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	// Opaque response text, drained so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sinks: automation webhook returned status %d", resp.StatusCode)
	}

	s.logger.Info("lead delivered to automation webhook", "email", payload.Email)
	return nil
}
