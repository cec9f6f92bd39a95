// Package submit dispatches completed lead records to the configured sinks.
// Delivery is a best-effort redundant fan-out: both sinks are tried
// independently and the submission counts as successful when either one
// accepts the lead. That trades consistency (a lead may land in only one
// place) for availability (one sink being down does not lose the lead).
package submit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/internal/observability/metrics"
	"github.com/brighthome/leadquiz/internal/sinks"
	"github.com/brighthome/leadquiz/pkg/logging"
)

// UserFacingFailureMessage is surfaced to the visitor when every sink fails
// and the lead data would otherwise be lost.
const UserFacingFailureMessage = "We couldn't save your information. Please try again or call us."

// ErrSubmissionInFlight rejects a second submission while one is outstanding
// for the same session.
var ErrSubmissionInFlight = errors.New("submit: submission already in flight")

// SinkResult is the outcome of one sink's delivery attempt.
type SinkResult struct {
	Sink string
	Err  error
}

// Result aggregates the fan-out: OK is the logical OR of the sink outcomes.
type Result struct {
	OK    bool
	Sinks []SinkResult
}

// TotalFailureError is returned when every sink failed; it carries the
// user-facing message plus each sink's error for diagnostics.
type TotalFailureError struct {
	Results []SinkResult
}

func (e *TotalFailureError) Error() string {
	parts := make([]string, 0, len(e.Results))
	for _, r := range e.Results {
		if r.Err != nil {
			parts = append(parts, r.Sink+": "+r.Err.Error())
		}
	}
	return "submit: all sinks failed (" + strings.Join(parts, "; ") + ")"
}

// Submitter validates, normalizes, and fans out completed lead records.
type Submitter struct {
	sinks   []sinks.Sink
	metrics *metrics.LeadMetrics
	logger  *logging.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewSubmitter creates a submitter over the given sinks.
func NewSubmitter(sinkList []sinks.Sink, m *metrics.LeadMetrics, logger *logging.Logger) *Submitter {
	if len(sinkList) == 0 {
		panic("submit: at least one sink required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Submitter{
		sinks:    sinkList,
		metrics:  m,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// Submit builds the wire payload from the record and dispatches it to every
// sink concurrently. Validation failures abort before any network call. A
// second call for the same session while one is outstanding performs no
// network activity and returns ErrSubmissionInFlight.
func (s *Submitter) Submit(ctx context.Context, sessionID string, rec *leads.UserRecord, variantTag, pageURL string) (*Result, error) {
	if !s.begin(sessionID) {
		return nil, ErrSubmissionInFlight
	}
	defer s.end(sessionID)

	payload, err := leads.BuildPayload(rec, variantTag, pageURL, time.Now())
	if err != nil {
		return nil, err
	}

	results := make([]SinkResult, len(s.sinks))
	var wg sync.WaitGroup
	for i, sink := range s.sinks {
		wg.Add(1)
		go func(i int, sink sinks.Sink) {
			defer wg.Done()
			err := sink.Deliver(ctx, payload)
			results[i] = SinkResult{Sink: sink.Name(), Err: err}
		}(i, sink)
	}
	// Both dispatches run to completion; neither cancels the other.
	wg.Wait()

	result := &Result{Sinks: results}
	for _, r := range results {
		s.metrics.ObserveSinkDelivery(r.Sink, r.Err == nil)
		if r.Err == nil {
			result.OK = true
		} else {
			s.logger.Warn("sink delivery failed", "sink", r.Sink, "error", r.Err)
		}
	}

	s.metrics.ObserveSubmission(result.OK)
	if !result.OK {
		s.logger.Error("all sinks failed, lead not recorded", "session_id", sessionID)
		return result, &TotalFailureError{Results: results}
	}

	s.logger.Info("lead submitted", "session_id", sessionID, "email", payload.Email)
	return result, nil
}

func (s *Submitter) begin(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *Submitter) end(sessionID string) {
	s.mu.Lock()
	delete(s.inFlight, sessionID)
	s.mu.Unlock()
}
