package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/internal/submit"
	"github.com/brighthome/leadquiz/pkg/logging"
)

type stubAssigner struct{}

func (stubAssigner) Assign(ctx context.Context, visitorID string) (string, error) {
	return "a", nil
}

type stubSubmitter struct {
	calls int
	err   error
}

func (s *stubSubmitter) Submit(ctx context.Context, sessionID string, rec *leads.UserRecord, variantTag, pageURL string) (*submit.Result, error) {
	s.calls++
	if s.err != nil {
		return &submit.Result{}, s.err
	}
	return &submit.Result{OK: true}, nil
}

func newTestRouter(submitter *stubSubmitter) (*chi.Mux, *MemorySessionStore) {
	store := NewMemorySessionStore()
	handler := NewHandler(store, stubAssigner{}, submitter, nil, logging.Default())

	r := chi.NewRouter()
	r.Post("/quiz/start", handler.Start)
	r.Post("/quiz/{sessionID}/answer", handler.Answer)
	r.Get("/quiz/{sessionID}", handler.GetSession)
	return r, store
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func startSession(t *testing.T, r http.Handler) sessionResponse {
	t.Helper()
	w := postJSON(t, r, "/quiz/start", startRequest{VisitorID: "visitor-1", PageURL: "https://x"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	return resp
}

func answer(t *testing.T, r http.Handler, sessionID, input string) *httptest.ResponseRecorder {
	t.Helper()
	return postJSON(t, r, fmt.Sprintf("/quiz/%s/answer", sessionID), answerRequest{Input: input})
}

func TestQuizFlowEndToEnd(t *testing.T) {
	submitter := &stubSubmitter{}
	r, _ := newTestRouter(submitter)

	sess := startSession(t, r)
	if sess.Step != "homeowner" || sess.Variant != "a" {
		t.Fatalf("unexpected start state: %+v", sess)
	}

	for _, input := range []string{"yes", "Jane Doe", "13901", "jane@x.com", "6075551234"} {
		w := answer(t, r, sess.SessionID, input)
		if w.Code != http.StatusOK {
			t.Fatalf("answer %q: expected 200, got %d (%s)", input, w.Code, w.Body.String())
		}
	}

	if submitter.calls != 1 {
		t.Fatalf("expected exactly one submission, got %d", submitter.calls)
	}

	// Terminal step is not re-enterable.
	w := answer(t, r, sess.SessionID, "again")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 after completion, got %d", w.Code)
	}
	if submitter.calls != 1 {
		t.Fatalf("completion retry must not resubmit, got %d calls", submitter.calls)
	}
}

func TestQuizGateRejection(t *testing.T) {
	submitter := &stubSubmitter{}
	r, store := newTestRouter(submitter)
	sess := startSession(t, r)

	w := answer(t, r, sess.SessionID, "no")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Halted || resp.Message == "" {
		t.Fatalf("expected halted response with message, got %+v", resp)
	}

	stored, err := store.Get(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if !stored.Halted {
		t.Fatal("halt must be persisted")
	}
}

func TestQuizValidationFailure(t *testing.T) {
	submitter := &stubSubmitter{}
	r, store := newTestRouter(submitter)
	sess := startSession(t, r)

	w := answer(t, r, sess.SessionID, "maybe")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp errorBody
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Field != "homeowner" {
		t.Errorf("expected homeowner field flagged, got %q", resp.Field)
	}

	stored, _ := store.Get(context.Background(), sess.SessionID)
	if stored.Step != StepHomeowner {
		t.Error("failed validation must not advance the stored session")
	}
}

func TestQuizSubmitFailureStaysOnPhoneStep(t *testing.T) {
	submitter := &stubSubmitter{err: &submit.TotalFailureError{
		Results: []submit.SinkResult{
			{Sink: "receiver", Err: errors.New("down")},
			{Sink: "automation", Err: errors.New("down")},
		},
	}}
	r, store := newTestRouter(submitter)
	sess := startSession(t, r)

	for _, input := range []string{"yes", "Jane Doe", "13901", "jane@x.com"} {
		answer(t, r, sess.SessionID, input)
	}

	w := answer(t, r, sess.SessionID, "6075551234")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d (%s)", w.Code, w.Body.String())
	}
	var resp errorBody
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != submit.UserFacingFailureMessage {
		t.Errorf("expected user-facing failure message, got %q", resp.Error)
	}

	stored, _ := store.Get(context.Background(), sess.SessionID)
	if stored.Step != StepPhone {
		t.Errorf("session must stay at phone step for retry, got %s", stored.Step)
	}

	// The visitor can retry once the sinks recover.
	submitter.err = nil
	w = answer(t, r, sess.SessionID, "6075551234")
	if w.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d (%s)", w.Code, w.Body.String())
	}
	stored, _ = store.Get(context.Background(), sess.SessionID)
	if stored.Step != StepDone || !stored.Converted {
		t.Errorf("expected completed converted session, got %+v", stored)
	}
}

func TestQuizSessionNotFound(t *testing.T) {
	r, _ := newTestRouter(&stubSubmitter{})
	w := answer(t, r, "missing", "yes")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
