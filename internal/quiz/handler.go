package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/internal/observability/metrics"
	"github.com/brighthome/leadquiz/internal/submit"
	"github.com/brighthome/leadquiz/pkg/logging"
)

// notHomeownerMessage is shown when the gate question disqualifies the visitor.
const notHomeownerMessage = "Sorry, this offer is only available to homeowners."

type variantAssigner interface {
	Assign(ctx context.Context, visitorID string) (string, error)
}

type leadSubmitter interface {
	Submit(ctx context.Context, sessionID string, rec *leads.UserRecord, variantTag, pageURL string) (*submit.Result, error)
}

// Handler drives quiz sessions over HTTP.
type Handler struct {
	store     SessionStore
	assigner  variantAssigner
	submitter leadSubmitter
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
}

// NewHandler creates a quiz handler.
func NewHandler(store SessionStore, assigner variantAssigner, submitter leadSubmitter, m *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:     store,
		assigner:  assigner,
		submitter: submitter,
		metrics:   m,
		logger:    logger,
	}
}

type startRequest struct {
	VisitorID string `json:"visitor_id"`
	PageURL   string `json:"page_url"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	VisitorID string `json:"visitor_id"`
	Variant   string `json:"variant"`
	Step      string `json:"step"`
	Title     string `json:"title"`
	Halted    bool   `json:"halted,omitempty"`
	Done      bool   `json:"done,omitempty"`
	Submitted bool   `json:"submitted,omitempty"`
	Message   string `json:"message,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Start handles POST /quiz/start requests
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	visitorID := strings.TrimSpace(req.VisitorID)
	if visitorID == "" {
		visitorID = uuid.NewString()
	}

	bucket, err := h.assigner.Assign(r.Context(), visitorID)
	if err != nil {
		h.logger.Error("failed to assign variant", "error", err, "visitor_id", visitorID)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to start quiz"})
		return
	}

	sess := NewSession(visitorID, bucket, strings.TrimSpace(req.PageURL))
	if err := h.store.Create(r.Context(), sess); err != nil {
		h.logger.Error("failed to create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to start quiz"})
		return
	}

	h.logger.Info("quiz started", "session_id", sess.ID, "variant", sess.Variant)
	writeJSON(w, http.StatusCreated, h.snapshot(sess))
}

type answerRequest struct {
	Input string `json:"input"`
}

// Answer handles POST /quiz/{sessionID}/answer requests
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "session not found"})
			return
		}
		h.logger.Error("failed to load session", "error", err, "session_id", sessionID)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to load session"})
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	prevStep := sess.Step
	if err := Advance(sess, req.Input); err != nil {
		h.answerError(w, r, sess, err)
		return
	}

	if prevStep == StepPhone && sess.Step == StepDone {
		h.completeAndSubmit(w, r, sess)
		return
	}

	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sess.ID)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to save progress"})
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot(sess))
}

// GetSession handles GET /quiz/{sessionID} requests
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "session not found"})
			return
		}
		h.logger.Error("failed to load session", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to load session"})
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot(sess))
}

func (h *Handler) answerError(w http.ResponseWriter, r *http.Request, sess *Session, err error) {
	if ve, ok := IsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Error(), Field: ve.Field})
		return
	}

	switch {
	case errors.Is(err, ErrNotHomeowner):
		// The gate answer is recorded and the session halts for good.
		if saveErr := h.store.Save(r.Context(), sess); saveErr != nil {
			h.logger.Error("failed to save halted session", "error", saveErr, "session_id", sess.ID)
		}
		resp := h.snapshot(sess)
		resp.Message = notHomeownerMessage
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, ErrSessionHalted):
		writeJSON(w, http.StatusConflict, errorBody{Error: notHomeownerMessage})
	case errors.Is(err, ErrQuizComplete):
		writeJSON(w, http.StatusConflict, errorBody{Error: "quiz already complete"})
	default:
		h.logger.Error("failed to advance quiz", "error", err, "session_id", sess.ID)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to advance quiz"})
	}
}

// completeAndSubmit runs the final-step submission. On failure the session
// stays at the phone step so the visitor can retry; on success the terminal
// step is entered and the one-time conversion event fires.
func (h *Handler) completeAndSubmit(w http.ResponseWriter, r *http.Request, sess *Session) {
	_, err := h.submitter.Submit(r.Context(), sess.ID, &sess.Record, sess.Variant, sess.PageURL)
	if err != nil {
		if errors.Is(err, submit.ErrSubmissionInFlight) {
			writeJSON(w, http.StatusConflict, errorBody{Error: "submission already in progress"})
			return
		}

		sess.Step = StepPhone
		if saveErr := h.store.Save(r.Context(), sess); saveErr != nil {
			h.logger.Error("failed to save session after submit failure", "error", saveErr, "session_id", sess.ID)
		}

		var tf *submit.TotalFailureError
		if errors.As(err, &tf) {
			h.logger.Error("lead submission failed on all sinks", "session_id", sess.ID, "error", err)
			writeJSON(w, http.StatusBadGateway, errorBody{Error: submit.UserFacingFailureMessage})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	if !sess.Converted {
		sess.Converted = true
		h.metrics.ObserveConversion()
	}
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save completed session", "error", err, "session_id", sess.ID)
	}

	resp := h.snapshot(sess)
	resp.Done = true
	resp.Submitted = true
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) snapshot(sess *Session) sessionResponse {
	return sessionResponse{
		SessionID: sess.ID,
		VisitorID: sess.VisitorID,
		Variant:   sess.Variant,
		Step:      sess.Step.String(),
		Title:     Title(sess),
		Halted:    sess.Halted,
		Done:      sess.Step == StepDone,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
