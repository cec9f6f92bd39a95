package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/brighthome/leadquiz/pkg/logging"
)

// maxBodyBytes caps incoming webhook bodies.
const maxBodyBytes = 1 << 20

// Handler exposes the processor over HTTP.
type Handler struct {
	processor *Processor
	logger    *logging.Logger
}

// NewHandler creates a webhook HTTP handler.
func NewHandler(processor *Processor, logger *logging.Logger) *Handler {
	if processor == nil {
		panic("webhook: processor is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{processor: processor, logger: logger}
}

// Receive handles POST requests. The response status is always 200; errors
// are signaled in the body so upstream callers never retry on status alone.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		writeJSON(w, Response{Success: false, Error: "Failed to read request body"})
		return
	}
	writeJSON(w, h.processor.Process(r.Context(), raw))
}

// Liveness handles GET requests. It never touches the stores.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, livenessResponse{
		Status:    "ok",
		Message:   "Lead receiver is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type livenessResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}
