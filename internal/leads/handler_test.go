package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/brighthome/leadquiz/pkg/logging"
)

func seedLead(t *testing.T, repo Repository) *Lead {
	t.Helper()
	payload, err := BuildPayload(&UserRecord{
		Homeowner: HomeownerYes,
		Name:      "Jane Doe",
		Zip:       "13901",
		Email:     "jane@x.com",
		Phone:     "6075551234",
	}, "a", "https://x", time.Now())
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	lead, err := repo.Create(context.Background(), payload)
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return lead
}

func TestListLeads(t *testing.T) {
	repo := NewInMemoryRepository()
	seedLead(t, repo)
	seedLead(t, repo)
	handler := NewHandler(repo, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/leads?limit=1", nil)
	w := httptest.NewRecorder()

	handler.ListLeads(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Limit != 1 {
		t.Errorf("expected one lead with limit 1, got count=%d limit=%d", resp.Count, resp.Limit)
	}
}

func TestGetLead(t *testing.T) {
	repo := NewInMemoryRepository()
	lead := seedLead(t, repo)
	handler := NewHandler(repo, logging.Default())

	r := chi.NewRouter()
	r.Get("/admin/leads/{leadID}", handler.GetLead)

	req := httptest.NewRequest(http.MethodGet, "/admin/leads/"+lead.ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var got Lead
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != lead.ID || got.Email != "jane@x.com" {
		t.Errorf("unexpected lead returned: %+v", got)
	}
}

func TestGetLeadNotFound(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), logging.Default())

	r := chi.NewRouter()
	r.Get("/admin/leads/{leadID}", handler.GetLead)

	req := httptest.NewRequest(http.MethodGet, "/admin/leads/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
