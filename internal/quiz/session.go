package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brighthome/leadquiz/internal/leads"
)

// Session is one visitor's pass through the quiz. Created once per visit,
// mutated field-by-field as the visitor advances, consumed at submission.
type Session struct {
	ID        string           `dynamodbav:"sessionId" json:"session_id"`
	VisitorID string           `dynamodbav:"visitorId" json:"visitor_id"`
	Variant   string           `dynamodbav:"variant" json:"variant"`
	Step      Step             `dynamodbav:"step" json:"step"`
	Record    leads.UserRecord `dynamodbav:"record" json:"record"`
	Halted    bool             `dynamodbav:"halted" json:"halted"`
	Converted bool             `dynamodbav:"converted" json:"converted"`
	PageURL   string           `dynamodbav:"pageUrl" json:"page_url"`
	CreatedAt string           `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt string           `dynamodbav:"updatedAt" json:"updated_at"`
	ExpiresAt int64            `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// NewSession creates a fresh session at the gate step.
func NewSession(visitorID, variantTag, pageURL string) *Session {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return &Session{
		ID:        uuid.New().String(),
		VisitorID: visitorID,
		Variant:   variantTag,
		Step:      StepHomeowner,
		PageURL:   pageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SessionStore persists quiz sessions between HTTP requests.
type SessionStore interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
}

// MemorySessionStore keeps sessions in a map, for development and tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (s *MemorySessionStore) Create(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := sess
	return &copied, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return ErrSessionNotFound
	}
	s.sessions[sess.ID] = *sess
	return nil
}
