// Package variant assigns visitors to A/B experiment buckets. A bucket is
// chosen once per visitor with a fair coin flip and persisted, so repeat
// visits keep the same presentation.
package variant

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/brighthome/leadquiz/pkg/logging"
)

// Buckets a visitor can land in.
const (
	BucketA = "a"
	BucketB = "b"
)

// ErrNotAssigned indicates no bucket is stored for the visitor.
var ErrNotAssigned = errors.New("variant: visitor not assigned")

// Store persists bucket assignments per visitor.
type Store interface {
	// Get returns the stored bucket or ErrNotAssigned.
	Get(ctx context.Context, visitorID string) (string, error)
	// SetIfAbsent stores the bucket unless the visitor already has one, and
	// returns the bucket that ended up stored.
	SetIfAbsent(ctx context.Context, visitorID, bucket string) (string, error)
}

// Assigner hands out sticky 50/50 bucket assignments.
type Assigner struct {
	store  Store
	coin   func() string
	logger *logging.Logger
}

// NewAssigner creates an assigner backed by the given store.
func NewAssigner(store Store, logger *logging.Logger) *Assigner {
	if store == nil {
		panic("variant: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Assigner{
		store: store,
		coin: func() string {
			if rand.Intn(2) == 0 {
				return BucketA
			}
			return BucketB
		},
		logger: logger,
	}
}

// Assign returns the visitor's bucket, flipping and persisting one on first sight.
func (a *Assigner) Assign(ctx context.Context, visitorID string) (string, error) {
	bucket, err := a.store.Get(ctx, visitorID)
	if err == nil {
		return bucket, nil
	}
	if !errors.Is(err, ErrNotAssigned) {
		return "", err
	}

	bucket, err = a.store.SetIfAbsent(ctx, visitorID, a.coin())
	if err != nil {
		return "", err
	}
	a.logger.Debug("assigned variant", "visitor_id", visitorID, "bucket", bucket)
	return bucket, nil
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, visitorID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.buckets[visitorID]
	if !ok {
		return "", ErrNotAssigned
	}
	return bucket, nil
}

func (s *MemoryStore) SetIfAbsent(ctx context.Context, visitorID, bucket string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.buckets[visitorID]; ok {
		return existing, nil
	}
	s.buckets[visitorID] = bucket
	return bucket, nil
}
