package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/shopkart/internal/orders/ports"
)

const (
	DefaultRetention = 24 * time.Hour
	// DefaultClaimLease bounds how long an unfinished claim blocks its key.
	DefaultClaimLease = time.Minute
)

type entry struct {
	response   ports.StoredResponse
	recordedAt time.Time
}

// Store retains placement responses for replaying retried requests within the retention window.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]entry
	retention time.Duration
	lease     time.Duration
	now       func() time.Time
}

type Option func(*Store)

func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

func WithClaimLease(d time.Duration) Option {
	return func(s *Store) { s.lease = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries:   make(map[string]entry),
		retention: DefaultRetention,
		lease:     DefaultClaimLease,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) live(e entry) bool {
	window := s.retention
	if e.response.Pending() {
		window = s.lease
	}
	return !e.recordedAt.Before(s.now().Add(-window))
}

func copyOf(resp ports.StoredResponse) *ports.StoredResponse {
	resp.Body = append([]byte(nil), resp.Body...)
	return &resp
}

// Reserve claims key, or returns a copy of whatever live entry already holds it.
func (s *Store) Reserve(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && s.live(e) {
		return copyOf(e.response), nil
	}
	s.entries[key] = entry{recordedAt: s.now()}
	return nil, nil
}

// Get returns a copy of the stored response, or nil when the key is unused or expired.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || !s.live(e) {
		return nil, nil
	}
	return copyOf(e.response), nil
}

// Save completes a claim; a finished live response is kept as is.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && s.live(e) && !e.response.Pending() {
		return nil
	}
	s.entries[key] = entry{response: *copyOf(response), recordedAt: s.now()}

	for k, e := range s.entries {
		if !s.live(e) {
			delete(s.entries, k)
		}
	}
	return nil
}

func (s *Store) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && e.response.Pending() {
		delete(s.entries, key)
	}
	return nil
}
