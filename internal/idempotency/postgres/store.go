package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/shopkart/internal/orders/ports"
)

const (
	// DefaultRetention is how long a placement response stays replayable.
	DefaultRetention = 24 * time.Hour
	// DefaultClaimLease bounds how long an unfinished claim blocks its key.
	DefaultClaimLease = time.Minute
)

// Store keeps replayable placement responses in idempotency_keys.
// Rows with status_code 0 are claims whose first request is still running.
type Store struct {
	pool      *pgxpool.Pool
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

func NewStore(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, retention: DefaultRetention, lease: DefaultClaimLease, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cutoffs returns the oldest live created_at for finished rows and for claims.
func (s *Store) cutoffs() (finished, claimed time.Time) {
	now := s.now().UTC()
	return now.Add(-s.retention), now.Add(-s.lease)
}

// Reserve inserts a claim row unless a live row already holds the key, in which case that row is returned.
func (s *Store) Reserve(ctx context.Context, key string) (*ports.StoredResponse, error) {
	const query = `
		INSERT INTO idempotency_keys (key, status_code, body, resource_id, created_at)
		VALUES ($1, 0, ''::bytea, '', $2)
		ON CONFLICT (key) DO UPDATE
		SET status_code = 0,
		    body        = ''::bytea,
		    resource_id = '',
		    created_at  = EXCLUDED.created_at
		WHERE idempotency_keys.created_at < $3
		   OR (idempotency_keys.status_code = 0 AND idempotency_keys.created_at < $4)
		RETURNING key
	`

	finished, claimed := s.cutoffs()
	var claimedKey string
	err := s.pool.QueryRow(ctx, query, key, s.now().UTC(), finished, claimed).Scan(&claimedKey)
	switch {
	case err == nil:
		return nil, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("claim idempotency key %q: %w", key, err)
	}

	existing, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Released or expired between the two statements; report it as still held.
		return &ports.StoredResponse{}, nil
	}
	return existing, nil
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	const query = `
		SELECT status_code, body, resource_id
		FROM idempotency_keys
		WHERE key = $1
		  AND created_at >= CASE WHEN status_code = 0 THEN $3::timestamptz ELSE $2::timestamptz END
	`

	var (
		resp ports.StoredResponse
		body []byte
	)
	finished, claimed := s.cutoffs()
	err := s.pool.QueryRow(ctx, query, key, finished, claimed).Scan(&resp.StatusCode, &body, &resp.OrderID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load idempotent response %q: %w", key, err)
	}
	resp.Body = body

	return &resp, nil
}

// Save fills a claim or records a fresh key; a finished live row is left untouched.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	const query = `
		INSERT INTO idempotency_keys (key, status_code, body, resource_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code,
		    body        = EXCLUDED.body,
		    resource_id = EXCLUDED.resource_id,
		    created_at  = EXCLUDED.created_at
		WHERE idempotency_keys.status_code = 0 OR idempotency_keys.created_at < $6
	`

	finished, _ := s.cutoffs()
	if _, err := s.pool.Exec(ctx, query,
		key, response.StatusCode, response.Body, response.OrderID, s.now().UTC(), finished,
	); err != nil {
		return fmt.Errorf("record idempotent response %q: %w", key, err)
	}

	return nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	const query = `DELETE FROM idempotency_keys WHERE key = $1 AND status_code = 0`

	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("release idempotency key %q: %w", key, err)
	}
	return nil
}
