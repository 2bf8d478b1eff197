// Package idempotency stores the outcome of mutating requests keyed by a
// client-supplied idempotency key, so retried requests replay instead of
// applying twice.
package idempotency

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"stockroom/internal/core/apperror"
)

// Status represents the state of an idempotent operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// StaleAfter is how long a pending key may stay unfinished before another
// request may reclaim it.
const StaleAfter = time.Minute

// Replay is the cached HTTP response of a finished operation.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store manages idempotency keys.
type Store interface {
	// AcquireKey returns (nil, nil) when the key is acquired, a Replay when the
	// operation already finished, or an error when the key is in use or was
	// issued for a different request.
	AcquireKey(ctx context.Context, key, operation, requestHash string) (*Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// NormalizeReplay fills defaults left empty by records without status or content type.
func NormalizeReplay(r *Replay) *Replay {
	if r.StatusCode == 0 {
		r.StatusCode = http.StatusOK
	}
	if r.ContentType == "" {
		r.ContentType = "application/json"
	}
	return r
}

// Marshal encodes a response body for storage.
func Marshal(response any) ([]byte, error) {
	if response == nil {
		return nil, nil
	}
	return json.Marshal(response)
}

type record struct {
	operation   string
	requestHash string
	status      Status
	replay      Replay
	updatedAt   time.Time
	expiresAt   time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	keys map[string]*record
	now  func() time.Time
}

// NewMemoryStore creates a MemoryStore whose keys expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, keys: make(map[string]*record), now: time.Now}
}

// AcquireKey implements Store.
func (s *MemoryStore) AcquireKey(ctx context.Context, key, operation, requestHash string) (*Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.keys[key]
	if !ok || now.After(rec.expiresAt) {
		s.keys[key] = &record{
			operation:   operation,
			requestHash: requestHash,
			status:      StatusPending,
			updatedAt:   now,
			expiresAt:   now.Add(s.ttl),
		}
		return nil, nil
	}

	if rec.operation != operation || rec.requestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", rec.operation).
			WithDetail("request_operation", operation)
	}

	switch rec.status {
	case StatusSuccess, StatusFailed:
		replay := rec.replay
		return NormalizeReplay(&replay), nil
	}
	if now.Sub(rec.updatedAt) > StaleAfter {
		rec.updatedAt = now
		return nil, nil
	}
	return nil, apperror.NewIdempotencyConflict(key)
}

// CompleteKey implements Store.
func (s *MemoryStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, StatusSuccess, statusCode, contentType, response)
}

// FailKey implements Store.
func (s *MemoryStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, StatusFailed, statusCode, contentType, response)
}

func (s *MemoryStore) finish(key string, status Status, statusCode int, contentType string, response any) error {
	body, err := Marshal(response)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.keys[key]
	if !ok {
		return nil
	}
	rec.status = status
	rec.replay = Replay{StatusCode: statusCode, ContentType: contentType, Body: body}
	rec.updatedAt = s.now()
	return nil
}
