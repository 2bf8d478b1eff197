package postgres

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/infrastructure/idempotency"
)

// IdempotencyStore keeps idempotency keys in sys_idempotency.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
}

var _ idempotency.Store = (*IdempotencyStore)(nil)

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl}
}

// AcquireKey implements idempotency.Store.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, operation, requestHash string) (*idempotency.Replay, error) {
	now := time.Now().UTC()
	q := s.txManager.GetQuerier(ctx)

	// Expired keys are replaced as if they never existed.
	var (
		status      idempotency.Status
		storedOp    string
		storedHash  string
		response    []byte
		statusCode  *int
		contentType *string
		updatedAt   time.Time
		inserted    bool
	)
	err := q.QueryRow(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $5, $6)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			operation = CASE WHEN sys_idempotency.expires_at < $5 THEN EXCLUDED.operation ELSE sys_idempotency.operation END,
			request_hash = CASE WHEN sys_idempotency.expires_at < $5 THEN EXCLUDED.request_hash ELSE sys_idempotency.request_hash END,
			status = CASE WHEN sys_idempotency.expires_at < $5 THEN EXCLUDED.status ELSE sys_idempotency.status END,
			response = CASE WHEN sys_idempotency.expires_at < $5 THEN NULL ELSE sys_idempotency.response END,
			expires_at = CASE WHEN sys_idempotency.expires_at < $5 THEN EXCLUDED.expires_at ELSE sys_idempotency.expires_at END,
			created_at = CASE WHEN sys_idempotency.expires_at < $5 THEN EXCLUDED.created_at ELSE sys_idempotency.created_at END
		RETURNING status, operation, request_hash, response, response_status, response_content_type,
		          updated_at, created_at = $5
	`, key, operation, idempotency.StatusPending, requestHash, now, now.Add(s.ttl)).Scan(
		&status, &storedOp, &storedHash, &response, &statusCode, &contentType, &updatedAt, &inserted,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if inserted {
		return nil, nil
	}

	if storedOp != operation || storedHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", storedOp).
			WithDetail("request_operation", operation)
	}

	switch status {
	case idempotency.StatusSuccess, idempotency.StatusFailed:
		replay := &idempotency.Replay{Body: response}
		if statusCode != nil {
			replay.StatusCode = *statusCode
		}
		if contentType != nil {
			replay.ContentType = *contentType
		}
		return idempotency.NormalizeReplay(replay), nil
	}

	if time.Since(updatedAt) <= idempotency.StaleAfter {
		return nil, apperror.NewIdempotencyConflict(key)
	}

	// Reclaim a key whose request likely crashed.
	tag, err := q.Exec(ctx, `
		UPDATE sys_idempotency
		SET updated_at = $1
		WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
	`, now, key, idempotency.StatusPending, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return nil, nil
}

// CompleteKey implements idempotency.Store.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, idempotency.StatusSuccess, statusCode, contentType, response)
}

// FailKey implements idempotency.Store.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, idempotency.StatusFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status idempotency.Status, statusCode int, contentType string, response any) error {
	body, err := idempotency.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5
		WHERE idempotency_key = $6
	`, status, body, statusCode, contentType, time.Now().UTC(), key)
	if err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return result.RowsAffected(), nil
}
