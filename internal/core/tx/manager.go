// Package tx provides transaction management abstractions.
// Domain services depend on this interface; the Postgres implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

type activeKey struct{}

// WithActive marks ctx as running inside a transaction. Implementations of
// Manager call it when they start one.
func WithActive(ctx context.Context) context.Context {
	return context.WithValue(ctx, activeKey{}, true)
}

// InTransaction reports whether ctx carries an open transaction. A single
// transaction is bound to one connection, so callers must not issue
// concurrent queries through it.
func InTransaction(ctx context.Context) bool {
	v, _ := ctx.Value(activeKey{}).(bool)
	return v
}
