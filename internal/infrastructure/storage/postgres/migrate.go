package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"stockroom/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL applied by Migrate.
func Schema() string {
	return schemaSQL
}

// Migrate applies the schema in one transaction. Every statement is
// idempotent, so running it against an up-to-date database is a no-op.
func Migrate(ctx context.Context, txManager *TxManager) error {
	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Simple protocol: the schema is a multi-statement script without parameters.
		if _, err := txManager.GetQuerier(ctx).Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "database schema applied")
	return nil
}
