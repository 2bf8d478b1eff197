// Package catalog_repo provides PostgreSQL implementations for inventory records and lots.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides the common row operations of a table keyed by id.
// Embed this in specific repositories.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseCatalogRepo creates a new base repository. selectCols is usually
// postgres.ExtractDBColumns of the row type.
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	entityName string,
	selectCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Querier returns the transaction in ctx, or the pool.
func (r *BaseCatalogRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts a new row using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	// Only columns the table selects are written.
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := postgres.Builder().
		Insert(r.tableName).
		SetMap(filtered)

	if _, err := postgres.Exec(ctx, r.Querier(ctx), q); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict(r.entityName + " already exists").WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// baseSelect creates a SELECT builder over all columns.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves a row by id.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Limit(1), entityID)
}

// GetForUpdate retrieves a row by id and locks it until the transaction ends.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	if r.txManager.GetTx(ctx) == nil {
		var zero T
		return zero, fmt.Errorf("%s: GetForUpdate requires transaction context", r.tableName)
	}
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Suffix("FOR UPDATE"), entityID)
}

func (r *BaseCatalogRepo[T]) get(ctx context.Context, q squirrel.SelectBuilder, entityID id.ID) (T, error) {
	entity := r.newFn()
	if err := postgres.Get(ctx, r.Querier(ctx), entity, q); err != nil {
		var zero T
		if postgres.IsNotFound(err) {
			return zero, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return zero, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return entity, nil
}

// Update sets columns on one row and bumps updated_at.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entityID id.ID, set map[string]any) error {
	q := postgres.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID})

	affected, err := postgres.Exec(ctx, r.Querier(ctx), q)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if affected == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}
