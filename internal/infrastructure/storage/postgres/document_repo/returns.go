package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/documents/returns"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
)

const returnedItemsTable = "returned_items"

var returnedColumns = postgres.ExtractDBColumns[inventory.ReturnedItem]()

var _ returns.Repository = (*ReturnsRepo)(nil)

// ReturnsRepo implements returns.Repository. One row per returned unit.
type ReturnsRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
}

// NewReturnsRepo creates a new returned-item repository.
func NewReturnsRepo(txManager *postgres.TxManager) *ReturnsRepo {
	return &ReturnsRepo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
	}
}

// CreateReturnedItems copies the units in bulk. Must run inside a transaction.
func (r *ReturnsRepo) CreateReturnedItems(ctx context.Context, items []inventory.ReturnedItem) error {
	rows := make([][]any, 0, len(items))
	for i := range items {
		rows = append(rows, postgres.RowValues(&items[i], returnedColumns))
	}
	if _, err := r.inserter.CopyFromSlice(ctx, returnedItemsTable, returnedColumns, rows); err != nil {
		return fmt.Errorf("create returned items: %w", err)
	}
	return nil
}

// ListByInventory implements returns.Repository.
func (r *ReturnsRepo) ListByInventory(ctx context.Context, inventoryID id.ID) ([]inventory.ReturnedItem, error) {
	return ListReturned(ctx, r.txManager.GetQuerier(ctx), squirrel.Eq{"inventory_id": inventoryID})
}

// ListReturned selects returned units matching where, oldest first.
func ListReturned(ctx context.Context, q postgres.Querier, where squirrel.Sqlizer) ([]inventory.ReturnedItem, error) {
	stmt := postgres.Builder().
		Select(returnedColumns...).
		From(returnedItemsTable).
		Where(where).
		OrderBy("created_at", "id")

	items := make([]inventory.ReturnedItem, 0)
	if err := postgres.Select(ctx, q, &items, stmt); err != nil {
		return nil, fmt.Errorf("list returned items: %w", err)
	}
	return items, nil
}
