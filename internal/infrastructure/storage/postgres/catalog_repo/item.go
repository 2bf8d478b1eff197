package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
)

const itemsTable = "items"

var itemColumns = postgres.ExtractDBColumns[inventory.Item]()

var _ inventory.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implements inventory.ItemRepository.
type ItemRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
}

// NewItemRepo creates a new lot repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
	}
}

// CreateItems copies lots in bulk. Must run inside a transaction.
func (r *ItemRepo) CreateItems(ctx context.Context, items []inventory.Item) error {
	rows := make([][]any, 0, len(items))
	for i := range items {
		rows = append(rows, postgres.RowValues(&items[i], itemColumns))
	}
	if _, err := r.inserter.CopyFromSlice(ctx, itemsTable, itemColumns, rows); err != nil {
		return fmt.Errorf("create items: %w", err)
	}
	return nil
}

// ListByInventory returns every lot of the inventory in creation order.
func (r *ItemRepo) ListByInventory(ctx context.Context, inventoryID id.ID) ([]inventory.Item, error) {
	return ListItems(ctx, r.txManager.GetQuerier(ctx), squirrel.Eq{"inventory_id": inventoryID})
}

// FindByReceiptRef implements inventory.ItemRepository.
func (r *ItemRepo) FindByReceiptRef(ctx context.Context, inventoryID id.ID, ref string) (*inventory.Item, error) {
	return FindByReceiptRef(ctx, r.txManager.GetQuerier(ctx), inventoryID, ref)
}

// ListItems selects lots matching where, oldest first.
func ListItems(ctx context.Context, q postgres.Querier, where squirrel.Sqlizer) ([]inventory.Item, error) {
	stmt := postgres.Builder().
		Select(itemColumns...).
		From(itemsTable).
		Where(where).
		OrderBy("created_at", "id")

	items := make([]inventory.Item, 0)
	if err := postgres.Select(ctx, q, &items, stmt); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// receiptRefQuery selects the oldest source lot of inventoryID received
// under the receipt with directive ref.
func receiptRefQuery(inventoryID id.ID, ref string) squirrel.SelectBuilder {
	cols := make([]string, len(itemColumns))
	for i, c := range itemColumns {
		cols[i] = "i." + c
	}
	return postgres.Builder().
		Select(cols...).
		From(itemsTable + " i").
		Join("receipts r ON r.id = i.receipt_id").
		Where(squirrel.Eq{"i.inventory_id": inventoryID, "r.directive": ref}).
		Where("i.issuance_detail_id IS NULL").
		OrderBy("i.created_at", "i.id").
		Limit(1)
}

// FindByReceiptRef returns (nil, nil) when no lot matches.
func FindByReceiptRef(ctx context.Context, q postgres.Querier, inventoryID id.ID, ref string) (*inventory.Item, error) {
	var item inventory.Item
	if err := postgres.Get(ctx, q, &item, receiptRefQuery(inventoryID, ref)); err != nil {
		if postgres.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find item by receipt ref: %w", err)
	}
	return &item, nil
}
