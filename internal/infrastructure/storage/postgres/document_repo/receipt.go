// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/documents/receipt"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/catalog_repo"
)

const receiptsTable = "receipts"

var _ receipt.Repository = (*ReceiptRepo)(nil)

// ReceiptRepo implements receipt.Repository. Lots are stored in the items
// table and written through the item repository.
type ReceiptRepo struct {
	*catalog_repo.BaseCatalogRepo[*inventory.Receipt]
}

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txManager *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		BaseCatalogRepo: catalog_repo.NewBaseCatalogRepo(
			txManager,
			receiptsTable,
			"receipt",
			postgres.ExtractDBColumns[inventory.Receipt](),
			func() *inventory.Receipt { return &inventory.Receipt{} },
		),
	}
}

// SetStatus implements receipt.Repository.
func (r *ReceiptRepo) SetStatus(ctx context.Context, docID id.ID, status inventory.ReceiptStatus) error {
	return r.Update(ctx, docID, map[string]any{"status": status})
}

// ListItems implements receipt.Repository.
func (r *ReceiptRepo) ListItems(ctx context.Context, docID id.ID) ([]inventory.Item, error) {
	return catalog_repo.ListItems(ctx, r.Querier(ctx), squirrel.Eq{"receipt_id": docID})
}
