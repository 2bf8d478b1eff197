package inventory

import (
	"context"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain"
)

// Repository defines operations for inventory records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, recID id.ID) (*Record, error)

	// GetForUpdate returns the record with a row lock. Must run inside a transaction;
	// it serializes check-then-act sequences against one inventory.
	GetForUpdate(ctx context.Context, recID id.ID) (*Record, error)

	SetStatus(ctx context.Context, recID id.ID, status Status) error
	SetBaseline(ctx context.Context, recID, itemID id.ID) error

	// AdjustQuantity adds delta to the cached quantity.
	AdjustQuantity(ctx context.Context, recID id.ID, delta int64) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Record], error)
}

// ItemRepository defines operations for physical lots.
type ItemRepository interface {
	CreateItems(ctx context.Context, items []Item) error
	ListByInventory(ctx context.Context, inventoryID id.ID) ([]Item, error)

	// FindByReceiptRef returns the first source lot of inventoryID received
	// under the receipt whose directive is ref.
	FindByReceiptRef(ctx context.Context, inventoryID id.ID, ref string) (*Item, error)
}

// LedgerRepository appends and reads inventory transactions.
type LedgerRepository interface {
	Append(ctx context.Context, txns []entity.Transaction) error
	ListByInventory(ctx context.Context, inventoryID id.ID) ([]entity.Transaction, error)
	ListByItem(ctx context.Context, itemID id.ID) ([]entity.Transaction, error)
}

// ListFilter for filtering inventory records.
type ListFilter struct {
	domain.ListFilter

	Status   *Status
	SizeType *SizeType
}
