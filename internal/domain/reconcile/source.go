package reconcile

import (
	"context"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain"
	"stockroom/internal/domain/inventory"
)

// Snapshot is everything stored about one inventory at read time.
type Snapshot struct {
	Inventory *inventory.Record

	// Baseline is the original stock lot referenced by Inventory.ItemID.
	Baseline *inventory.Item

	// Receipts that contain at least one item of this inventory,
	// with Items narrowed to this inventory.
	Receipts []inventory.Receipt

	// Items are all lots of this inventory, source and derived.
	Items []inventory.Item

	// IssuanceDetails of every status, archived included.
	IssuanceDetails []inventory.IssuanceDetail

	// DirectIssuances are legacy issuances that point at the inventory directly.
	DirectIssuances []inventory.Issuance

	ReturnedItems []inventory.ReturnedItem
	Transactions  []entity.Transaction
}

// Source is the data-fetch contract the engine reads through.
type Source interface {
	// LoadSnapshot returns NotFound when the inventory does not exist.
	LoadSnapshot(ctx context.Context, inventoryID id.ID) (*Snapshot, error)

	// ListInventories returns one page of records; Limit <= 0 means all.
	ListInventories(ctx context.Context, filter inventory.ListFilter) (domain.ListResult[*inventory.Record], error)

	// ItemTransactions returns every ledger entry that references itemID.
	ItemTransactions(ctx context.Context, itemID id.ID) ([]entity.Transaction, error)

	// ItemByReceiptRef resolves the source lot a returned unit came from.
	// Returns (nil, nil) when nothing matches.
	ItemByReceiptRef(ctx context.Context, inventoryID id.ID, receiptRef string) (*inventory.Item, error)
}

// LowStock is the payload of a low-stock notification.
type LowStock struct {
	Name              string `json:"name"`
	RemainingQuantity int64  `json:"remainingQuantity"`
	InventoryID       id.ID  `json:"inventoryId"`
}

// Notifier receives low-stock notifications.
type Notifier interface {
	NotifyLowStock(ctx context.Context, event LowStock) error
}
