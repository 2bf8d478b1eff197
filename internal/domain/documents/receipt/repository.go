// Package receipt provides the receipt document: stock coming in.
package receipt

import (
	"context"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
)

// Repository defines operations for receipt documents.
type Repository interface {
	Create(ctx context.Context, doc *inventory.Receipt) error
	GetByID(ctx context.Context, docID id.ID) (*inventory.Receipt, error)

	// Locking
	GetForUpdate(ctx context.Context, docID id.ID) (*inventory.Receipt, error)

	SetStatus(ctx context.Context, docID id.ID, status inventory.ReceiptStatus) error

	// ListItems returns the lots received under the document.
	ListItems(ctx context.Context, docID id.ID) ([]inventory.Item, error)
}
