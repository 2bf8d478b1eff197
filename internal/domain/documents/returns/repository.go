// Package returns records stock coming back after issuance.
package returns

import (
	"context"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
)

// Repository stores returned units.
type Repository interface {
	CreateReturnedItems(ctx context.Context, items []inventory.ReturnedItem) error
	ListByInventory(ctx context.Context, inventoryID id.ID) ([]inventory.ReturnedItem, error)
}

// Reconciler is the part of the reconciliation engine the return path uses.
type Reconciler interface {
	Reconcile(ctx context.Context, inventoryID id.ID, opts reconcile.Options) (*reconcile.Result, error)
}
