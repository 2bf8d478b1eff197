// Package issuance provides the issuance document: stock going out to end users.
package issuance

import (
	"context"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
)

// Repository defines operations for issuance documents and their details.
type Repository interface {
	Create(ctx context.Context, doc *inventory.Issuance) error
	GetByID(ctx context.Context, docID id.ID) (*inventory.Issuance, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*inventory.Issuance, error)
	SetStatus(ctx context.Context, docID id.ID, status inventory.IssuanceStatus) error

	// Detail operations
	CreateDetails(ctx context.Context, details []inventory.IssuanceDetail) error
	ListDetails(ctx context.Context, docID id.ID) ([]inventory.IssuanceDetail, error)
	GetDetailForUpdate(ctx context.Context, detailID id.ID) (*inventory.IssuanceDetail, error)
	SetDetailStatus(ctx context.Context, detailID id.ID, status inventory.IssuanceStatus) error
	SetDetailsStatus(ctx context.Context, docID id.ID, status inventory.IssuanceStatus) error
}

// Reconciler is the part of the reconciliation engine the write path uses.
type Reconciler interface {
	Reconcile(ctx context.Context, inventoryID id.ID, opts reconcile.Options) (*reconcile.Result, error)
	CheckLowStock(ctx context.Context, inventoryID id.ID) (bool, error)
}
