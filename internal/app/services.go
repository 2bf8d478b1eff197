// Package app wires the domain services on top of a storage backend.
package app

import (
	"context"

	"stockroom/internal/core/tx"
	"stockroom/internal/domain/audit"
	"stockroom/internal/domain/documents/issuance"
	"stockroom/internal/domain/documents/receipt"
	"stockroom/internal/domain/documents/returns"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
)

// Storage is a backend providing every repository behind one transaction manager.
type Storage interface {
	tx.Manager

	Ping(ctx context.Context) error

	Inventories() inventory.Repository
	Items() inventory.ItemRepository
	Ledger() inventory.LedgerRepository
	Receipts() receipt.Repository
	Issuances() issuance.Repository
	Returns() returns.Repository
	Source() reconcile.Source
	Audit() audit.Log
}

// Services is the set of domain services exposed to transports.
type Services struct {
	Storage     Storage
	Engine      *reconcile.Engine
	Inventories *inventory.Service
	Receipts    *receipt.Service
	Issuances   *issuance.Service
	Returns     *returns.Service
}

// New builds the services. notifier may be nil to disable low-stock notifications.
func New(storage Storage, notifier reconcile.Notifier, cfg reconcile.Config) *Services {
	engine := reconcile.NewEngine(storage.Source(), notifier, cfg)

	return &Services{
		Storage:     storage,
		Engine:      engine,
		Inventories: inventory.NewService(storage.Inventories(), storage.Audit(), storage),
		Receipts: receipt.NewService(
			storage.Receipts(),
			storage.Inventories(),
			storage.Items(),
			storage.Ledger(),
			storage.Audit(),
			storage,
		),
		Issuances: issuance.NewService(
			storage.Issuances(),
			storage.Inventories(),
			storage.Items(),
			storage.Ledger(),
			engine,
			storage.Audit(),
			storage,
		),
		Returns: returns.NewService(
			storage.Returns(),
			storage.Inventories(),
			storage.Items(),
			storage.Ledger(),
			engine,
			storage.Audit(),
			storage,
		),
	}
}
