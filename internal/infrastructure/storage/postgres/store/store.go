// Package store assembles the PostgreSQL repositories into one storage backend.
package store

import (
	"context"
	"fmt"

	"stockroom/internal/app"
	"stockroom/internal/domain/audit"
	"stockroom/internal/domain/documents/issuance"
	"stockroom/internal/domain/documents/receipt"
	"stockroom/internal/domain/documents/returns"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/catalog_repo"
	"stockroom/internal/infrastructure/storage/postgres/document_repo"
	"stockroom/internal/infrastructure/storage/postgres/register_repo"
	"stockroom/internal/infrastructure/storage/postgres/report_repo"
)

var _ app.Storage = (*Store)(nil)

// Store implements app.Storage on a connection pool.
type Store struct {
	*postgres.TxManager

	inventories *catalog_repo.InventoryRepo
	items       *catalog_repo.ItemRepo
	ledger      *register_repo.LedgerRepo
	receipts    *document_repo.ReceiptRepo
	issuances   *document_repo.IssuanceRepo
	returns     *document_repo.ReturnsRepo
	source      *report_repo.Source
	audit       *postgres.AuditService
	outbox      *postgres.OutboxPublisher
}

// New creates the repositories on top of pool.
func New(pool *postgres.Pool) (*Store, error) {
	txm := postgres.NewTxManager(pool)

	auditSvc, err := postgres.NewAuditService(txm)
	if err != nil {
		return nil, fmt.Errorf("create audit service: %w", err)
	}

	return &Store{
		TxManager:   txm,
		inventories: catalog_repo.NewInventoryRepo(txm),
		items:       catalog_repo.NewItemRepo(txm),
		ledger:      register_repo.NewLedgerRepo(txm),
		receipts:    document_repo.NewReceiptRepo(txm),
		issuances:   document_repo.NewIssuanceRepo(txm),
		returns:     document_repo.NewReturnsRepo(txm),
		source:      report_repo.NewSource(txm),
		audit:       auditSvc,
		outbox:      postgres.NewOutboxPublisher(txm),
	}, nil
}

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return postgres.Migrate(ctx, s.TxManager)
}

func (s *Store) Inventories() inventory.Repository { return s.inventories }
func (s *Store) Items() inventory.ItemRepository { return s.items }
func (s *Store) Ledger() inventory.LedgerRepository { return s.ledger }
func (s *Store) Receipts() receipt.Repository { return s.receipts }
func (s *Store) Issuances() issuance.Repository { return s.issuances }
func (s *Store) Returns() returns.Repository { return s.returns }
func (s *Store) Source() reconcile.Source { return s.source }
func (s *Store) Audit() audit.Log { return s.audit }

// Notifier writes low-stock notifications to the outbox in the caller's transaction.
func (s *Store) Notifier() reconcile.Notifier { return s.outbox }
