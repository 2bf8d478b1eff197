// Package register_repo provides the PostgreSQL inventory ledger.
// Entries are append-only: nothing here updates or deletes a row.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
)

const ledgerTable = "inventory_transactions"

var ledgerColumns = postgres.ExtractDBColumns[entity.Transaction]()

var _ inventory.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implements inventory.LedgerRepository.
type LedgerRepo struct {
	txManager *postgres.TxManager
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{txManager: txManager}
}

// Append writes entries in bulk.
func (r *LedgerRepo) Append(ctx context.Context, txns []entity.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if r.txManager.GetTx(ctx) != nil {
		rows := make([][]any, 0, len(txns))
		for i := range txns {
			rows = append(rows, postgres.RowValues(&txns[i], ledgerColumns))
		}
		inserter := postgres.NewBatchInserter(r.txManager)
		if _, err := inserter.CopyFromSlice(ctx, ledgerTable, ledgerColumns, rows); err != nil {
			return fmt.Errorf("copy ledger entries: %w", err)
		}
		return nil
	}

	// Fallback: multi-row insert outside a transaction.
	q := postgres.Builder().Insert(ledgerTable).Columns(ledgerColumns...)
	for i := range txns {
		q = q.Values(postgres.RowValues(&txns[i], ledgerColumns)...)
	}
	if _, err := postgres.Exec(ctx, r.txManager.GetQuerier(ctx), q); err != nil {
		return fmt.Errorf("insert ledger entries: %w", err)
	}
	return nil
}

// ListByInventory returns the inventory's entries in the order they were written.
func (r *LedgerRepo) ListByInventory(ctx context.Context, inventoryID id.ID) ([]entity.Transaction, error) {
	return List(ctx, r.txManager.GetQuerier(ctx), squirrel.Eq{"inventory_id": inventoryID})
}

// ListByItem returns every entry that references itemID.
func (r *LedgerRepo) ListByItem(ctx context.Context, itemID id.ID) ([]entity.Transaction, error) {
	return List(ctx, r.txManager.GetQuerier(ctx), squirrel.Eq{"item_id": itemID})
}

// List selects entries matching where, oldest first.
func List(ctx context.Context, q postgres.Querier, where squirrel.Sqlizer) ([]entity.Transaction, error) {
	stmt := listQuery(where)
	txns := make([]entity.Transaction, 0)
	if err := postgres.Select(ctx, q, &txns, stmt); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return txns, nil
}

func listQuery(where squirrel.Sqlizer) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(ledgerColumns...).
		From(ledgerTable).
		Where(where).
		OrderBy("created_at", "id")
}
