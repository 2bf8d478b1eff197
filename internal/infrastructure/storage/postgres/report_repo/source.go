// Package report_repo provides the PostgreSQL read model behind reconciliation.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/catalog_repo"
	"stockroom/internal/infrastructure/storage/postgres/document_repo"
	"stockroom/internal/infrastructure/storage/postgres/register_repo"
)

var _ reconcile.Source = (*Source)(nil)

// Source implements reconcile.Source.
type Source struct {
	txManager   *postgres.TxManager
	inventories *catalog_repo.InventoryRepo
	items       *catalog_repo.ItemRepo
}

// NewSource creates a new reconciliation source.
func NewSource(txManager *postgres.TxManager) *Source {
	return &Source{
		txManager:   txManager,
		inventories: catalog_repo.NewInventoryRepo(txManager),
		items:       catalog_repo.NewItemRepo(txManager),
	}
}

// snapshotTxOptions reads every table of a snapshot from one MVCC view.
func snapshotTxOptions() postgres.TxOptions {
	opts := postgres.DefaultTxOptions()
	opts.IsolationLevel = pgx.RepeatableRead
	opts.AccessMode = pgx.ReadOnly
	return opts
}

// LoadSnapshot implements reconcile.Source. Inside a write transaction the
// snapshot sees that transaction's uncommitted rows.
func (s *Source) LoadSnapshot(ctx context.Context, inventoryID id.ID) (*reconcile.Snapshot, error) {
	var snap *reconcile.Snapshot
	err := s.txManager.RunInTransactionWithOptions(ctx, snapshotTxOptions(), func(ctx context.Context) error {
		var err error
		snap, err = s.load(ctx, inventoryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Source) load(ctx context.Context, inventoryID id.ID) (*reconcile.Snapshot, error) {
	rec, err := s.inventories.GetByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	q := s.txManager.GetQuerier(ctx)
	byInventory := squirrel.Eq{"inventory_id": inventoryID}

	snap := &reconcile.Snapshot{Inventory: rec}
	if snap.Items, err = catalog_repo.ListItems(ctx, q, byInventory); err != nil {
		return nil, err
	}
	if snap.IssuanceDetails, err = document_repo.ListDetails(ctx, q, byInventory); err != nil {
		return nil, err
	}
	if snap.ReturnedItems, err = document_repo.ListReturned(ctx, q, byInventory); err != nil {
		return nil, err
	}
	if snap.Transactions, err = register_repo.List(ctx, q, byInventory); err != nil {
		return nil, err
	}
	if snap.DirectIssuances, err = s.directIssuances(ctx, q, inventoryID); err != nil {
		return nil, err
	}
	if snap.Receipts, err = s.receiptsOf(ctx, q, snap.Items); err != nil {
		return nil, err
	}

	if rec.ItemID != nil {
		for i := range snap.Items {
			if snap.Items[i].ID == *rec.ItemID {
				baseline := snap.Items[i]
				snap.Baseline = &baseline
				break
			}
		}
	}
	return snap, nil
}

// receiptsOf loads the receipts referenced by items, each narrowed to its
// lots among items. Receipts keep the order their first lot appears in.
func (s *Source) receiptsOf(ctx context.Context, q postgres.Querier, items []inventory.Item) ([]inventory.Receipt, error) {
	byReceipt := make(map[id.ID][]inventory.Item)
	var order []id.ID
	for _, it := range items {
		if it.ReceiptID == nil {
			continue
		}
		if _, seen := byReceipt[*it.ReceiptID]; !seen {
			order = append(order, *it.ReceiptID)
		}
		byReceipt[*it.ReceiptID] = append(byReceipt[*it.ReceiptID], it)
	}
	if len(order) == 0 {
		return nil, nil
	}

	stmt := postgres.Builder().
		Select(postgres.ExtractDBColumns[inventory.Receipt]()...).
		From("receipts").
		Where(squirrel.Eq{"id": order})

	var rows []inventory.Receipt
	if err := postgres.Select(ctx, q, &rows, stmt); err != nil {
		return nil, fmt.Errorf("load receipts: %w", err)
	}
	found := make(map[id.ID]inventory.Receipt, len(rows))
	for _, r := range rows {
		found[r.ID] = r
	}

	receipts := make([]inventory.Receipt, 0, len(order))
	for _, rid := range order {
		doc, ok := found[rid]
		if !ok {
			continue
		}
		doc.Items = byReceipt[rid]
		receipts = append(receipts, doc)
	}
	return receipts, nil
}

func (s *Source) directIssuances(ctx context.Context, q postgres.Querier, inventoryID id.ID) ([]inventory.Issuance, error) {
	stmt := postgres.Builder().
		Select(postgres.ExtractDBColumns[inventory.Issuance]()...).
		From("issuances").
		Where(squirrel.Eq{"inventory_id": inventoryID}).
		OrderBy("created_at", "id")

	issuances := make([]inventory.Issuance, 0)
	if err := postgres.Select(ctx, q, &issuances, stmt); err != nil {
		return nil, fmt.Errorf("load direct issuances: %w", err)
	}
	return issuances, nil
}

// ListInventories implements reconcile.Source.
func (s *Source) ListInventories(ctx context.Context, filter inventory.ListFilter) (domain.ListResult[*inventory.Record], error) {
	return s.inventories.List(ctx, filter)
}

// ItemTransactions implements reconcile.Source.
func (s *Source) ItemTransactions(ctx context.Context, itemID id.ID) ([]entity.Transaction, error) {
	return register_repo.List(ctx, s.txManager.GetQuerier(ctx), squirrel.Eq{"item_id": itemID})
}

// ItemByReceiptRef implements reconcile.Source.
func (s *Source) ItemByReceiptRef(ctx context.Context, inventoryID id.ID, receiptRef string) (*inventory.Item, error) {
	return s.items.FindByReceiptRef(ctx, inventoryID, receiptRef)
}
