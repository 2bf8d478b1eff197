package memory

import (
	"context"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
)

type source struct{ s *Store }

func (src source) LoadSnapshot(ctx context.Context, inventoryID id.ID) (*reconcile.Snapshot, error) {
	s := src.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.st.inventories[inventoryID]
	if !ok {
		return nil, apperror.NewNotFound("inventory", inventoryID.String())
	}

	snap := &reconcile.Snapshot{
		Inventory:     &rec,
		Items:         s.itemsOf(inventoryID),
		ReturnedItems: filterSlice(s.st.returned, func(ri inventory.ReturnedItem) bool { return ri.InventoryID == inventoryID }),
		Transactions:  filterSlice(s.st.ledger, func(t entity.Transaction) bool { return t.InventoryID == inventoryID }),
		IssuanceDetails: filterSlice(s.st.details, func(d inventory.IssuanceDetail) bool {
			return d.InventoryID == inventoryID
		}),
	}

	byReceipt := make(map[id.ID][]inventory.Item)
	var receiptOrder []id.ID
	for _, it := range snap.Items {
		if rec.ItemID != nil && it.ID == *rec.ItemID {
			baseline := it
			snap.Baseline = &baseline
		}
		if it.ReceiptID == nil {
			continue
		}
		if _, seen := byReceipt[*it.ReceiptID]; !seen {
			receiptOrder = append(receiptOrder, *it.ReceiptID)
		}
		byReceipt[*it.ReceiptID] = append(byReceipt[*it.ReceiptID], it)
	}
	for _, rid := range receiptOrder {
		doc, ok := s.st.receipts[rid]
		if !ok {
			continue
		}
		doc.Items = byReceipt[rid]
		snap.Receipts = append(snap.Receipts, doc)
	}

	for _, iss := range s.st.issuances {
		if iss.InventoryID != nil && *iss.InventoryID == inventoryID {
			snap.DirectIssuances = append(snap.DirectIssuances, iss)
		}
	}
	return snap, nil
}

func (src source) ListInventories(ctx context.Context, filter inventory.ListFilter) (domain.ListResult[*inventory.Record], error) {
	return inventoryRepo{src.s}.List(ctx, filter)
}

func (src source) ItemTransactions(ctx context.Context, itemID id.ID) ([]entity.Transaction, error) {
	return ledgerRepo{src.s}.ListByItem(ctx, itemID)
}

func (src source) ItemByReceiptRef(ctx context.Context, inventoryID id.ID, receiptRef string) (*inventory.Item, error) {
	src.s.mu.RLock()
	defer src.s.mu.RUnlock()
	return src.s.lotByRef(inventoryID, receiptRef), nil
}

// Seed inserts records directly, bypassing the write paths. Used to load
// legacy-shaped data in tests and demos.
func (s *Store) Seed(snap *reconcile.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.inventories[snap.Inventory.ID] = *snap.Inventory
	s.st.items = append(s.st.items, snap.Items...)
	for _, r := range snap.Receipts {
		r.Items = nil
		s.st.receipts[r.ID] = r
	}
	for _, iss := range snap.DirectIssuances {
		s.st.issuances[iss.ID] = iss
	}
	s.st.details = append(s.st.details, snap.IssuanceDetails...)
	s.st.returned = append(s.st.returned, snap.ReturnedItems...)
	s.st.ledger = append(s.st.ledger, snap.Transactions...)
}
