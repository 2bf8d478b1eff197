package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain"
	"stockroom/internal/domain/inventory"
)

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) Create(ctx context.Context, rec *inventory.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("inventory.create"); err != nil {
		return err
	}
	if _, ok := r.s.st.inventories[rec.ID]; ok {
		return apperror.NewConflict("inventory already exists").WithDetail("id", rec.ID.String())
	}
	r.s.st.inventories[rec.ID] = *rec
	return nil
}

func (r inventoryRepo) GetByID(ctx context.Context, recID id.ID) (*inventory.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.st.inventories[recID]
	if !ok {
		return nil, apperror.NewNotFound("inventory", recID.String())
	}
	return &rec, nil
}

func (r inventoryRepo) GetForUpdate(ctx context.Context, recID id.ID) (*inventory.Record, error) {
	return r.GetByID(ctx, recID)
}

func (r inventoryRepo) update(recID id.ID, fn func(rec *inventory.Record)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.st.inventories[recID]
	if !ok {
		return apperror.NewNotFound("inventory", recID.String())
	}
	fn(&rec)
	rec.UpdatedAt = time.Now().UTC()
	r.s.st.inventories[recID] = rec
	return nil
}

func (r inventoryRepo) SetStatus(ctx context.Context, recID id.ID, status inventory.Status) error {
	return r.update(recID, func(rec *inventory.Record) { rec.Status = status })
}

func (r inventoryRepo) SetBaseline(ctx context.Context, recID, itemID id.ID) error {
	return r.update(recID, func(rec *inventory.Record) { rec.ItemID = id.Ptr(itemID) })
}

func (r inventoryRepo) AdjustQuantity(ctx context.Context, recID id.ID, delta int64) error {
	r.s.mu.RLock()
	err := r.s.fault("inventory.adjust")
	r.s.mu.RUnlock()
	if err != nil {
		return err
	}
	return r.update(recID, func(rec *inventory.Record) { rec.Quantity += delta })
}

func (r inventoryRepo) List(ctx context.Context, filter inventory.ListFilter) (domain.ListResult[*inventory.Record], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var all []*inventory.Record
	for _, rec := range r.s.st.inventories {
		if search != "" && !strings.Contains(strings.ToLower(rec.Name), search) {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		if filter.SizeType != nil && rec.SizeType != *filter.SizeType {
			continue
		}
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, rec.ID) {
			continue
		}
		all = append(all, &rec)
	}
	slices.SortFunc(all, func(a, b *inventory.Record) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID.String(), b.ID.String()))
	})

	items := all
	if filter.Offset > 0 {
		items = items[min(filter.Offset, len(items)):]
	}
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return domain.ListResult[*inventory.Record]{
		Items:      items,
		TotalCount: int64(len(all)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

type itemRepo struct{ s *Store }

func (r itemRepo) CreateItems(ctx context.Context, items []inventory.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("items.create"); err != nil {
		return err
	}
	r.s.st.items = append(r.s.st.items, items...)
	return nil
}

func (r itemRepo) ListByInventory(ctx context.Context, inventoryID id.ID) ([]inventory.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.itemsOf(inventoryID), nil
}

func (r itemRepo) FindByReceiptRef(ctx context.Context, inventoryID id.ID, ref string) (*inventory.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.lotByRef(inventoryID, ref), nil
}

type ledgerRepo struct{ s *Store }

func (r ledgerRepo) Append(ctx context.Context, txns []entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("ledger.append"); err != nil {
		return err
	}
	r.s.st.ledger = append(r.s.st.ledger, txns...)
	return nil
}

func (r ledgerRepo) ListByInventory(ctx context.Context, inventoryID id.ID) ([]entity.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return filterSlice(r.s.st.ledger, func(t entity.Transaction) bool { return t.InventoryID == inventoryID }), nil
}

func (r ledgerRepo) ListByItem(ctx context.Context, itemID id.ID) ([]entity.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return filterSlice(r.s.st.ledger, func(t entity.Transaction) bool { return t.ItemID == itemID }), nil
}

// --- shared lookups (callers hold s.mu) ---

func (s *Store) itemsOf(inventoryID id.ID) []inventory.Item {
	return filterSlice(s.st.items, func(it inventory.Item) bool { return it.InventoryID == inventoryID })
}

func (s *Store) lotByRef(inventoryID id.ID, ref string) *inventory.Item {
	for _, it := range s.st.items {
		if it.InventoryID != inventoryID || it.ReceiptID == nil || it.IssuanceDetailID != nil {
			continue
		}
		if rcpt, ok := s.st.receipts[*it.ReceiptID]; ok && rcpt.Directive == ref {
			return &it
		}
	}
	return nil
}

func filterSlice[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
