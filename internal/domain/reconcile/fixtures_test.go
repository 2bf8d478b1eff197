package reconcile

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain"
	"stockroom/internal/domain/inventory"
)

// fakeSource serves snapshots from memory and counts the fan-out reads.
type fakeSource struct {
	mu        sync.Mutex
	snapshots map[id.ID]*Snapshot
	order     []id.ID

	refCalls  atomic.Int32
	itemCalls atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	delay     time.Duration
	err       error
}

func newFakeSource(snaps ...*Snapshot) *fakeSource {
	s := &fakeSource{snapshots: make(map[id.ID]*Snapshot)}
	for _, snap := range snaps {
		s.add(snap)
	}
	return s
}

func (s *fakeSource) add(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Inventory.ID] = snap
	s.order = append(s.order, snap.Inventory.ID)
}

func (s *fakeSource) enter() func() {
	n := s.inFlight.Add(1)
	for {
		cur := s.maxFlight.Load()
		if n <= cur || s.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return func() { s.inFlight.Add(-1) }
}

func (s *fakeSource) LoadSnapshot(ctx context.Context, inventoryID id.ID) (*Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[inventoryID]
	if !ok {
		return nil, apperror.NewNotFound("inventory", inventoryID.String())
	}
	return snap, nil
}

func (s *fakeSource) ListInventories(ctx context.Context, filter inventory.ListFilter) (domain.ListResult[*inventory.Record], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*inventory.Record
	for _, invID := range s.order {
		rec := s.snapshots[invID].Inventory
		if filter.Search != "" && !strings.Contains(strings.ToLower(rec.Name), strings.ToLower(filter.Search)) {
			continue
		}
		all = append(all, rec)
	}

	items := all
	if filter.Limit > 0 {
		items = domain.Slice(all, domain.Page{Number: filter.Offset/filter.Limit + 1, Size: filter.Limit})
	}
	return domain.ListResult[*inventory.Record]{
		Items:      items,
		TotalCount: int64(len(all)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (s *fakeSource) ItemTransactions(ctx context.Context, itemID id.ID) ([]entity.Transaction, error) {
	defer s.enter()()
	s.itemCalls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Transaction
	for _, snap := range s.snapshots {
		for _, t := range snap.Transactions {
			if t.ItemID == itemID {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (s *fakeSource) ItemByReceiptRef(ctx context.Context, inventoryID id.ID, receiptRef string) (*inventory.Item, error) {
	defer s.enter()()
	s.refCalls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshots[inventoryID]
	for _, r := range snap.Receipts {
		if r.Directive == receiptRef && len(r.Items) > 0 {
			it := r.Items[0]
			return &it, nil
		}
	}
	return nil, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []LowStock
}

func (n *fakeNotifier) NotifyLowStock(ctx context.Context, event LowStock) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

// --- snapshot builders ---

type builder struct {
	snap *Snapshot
}

func newInventory(name string) *builder {
	return &builder{snap: &Snapshot{
		Inventory: &inventory.Record{
			BaseEntity: entity.NewBaseEntity(),
			Name:       name,
			Unit:       "pair",
			SizeType:   inventory.SizeTypeNone,
			Status:     inventory.StatusActive,
		},
	}}
}

func (b *builder) invID() id.ID { return b.snap.Inventory.ID }

// baseline adds an original stock lot received through an active receipt.
func (b *builder) baseline(qty int64, price, size string) *inventory.Item {
	it := b.receipt("RCV-BASE", inventory.ReceiptActive, qty, price, size)
	b.snap.Baseline = it
	b.snap.Inventory.ItemID = id.Ptr(it.ID)
	return it
}

func (b *builder) receipt(directive string, status inventory.ReceiptStatus, qty int64, price, size string) *inventory.Item {
	rcpt := inventory.Receipt{Document: entity.NewDocument(directive), Status: status}
	it := inventory.NewItem(b.invID(), b.snap.Inventory.Name, qty, types.MustMoney(price), size)
	it.ReceiptID = id.Ptr(rcpt.ID)
	rcpt.Items = []inventory.Item{it}

	b.snap.Receipts = append(b.snap.Receipts, rcpt)
	b.snap.Items = append(b.snap.Items, it)

	txn := entity.NewTransaction(entity.TransactionReceipt, b.invID(), it.ID, qty, it.Price, it.Size)
	txn.ReceiptID = it.ReceiptID
	b.snap.Transactions = append(b.snap.Transactions, txn)

	if status != inventory.ReceiptPending {
		b.snap.Inventory.Quantity += qty
	}
	return &b.snap.Items[len(b.snap.Items)-1]
}

// issue records a detail and its derived lot, with the ISSUANCE entry on from.
func (b *builder) issue(from *inventory.Item, qty int64, status inventory.IssuanceStatus) *inventory.IssuanceDetail {
	d := inventory.IssuanceDetail{
		ID:          id.New(),
		IssuanceID:  id.New(),
		InventoryID: b.invID(),
		ItemID:      from.ID,
		Quantity:    qty,
		Price:       from.Price,
		Size:        from.Size,
		Status:      status,
	}
	b.snap.IssuanceDetails = append(b.snap.IssuanceDetails, d)

	derived := inventory.NewItem(b.invID(), from.Name, qty, from.Price, from.Size)
	derived.IssuanceDetailID = id.Ptr(d.ID)
	derived.RefID = id.Ptr(from.ID)
	b.snap.Items = append(b.snap.Items, derived)

	txn := entity.NewTransaction(entity.TransactionIssuance, b.invID(), from.ID, qty, from.Price, from.Size)
	txn.IssuanceID = id.Ptr(d.IssuanceID)
	txn.IssuanceDetailID = id.Ptr(d.ID)
	b.snap.Transactions = append(b.snap.Transactions, txn)

	if status == inventory.IssuanceWithdrawn {
		b.snap.Inventory.Quantity -= qty
	}
	return &b.snap.IssuanceDetails[len(b.snap.IssuanceDetails)-1]
}

func (b *builder) returnedTxn(lot *inventory.Item, qty int64) {
	txn := entity.NewTransaction(entity.TransactionReturned, b.invID(), lot.ID, qty, lot.Price, lot.Size)
	b.snap.Transactions = append(b.snap.Transactions, txn)
	b.snap.Inventory.Quantity += qty
}

func (b *builder) returnedItem(ref, size string) {
	b.snap.ReturnedItems = append(b.snap.ReturnedItems, inventory.ReturnedItem{
		ID:          id.New(),
		InventoryID: b.invID(),
		ItemName:    b.snap.Inventory.Name,
		Size:        size,
		ReceiptRef:  ref,
		Status:      inventory.ReturnedReceived,
	})
	b.snap.Inventory.Quantity++
}

func money(s string) types.Money { return types.MustMoney(s) }

// rawBaseline adds an original lot that predates receipts and the ledger.
func (b *builder) rawBaseline(qty int64, price, size string) *inventory.Item {
	it := inventory.NewItem(b.invID(), b.snap.Inventory.Name, qty, types.MustMoney(price), size)
	b.snap.Items = append(b.snap.Items, it)
	b.snap.Baseline = &b.snap.Items[len(b.snap.Items)-1]
	b.snap.Inventory.ItemID = id.Ptr(it.ID)
	b.snap.Inventory.Quantity += qty
	return b.snap.Baseline
}
