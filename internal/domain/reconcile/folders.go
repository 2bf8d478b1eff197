package reconcile

import (
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/inventory"
)

// fold is the mutable state threaded through the pipeline for one inventory.
type fold struct {
	snap    *Snapshot
	buckets *Buckets
	sum     Summary

	// hasReturnedTxn decides once which returned stream is authoritative.
	hasReturnedTxn bool
	receiptStatus  map[id.ID]inventory.ReceiptStatus

	// refLots maps receiptRef to the lot it resolves to (prefetched).
	refLots map[string]*inventory.Item
}

func newFold(snap *Snapshot) *fold {
	f := &fold{
		snap:          snap,
		buckets:       NewBuckets(),
		sum:           Summary{GrandTotalAmount: types.Zero()},
		receiptStatus: make(map[id.ID]inventory.ReceiptStatus, len(snap.Receipts)),
		refLots:       make(map[string]*inventory.Item),
	}
	for _, t := range snap.Transactions {
		if t.Type == entity.TransactionReturned {
			f.hasReturnedTxn = true
			break
		}
	}
	for _, r := range snap.Receipts {
		f.receiptStatus[r.ID] = r.Status
	}
	return f
}

func (f *fold) isBaseline(itemID id.ID) bool {
	return f.snap.Baseline != nil && f.snap.Baseline.ID == itemID
}

func (f *fold) inventoryID() id.ID {
	return f.snap.Inventory.ID
}

// receiptPending reports whether the lot belongs to a receipt still pending.
func (f *fold) receiptPending(it *inventory.Item) bool {
	if it.ReceiptID == nil {
		return false
	}
	return f.receiptStatus[*it.ReceiptID] == inventory.ReceiptPending
}

type stage struct {
	name string
	run  func(f *fold)
}

// pipeline is the fixed folding order. Later stages rely on the
// contributions of earlier ones.
var pipeline = []stage{
	{"original_item", foldOriginalItem},
	{"receipt", foldReceipts},
	{"returned_transaction", foldReturnedTransactions},
	{"returned_item_fallback", foldReturnedItems},
	{"issuance_detail", foldIssuanceDetails},
	{"plain_item", foldPlainItems},
	{"direct_withdrawn", foldDirectWithdrawn},
}

func runPipeline(f *fold) {
	for _, s := range pipeline {
		s.run(f)
	}
}

func foldOriginalItem(f *fold) {
	base := f.snap.Baseline
	if base == nil {
		return
	}
	f.buckets.GetOrInit(base.Size).Available += base.Quantity
	f.sum.GrandTotalAmount = f.sum.GrandTotalAmount.Add(types.LineAmount(base.Quantity, base.Price))
}

func foldReceipts(f *fold) {
	for _, r := range f.snap.Receipts {
		if r.Status == inventory.ReceiptPending {
			continue
		}
		for i := range r.Items {
			it := &r.Items[i]
			if it.InventoryID != f.inventoryID() {
				continue
			}
			f.buckets.GetOrInit(it.Size).Available += it.Quantity

			// The baseline lot was valued by the original-item stage.
			if it.ReceiptID != nil && !f.isBaseline(it.ID) {
				f.sum.GrandTotalAmount = f.sum.GrandTotalAmount.Add(types.LineAmount(it.Quantity, it.Price))
			}
		}
	}
}

func foldReturnedTransactions(f *fold) {
	if !f.hasReturnedTxn {
		return
	}
	for _, t := range f.snap.Transactions {
		if t.Type != entity.TransactionReturned {
			continue
		}
		bk := f.buckets.GetOrInit(t.Size)
		bk.Returned += t.Quantity
		bk.Available += t.Quantity
		f.sum.ReturnedQuantity += t.Quantity
		f.sum.GrandTotalAmount = f.sum.GrandTotalAmount.Add(types.LineAmount(t.Quantity, t.Price))
	}
}

// foldReturnedItems covers returns recorded without a ledger entry.
// Each returned row is one unit valued at the price of its receipt lot.
func foldReturnedItems(f *fold) {
	if f.hasReturnedTxn {
		return
	}
	for _, ri := range f.snap.ReturnedItems {
		bk := f.buckets.GetOrInit(ri.Size)
		bk.Returned++
		bk.Available++
		f.sum.ReturnedQuantity++
		if lot := f.refLots[ri.ReceiptRef]; lot != nil {
			f.sum.GrandTotalAmount = f.sum.GrandTotalAmount.Add(lot.Price)
		}
	}
}

func foldIssuanceDetails(f *fold) {
	for _, d := range f.snap.IssuanceDetails {
		switch d.Status {
		case inventory.IssuancePending:
			f.buckets.GetOrInit(d.Size).Pending += d.Quantity
			f.sum.PendingQuantity += d.Quantity
			f.sum.PendingIssuanceQuantity += d.Quantity
		case inventory.IssuanceWithdrawn:
			f.buckets.GetOrInit(d.Size).Withdrawn += d.Quantity
			f.sum.WithdrawnQuantity += d.Quantity
			f.sum.GrandTotalAmount = f.sum.GrandTotalAmount.Sub(types.LineAmount(d.Quantity, d.Price))
		}
	}
}

// foldPlainItems adds every lot not produced by an issuance to the size total.
func foldPlainItems(f *fold) {
	seen := make(map[id.ID]struct{}, len(f.snap.Items)+1)
	add := func(it *inventory.Item) {
		if it.IssuanceDetailID != nil || f.receiptPending(it) {
			return
		}
		if _, dup := seen[it.ID]; dup {
			return
		}
		seen[it.ID] = struct{}{}
		f.buckets.GetOrInit(it.Size).Total += it.Quantity
	}

	if f.snap.Baseline != nil {
		add(f.snap.Baseline)
	}
	for i := range f.snap.Items {
		add(&f.snap.Items[i])
	}
}

func foldDirectWithdrawn(f *fold) {
	for _, iss := range f.snap.DirectIssuances {
		if iss.Status != inventory.IssuanceWithdrawn || iss.InventoryID == nil || *iss.InventoryID != f.inventoryID() {
			continue
		}
		f.buckets.GetOrInit(f.directIssuanceSize()).Withdrawn += iss.Quantity
		f.sum.WithdrawnQuantity += iss.Quantity
	}
}

// directIssuanceSize picks the size of a lot from an active receipt,
// falling back to the baseline lot.
func (f *fold) directIssuanceSize() string {
	for i := range f.snap.Items {
		it := &f.snap.Items[i]
		if it.ReceiptID != nil && !it.IsDerived() && f.receiptStatus[*it.ReceiptID] == inventory.ReceiptActive {
			return it.Size
		}
	}
	if f.snap.Baseline != nil {
		return f.snap.Baseline.Size
	}
	return inventory.NoSize
}
