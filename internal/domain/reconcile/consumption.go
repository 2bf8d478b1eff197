package reconcile

import (
	"context"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/inventory"
	"stockroom/pkg/logger"
)

// ItemBalance is the consumption state of one physical lot.
type ItemBalance struct {
	inventory.Item

	TotalReceiptItems   int64       `json:"totalReceiptItems"`
	TotalIssuedItems    int64       `json:"totalIssuedItems"`
	PendingIssuedItems  int64       `json:"pendingIssuedItems"`
	TotalReturnedItems  int64       `json:"totalReturnedItems"`
	AdjustedIssuedItems int64       `json:"adjustedIssuedItems"`
	RemainingQuantity   int64       `json:"remainingQuantity"`
	RemainingAmount     types.Money `json:"remainingAmount"`
	IsConsumed          bool        `json:"isConsumed"`

	// ReceiptPending marks lots of receipts not yet active.
	ReceiptPending bool `json:"receiptPending,omitempty"`
}

// Allocatable returns the units of the lot not yet promised to any issuance,
// pending ones included.
func (b ItemBalance) Allocatable() int64 {
	return types.ClampQuantity(b.RemainingQuantity - b.PendingIssuedItems)
}

// consume nets the ledger entries of one lot. detailStatus resolves the
// status of the issuance detail behind an ISSUANCE entry; only entries of
// withdrawn details count as issued.
func consume(ctx context.Context, it inventory.Item, txns []entity.Transaction, detailStatus map[id.ID]inventory.IssuanceStatus) ItemBalance {
	var (
		receipt, issued, returned int64
		pendingIssued             int64
		issuedAmt                 = types.Zero()
		returnedAmt               = types.Zero()
		hasReceiptEntry           bool
	)

	for _, t := range txns {
		switch t.Type {
		case entity.TransactionReceipt:
			receipt += t.Quantity
			hasReceiptEntry = true
		case entity.TransactionIssuance:
			if t.IssuanceDetailID != nil {
				st, ok := detailStatus[*t.IssuanceDetailID]
				if ok && st == inventory.IssuancePending {
					pendingIssued += t.Quantity
					continue
				}
				if ok && st != inventory.IssuanceWithdrawn {
					continue
				}
			}
			issued += t.Quantity
			issuedAmt = issuedAmt.Add(types.LineAmount(t.Quantity, t.Price))
		case entity.TransactionReturned:
			returned += t.Quantity
			returnedAmt = returnedAmt.Add(types.LineAmount(t.Quantity, t.Price))
		}
	}

	// Source lots written before the ledger existed have no RECEIPT entry.
	if !hasReceiptEntry && !it.IsDerived() && it.Quantity > 0 {
		logger.Warn(ctx, "lot has no receipt ledger entry, using cached quantity",
			"item_id", it.ID,
			"inventory_id", it.InventoryID,
			"quantity", it.Quantity)
		receipt = it.Quantity
	}

	adjusted := types.ClampQuantity(issued - returned)
	return ItemBalance{
		Item:                it,
		TotalReceiptItems:   receipt,
		TotalIssuedItems:    issued,
		PendingIssuedItems:  pendingIssued,
		TotalReturnedItems:  returned,
		AdjustedIssuedItems: adjusted,
		RemainingQuantity:   types.ClampQuantity(receipt - adjusted),
		RemainingAmount:     it.Amount.Sub(issuedAmt).Add(returnedAmt),
		IsConsumed:          adjusted >= receipt,
	}
}
