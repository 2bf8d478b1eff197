package reconcile

import (
	"stockroom/internal/core/types"
)

// Summary is the system-wide quantity and valuation of one inventory.
type Summary struct {
	TotalQuantity           int64       `json:"totalQuantity"`
	AvailableQuantity       int64       `json:"availableQuantity"`
	PendingQuantity         int64       `json:"pendingQuantity"`
	PendingIssuanceQuantity int64       `json:"pendingIssuanceQuantity"`
	WithdrawnQuantity       int64       `json:"withdrawnQuantity"`
	ReturnedQuantity        int64       `json:"returnedQuantity"`
	GrandTotalAmount        types.Money `json:"grandTotalAmount"`
}

// reduce recomputes every bucket's available count from its total,
// withdrawn and returned tallies and derives the final summary from the
// running one. Clamping happens only here.
func reduce(buckets *Buckets, running Summary) Summary {
	var totalAvailable int64
	buckets.Each(func(_ string, bk *Bucket) {
		bk.Available = types.ClampQuantity(bk.Total - bk.Withdrawn + bk.Returned)
		totalAvailable += bk.Available
	})

	out := running
	out.AvailableQuantity = types.ClampQuantity(totalAvailable - running.PendingQuantity)
	out.TotalQuantity = types.ClampQuantity(totalAvailable)
	out.PendingQuantity = types.ClampQuantity(running.PendingQuantity)
	out.PendingIssuanceQuantity = types.ClampQuantity(running.PendingIssuanceQuantity)
	out.WithdrawnQuantity = types.ClampQuantity(running.WithdrawnQuantity)
	out.ReturnedQuantity = types.ClampQuantity(running.ReturnedQuantity)
	out.GrandTotalAmount = types.ClampMoney(running.GrandTotalAmount)
	return out
}
