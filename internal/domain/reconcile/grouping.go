package reconcile

import (
	"stockroom/internal/core/types"
)

// StockLevel is a coarse classification of a stock count.
type StockLevel string

const (
	StockLevelOut  StockLevel = "Out of Stock"
	StockLevelLow  StockLevel = "Low Stock"
	StockLevelMid  StockLevel = "Mid Stock"
	StockLevelHigh StockLevel = "High Stock"
)

// ParseStockLevel accepts the display label or a short form (out, low, mid, high).
func ParseStockLevel(s string) (StockLevel, bool) {
	switch s {
	case string(StockLevelOut), "out", "out_of_stock":
		return StockLevelOut, true
	case string(StockLevelLow), "low":
		return StockLevelLow, true
	case string(StockLevelMid), "mid":
		return StockLevelMid, true
	case string(StockLevelHigh), "high":
		return StockLevelHigh, true
	}
	return "", false
}

// ClassifyStockLevel grades a single size variant on the item-detail view.
func ClassifyStockLevel(pairs int64) StockLevel {
	switch {
	case pairs <= 0:
		return StockLevelOut
	case pairs <= 30:
		return StockLevelLow
	case pairs <= 98:
		return StockLevelMid
	default:
		return StockLevelHigh
	}
}

// ClassifyDashboardStockLevel grades a whole inventory on the list view.
// Its thresholds differ from ClassifyStockLevel on purpose.
func ClassifyDashboardStockLevel(quantity int64) StockLevel {
	switch {
	case quantity <= 0:
		return StockLevelOut
	case quantity <= 100:
		return StockLevelLow
	case quantity <= 499:
		return StockLevelMid
	default:
		return StockLevelHigh
	}
}

// SizeGroup is one size row of a projection.
type SizeGroup struct {
	Size   string     `json:"size"`
	Pairs  int64      `json:"pairs"`
	Status StockLevel `json:"status"`
}

// SizeDetails are the per-size projections of the buckets.
type SizeDetails struct {
	Pending   []SizeGroup `json:"pending"`
	Available []SizeGroup `json:"available"`
	Total     []SizeGroup `json:"total"`
	Returned  []SizeGroup `json:"returned"`
}

// AvailableFor returns the available pairs for size, zero when unknown.
func (d SizeDetails) AvailableFor(size string) int64 {
	for _, g := range d.Available {
		if g.Size == size {
			return g.Pairs
		}
	}
	return 0
}

// SizeQuantity is the raw bucket of one size after reduction.
type SizeQuantity struct {
	Size string `json:"size"`
	Bucket
}

func group(buckets *Buckets) SizeDetails {
	out := SizeDetails{
		Pending:   []SizeGroup{},
		Available: []SizeGroup{},
		Total:     []SizeGroup{},
		Returned:  []SizeGroup{},
	}
	row := func(size string, pairs int64) SizeGroup {
		return SizeGroup{Size: size, Pairs: pairs, Status: ClassifyStockLevel(pairs)}
	}

	buckets.Each(func(size string, bk *Bucket) {
		if bk.Pending > 0 {
			out.Pending = append(out.Pending, row(size, bk.Pending))
		}
		out.Available = append(out.Available, row(size, types.ClampQuantity(bk.Total-bk.Pending-bk.Withdrawn+bk.Returned)))
		out.Total = append(out.Total, row(size, types.ClampQuantity(bk.Total-bk.Withdrawn+bk.Returned)))
		if bk.Returned > 0 {
			out.Returned = append(out.Returned, row(size, bk.Returned))
		}
	})
	return out
}

func detailedQuantities(buckets *Buckets) []SizeQuantity {
	out := make([]SizeQuantity, 0, buckets.Len())
	buckets.Each(func(size string, bk *Bucket) {
		out = append(out, SizeQuantity{Size: size, Bucket: *bk})
	})
	return out
}
