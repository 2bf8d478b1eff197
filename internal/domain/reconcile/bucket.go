package reconcile

import (
	"math"
	"sort"
	"strconv"

	"stockroom/internal/domain/inventory"
)

// Bucket is the per-size tally. Fields may go negative while folding;
// clamping happens in reduce.
type Bucket struct {
	Pending   int64 `json:"pending"`
	Available int64 `json:"available"`
	Withdrawn int64 `json:"withdrawn"`
	Total     int64 `json:"total"`
	Returned  int64 `json:"returned"`
}

// Buckets accumulates size buckets keyed by size.
type Buckets struct {
	keys []string
	m    map[string]*Bucket
}

// NewBuckets creates an empty accumulator.
func NewBuckets() *Buckets {
	return &Buckets{m: make(map[string]*Bucket)}
}

// GetOrInit returns the bucket for size, creating a zeroed one if needed.
// A blank size maps to inventory.NoSize.
func (b *Buckets) GetOrInit(size string) *Bucket {
	key := inventory.SizeKey(size)
	if bk, ok := b.m[key]; ok {
		return bk
	}
	bk := &Bucket{}
	b.m[key] = bk
	b.keys = append(b.keys, key)
	return bk
}

// Get returns the bucket for size or nil.
func (b *Buckets) Get(size string) *Bucket {
	return b.m[inventory.SizeKey(size)]
}

// Len returns the number of sizes seen.
func (b *Buckets) Len() int {
	return len(b.keys)
}

// Sizes returns the size keys in natural order: integer sizes ascending
// first, then the remaining sizes in the order they were first seen.
func (b *Buckets) Sizes() []string {
	var numeric, named []string
	for _, k := range b.keys {
		if isIndexKey(k) {
			numeric = append(numeric, k)
		} else {
			named = append(named, k)
		}
	}
	sort.SliceStable(numeric, func(i, j int) bool {
		a, _ := strconv.ParseUint(numeric[i], 10, 32)
		c, _ := strconv.ParseUint(numeric[j], 10, 32)
		return a < c
	})
	return append(numeric, named...)
}

// Each calls fn for every bucket in natural order.
func (b *Buckets) Each(fn func(size string, bk *Bucket)) {
	for _, k := range b.Sizes() {
		fn(k, b.m[k])
	}
}

// isIndexKey reports whether k is a canonical integer below 2^32-1 ("42", not "042").
func isIndexKey(k string) bool {
	if k == "" || len(k) > 10 {
		return false
	}
	if len(k) > 1 && k[0] == '0' {
		return false
	}
	n, err := strconv.ParseUint(k, 10, 32)
	return err == nil && n < math.MaxUint32
}
