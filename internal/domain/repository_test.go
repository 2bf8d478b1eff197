package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Number: 3, Size: MaxPageSize}, Page{Number: 3, Size: 1000}.Normalize())
}

func TestPage_OffsetAndTotalPages(t *testing.T) {
	p := Page{Number: 3, Size: 10}

	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 3, p.TotalPages(21))
	assert.Equal(t, 2, p.TotalPages(20))
	assert.Equal(t, 0, p.TotalPages(0))
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{3, 4}, Slice(items, Page{Number: 2, Size: 2}))
	assert.Equal(t, []int{5}, Slice(items, Page{Number: 3, Size: 2}))
	assert.Empty(t, Slice(items, Page{Number: 4, Size: 2}))
}

func TestPage_HugeNumberIsClamped(t *testing.T) {
	p := Page{Number: 1 << 62, Size: 100}.Normalize()

	assert.Equal(t, MaxPageNumber, p.Number)
	assert.GreaterOrEqual(t, p.Offset(), 0)
	assert.GreaterOrEqual(t, Page{Number: 1 << 62, Size: 100}.Offset(), 0)

	assert.NotPanics(t, func() {
		assert.Empty(t, Slice([]int{1, 2, 3}, Page{Number: 1 << 62, Size: 100}))
	})
}
