package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/id"
	"stockroom/internal/domain"
	"stockroom/internal/domain/inventory"
)

const recordCols = "id, created_at, updated_at, name, unit, size_type, status, item_id, quantity"

func TestInventoryRepo_ListQuery(t *testing.T) {
	repo := NewInventoryRepo(nil)
	status := inventory.StatusActive
	sizeType := inventory.SizeTypeApparel
	a, b := id.New(), id.New()

	tests := []struct {
		name     string
		filter   inventory.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			wantSQL: "SELECT " + recordCols + " FROM inventories",
		},
		{
			name:     "search",
			filter:   inventory.ListFilter{ListFilter: domain.ListFilter{Search: " boot "}},
			wantSQL:  "SELECT " + recordCols + " FROM inventories WHERE name ILIKE $1",
			wantArgs: []any{"%boot%"},
		},
		{
			name: "status and size type",
			filter: inventory.ListFilter{
				Status:   &status,
				SizeType: &sizeType,
			},
			wantSQL:  "SELECT " + recordCols + " FROM inventories WHERE status = $1 AND size_type = $2",
			wantArgs: []any{status, sizeType},
		},
		{
			name:     "ids",
			filter:   inventory.ListFilter{ListFilter: domain.ListFilter{IDs: []id.ID{a, b}}},
			wantSQL:  "SELECT " + recordCols + " FROM inventories WHERE id IN ($1,$2)",
			wantArgs: []any{a, b},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.filter).ToSql()
			require.NoError(t, err)

			assert.Equal(t, tt.wantSQL, sql)
			if len(tt.wantArgs) == 0 {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "name ASC", orderClause(""))
	assert.Equal(t, "name ASC", orderClause("name"))
	assert.Equal(t, "created_at DESC", orderClause("-created_at"))
	assert.Equal(t, "name DESC", orderClause("-password"))
}

func TestReceiptRefQuery_JoinsReceiptDirective(t *testing.T) {
	invID := id.New()

	sql, args, err := receiptRefQuery(invID, "PO-1").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM items i JOIN receipts r ON r.id = i.receipt_id")
	assert.Contains(t, sql, "WHERE i.inventory_id = $1 AND r.directive = $2 AND i.issuance_detail_id IS NULL")
	assert.Contains(t, sql, "ORDER BY i.created_at, i.id LIMIT 1")
	assert.Equal(t, []any{invID.String(), "PO-1"}, args)
}
