package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/inventory"
)

func TestExtractDBColumns_FlattensEmbedded(t *testing.T) {
	cols := ExtractDBColumns[inventory.Receipt]()

	assert.Equal(t, []string{"id", "created_at", "updated_at", "directive", "status"}, cols)
}

func TestExtractDBColumns_SkipsDashTags(t *testing.T) {
	cols := ExtractDBColumns[inventory.Issuance]()

	assert.Contains(t, cols, "end_user")
	assert.Contains(t, cols, "inventory_id")
	assert.NotContains(t, cols, "details")
}

func TestStructToMap_Transaction(t *testing.T) {
	txn := entity.NewTransaction(entity.TransactionIssuance, id.New(), id.New(), 3, types.MustMoney("2.50"), "42")
	detailID := id.New()
	txn.IssuanceDetailID = &detailID

	m := StructToMap(&txn)

	assert.Equal(t, txn.ID, m["id"])
	assert.Equal(t, entity.TransactionIssuance, m["type"])
	assert.Equal(t, int64(3), m["quantity"])
	assert.Equal(t, &detailID, m["issuance_detail_id"])
	assert.True(t, m["amount"].(types.Money).Equal(types.MustMoney("7.50")))
}

func TestRowValues_FollowsColumnOrder(t *testing.T) {
	item := inventory.NewItem(id.New(), "Boots", 2, types.MustMoney("10"), "42")

	row := RowValues(&item, []string{"size", "quantity", "missing"})

	assert.Equal(t, []any{"42", int64(2), nil}, row)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Equal(t, []any{nil}, RowValues("boots", []string{"name"}))
}
