package register_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/id"
)

func TestListQuery_SQL(t *testing.T) {
	itemID := id.New()

	sql, args, err := listQuery(squirrel.Eq{"item_id": itemID}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, type, inventory_id, item_id, receipt_id, issuance_id, issuance_detail_id, "+
			"quantity, price, amount, size, created_at FROM inventory_transactions "+
			"WHERE item_id = $1 ORDER BY created_at, id",
		sql)
	// squirrel.Eq resolves driver.Valuer, so the id travels as its text form.
	assert.Equal(t, []any{itemID.String()}, args)
}
