package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
)

func TestNewTransaction_ComputesAmount(t *testing.T) {
	inv, item := id.New(), id.New()

	txn := NewTransaction(TransactionReturned, inv, item, 3, types.MustMoney("12.5"), "M")

	assert.False(t, id.IsNil(txn.ID))
	assert.Equal(t, inv, txn.InventoryID)
	assert.Equal(t, item, txn.ItemID)
	assert.True(t, txn.Amount.Equal(types.MustMoney("37.5")))
	assert.True(t, txn.Type.Valid())
	assert.False(t, TransactionType("ADJUST").Valid())
}

func TestDocument_RequiresDirective(t *testing.T) {
	doc := NewDocument("   ")

	err := doc.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	doc = NewDocument(" RCV-001 ")
	assert.Equal(t, "RCV-001", doc.Directive)
	assert.NoError(t, doc.Validate(context.Background()))
}
