package returns_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/app"
	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/documents/issuance"
	"stockroom/internal/domain/documents/receipt"
	"stockroom/internal/domain/documents/returns"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
	"stockroom/internal/infrastructure/storage/memory"
)

// issued stocks 10 units of size 42 under PO-1 and withdraws 3 of them.
func issued(t *testing.T) (context.Context, *memory.Store, *app.Services, id.ID) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	svc := app.New(store, store, reconcile.DefaultConfig())

	doc, err := svc.Receipts.Create(ctx, receipt.CreateInput{
		Directive: "PO-1",
		Status:    inventory.ReceiptActive,
		Lines: []receipt.Line{{
			NewInventory: &receipt.NewInventory{Name: "Boots", Unit: "pair", SizeType: inventory.SizeTypeNumerical},
			Quantity:     10,
			Price:        types.MustMoney("5"),
			Size:         "42",
		}},
	})
	require.NoError(t, err)
	invID := doc.Items[0].InventoryID

	_, err = svc.Issuances.Create(ctx, issuance.CreateInput{
		Directive: "ISS-1",
		EndUser:   "Line 1",
		Withdraw:  true,
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 3}},
	})
	require.NoError(t, err)
	return ctx, store, svc, invID
}

func TestProcess_RecordsOneRowAndEntryPerUnit(t *testing.T) {
	ctx, store, svc, invID := issued(t)

	rows, err := svc.Returns.Process(ctx, returns.Input{InventoryID: invID, ReceiptRef: " PO-1 ", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "Boots", r.ItemName)
		assert.Equal(t, "42", r.Size)
		assert.Equal(t, "PO-1", r.ReceiptRef)
		assert.Equal(t, inventory.ReturnedReceived, r.Status)
	}

	txns, err := store.Ledger().ListByInventory(ctx, invID)
	require.NoError(t, err)
	var returned int
	for _, tr := range txns {
		if tr.Type == entity.TransactionReturned {
			returned++
			assert.Equal(t, int64(1), tr.Quantity)
			assert.True(t, tr.Price.Equal(types.MustMoney("5")))
		}
	}
	assert.Equal(t, 2, returned)

	rec, err := svc.Inventories.Get(ctx, invID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), rec.Quantity)

	res, err := svc.Engine.Reconcile(ctx, invID, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.QuantitySummary.TotalQuantity)
	assert.Equal(t, int64(2), res.QuantitySummary.ReturnedQuantity)
	assert.Equal(t, int64(9), res.SizeDetails.AvailableFor("42"))
	// 50 - 15 + 10
	assert.True(t, res.QuantitySummary.GrandTotalAmount.Equal(types.MustMoney("45")))

	listed, err := svc.Returns.ListByInventory(ctx, invID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestProcess_RejectsMoreThanIssued(t *testing.T) {
	ctx, _, svc, invID := issued(t)

	_, err := svc.Returns.Process(ctx, returns.Input{InventoryID: invID, ReceiptRef: "PO-1", Quantity: 4})
	assert.True(t, apperror.IsInvariantViolation(err))

	_, err = svc.Returns.Process(ctx, returns.Input{InventoryID: invID, ReceiptRef: "PO-1", Quantity: 2})
	require.NoError(t, err)

	_, err = svc.Returns.Process(ctx, returns.Input{InventoryID: invID, ReceiptRef: "PO-1", Quantity: 2})
	assert.True(t, apperror.IsInvariantViolation(err))
}

func TestProcess_UnknownReceiptRef(t *testing.T) {
	ctx, _, svc, invID := issued(t)

	_, err := svc.Returns.Process(ctx, returns.Input{InventoryID: invID, ReceiptRef: "PO-404", Quantity: 1})
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Returns.Process(ctx, returns.Input{InventoryID: id.New(), ReceiptRef: "PO-1", Quantity: 1})
	assert.True(t, apperror.IsNotFound(err))
}

func TestProcess_RollsBackOnLedgerFailure(t *testing.T) {
	ctx, store, svc, invID := issued(t)
	boom := errors.New("write failed")
	store.FailOn("ledger.append", boom)

	_, err := svc.Returns.Process(ctx, returns.Input{InventoryID: invID, ReceiptRef: "PO-1", Quantity: 1})
	require.ErrorIs(t, err, boom)

	listed, err := svc.Returns.ListByInventory(ctx, invID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	rec, err := svc.Inventories.Get(ctx, invID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.Quantity)
}

func TestInput_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   returns.Input
	}{
		{"missing inventory", returns.Input{ReceiptRef: "PO", Quantity: 1}},
		{"blank ref", returns.Input{InventoryID: id.New(), ReceiptRef: "  ", Quantity: 1}},
		{"zero quantity", returns.Input{InventoryID: id.New(), ReceiptRef: "PO"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate(context.Background())
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}
