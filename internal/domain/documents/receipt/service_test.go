package receipt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/app"
	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain"
	"stockroom/internal/domain/documents/receipt"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
	"stockroom/internal/infrastructure/storage/memory"
)

func setup(t *testing.T) (*memory.Store, *app.Services) {
	t.Helper()
	store := memory.New()
	return store, app.New(store, store, reconcile.DefaultConfig())
}

func newInventoryLine(name string, qty int64, price, size string) receipt.Line {
	return receipt.Line{
		NewInventory: &receipt.NewInventory{Name: name, Unit: "pair", SizeType: inventory.SizeTypeNumerical},
		Quantity:     qty,
		Price:        types.MustMoney(price),
		Size:         size,
	}
}

func TestCreate_ActiveReceiptCreatesInventoryAndBaseline(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)

	doc, err := svc.Receipts.Create(ctx, receipt.CreateInput{
		Directive: "PO-100",
		Status:    inventory.ReceiptActive,
		Lines:     []receipt.Line{newInventoryLine("Boots", 10, "25.00", "42")},
	})
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)

	lot := doc.Items[0]
	rec, err := svc.Inventories.Get(ctx, lot.InventoryID)
	require.NoError(t, err)
	assert.Equal(t, "Boots", rec.Name)
	assert.Equal(t, int64(10), rec.Quantity)
	require.NotNil(t, rec.ItemID)
	assert.Equal(t, lot.ID, *rec.ItemID)

	txns, err := store.Ledger().ListByInventory(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, int64(10), txns[0].Quantity)
	assert.Equal(t, doc.ID, *txns[0].ReceiptID)

	res, err := svc.Engine.Reconcile(ctx, rec.ID, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.QuantitySummary.TotalQuantity)
	assert.Equal(t, int64(10), res.SizeDetails.AvailableFor("42"))
	assert.True(t, res.QuantitySummary.GrandTotalAmount.Equal(types.MustMoney("250")))
}

func TestCreate_PendingReceiptDoesNotCountUntilActivated(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	doc, err := svc.Receipts.Create(ctx, receipt.CreateInput{
		Directive: "PO-101",
		Lines:     []receipt.Line{newInventoryLine("Gloves", 6, "4.00", "L")},
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.ReceiptPending, doc.Status)
	invID := doc.Items[0].InventoryID

	res, err := svc.Engine.Reconcile(ctx, invID, reconcile.Options{})
	require.NoError(t, err)
	assert.Zero(t, res.QuantitySummary.TotalQuantity)

	rec, err := svc.Inventories.Get(ctx, invID)
	require.NoError(t, err)
	assert.Nil(t, rec.ItemID)
	assert.Zero(t, rec.Quantity)

	activated, err := svc.Receipts.Activate(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReceiptActive, activated.Status)

	rec, err = svc.Inventories.Get(ctx, invID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec.Quantity)
	require.NotNil(t, rec.ItemID)

	res, err = svc.Engine.Reconcile(ctx, invID, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.QuantitySummary.TotalQuantity)
}

func TestActivate_RejectsNonPending(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	doc, err := svc.Receipts.Create(ctx, receipt.CreateInput{
		Directive: "PO-102",
		Status:    inventory.ReceiptActive,
		Lines:     []receipt.Line{newInventoryLine("Caps", 3, "2.00", "")},
	})
	require.NoError(t, err)

	_, err = svc.Receipts.Activate(ctx, doc.ID)
	assert.True(t, apperror.IsInvariantViolation(err))

	_, err = svc.Receipts.Activate(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_SecondReceiptKeepsBaseline(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	first, err := svc.Receipts.Create(ctx, receipt.CreateInput{
		Directive: "PO-200",
		Status:    inventory.ReceiptActive,
		Lines:     []receipt.Line{newInventoryLine("Boots", 3, "10", "42")},
	})
	require.NoError(t, err)
	invID := first.Items[0].InventoryID

	_, err = svc.Receipts.Create(ctx, receipt.CreateInput{
		Directive: "PO-201",
		Status:    inventory.ReceiptActive,
		Lines: []receipt.Line{
			{InventoryID: id.Ptr(invID), Quantity: 5, Price: types.MustMoney("12"), Size: "42"},
			{InventoryID: id.Ptr(invID), Quantity: 2, Price: types.MustMoney("12"), Size: "43"},
		},
	})
	require.NoError(t, err)

	rec, err := svc.Inventories.Get(ctx, invID)
	require.NoError(t, err)
	assert.Equal(t, first.Items[0].ID, *rec.ItemID)
	assert.Equal(t, int64(10), rec.Quantity)

	res, err := svc.Engine.Reconcile(ctx, invID, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.QuantitySummary.TotalQuantity)
	assert.Equal(t, int64(8), res.SizeDetails.AvailableFor("42"))
	assert.Equal(t, int64(2), res.SizeDetails.AvailableFor("43"))
	// 3*10 + 5*12 + 2*12
	assert.True(t, res.QuantitySummary.GrandTotalAmount.Equal(types.MustMoney("114")))
}

func TestCreate_RollsBackOnLedgerFailure(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)
	boom := errors.New("disk full")
	store.FailOn("ledger.append", boom)

	_, err := svc.Receipts.Create(ctx, receipt.CreateInput{
		Directive: "PO-300",
		Status:    inventory.ReceiptActive,
		Lines:     []receipt.Line{newInventoryLine("Boots", 4, "1", "40")},
	})
	require.ErrorIs(t, err, boom)

	list, err := store.Inventories().List(ctx, inventory.ListFilter{ListFilter: domain.DefaultListFilter()})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.Zero(t, list.TotalCount)
}

func TestCreate_RejectsArchivedInventory(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	rec, err := svc.Inventories.Create(ctx, "Scarves", "piece", inventory.SizeTypeNone)
	require.NoError(t, err)
	require.NoError(t, svc.Inventories.Archive(ctx, rec.ID))

	_, err = svc.Receipts.Create(ctx, receipt.CreateInput{
		Directive: "PO-400",
		Lines:     []receipt.Line{{InventoryID: id.Ptr(rec.ID), Quantity: 1, Price: types.Zero()}},
	})
	assert.True(t, apperror.IsInvariantViolation(err))
}

func TestCreateInput_Validate(t *testing.T) {
	invID := id.New()
	tests := []struct {
		name string
		in   receipt.CreateInput
	}{
		{"missing directive", receipt.CreateInput{Lines: []receipt.Line{{InventoryID: &invID, Quantity: 1}}}},
		{"no lines", receipt.CreateInput{Directive: "PO"}},
		{"both targets", receipt.CreateInput{Directive: "PO", Lines: []receipt.Line{{
			InventoryID: &invID, NewInventory: &receipt.NewInventory{Name: "x"}, Quantity: 1,
		}}}},
		{"zero quantity", receipt.CreateInput{Directive: "PO", Lines: []receipt.Line{{InventoryID: &invID}}}},
		{"negative price", receipt.CreateInput{Directive: "PO", Lines: []receipt.Line{{
			InventoryID: &invID, Quantity: 1, Price: types.MustMoney("-1"),
		}}}},
		{"archived status", receipt.CreateInput{Directive: "PO", Status: inventory.ReceiptArchived, Lines: []receipt.Line{{
			InventoryID: &invID, Quantity: 1,
		}}}},
		{"unnamed new inventory", receipt.CreateInput{Directive: "PO", Lines: []receipt.Line{{
			NewInventory: &receipt.NewInventory{}, Quantity: 1,
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate(context.Background())
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}
