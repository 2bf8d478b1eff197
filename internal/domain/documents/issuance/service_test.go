package issuance_test

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
	"stockroom/internal/domain/audit"
	"stockroom/internal/domain/documents/issuance"
	"stockroom/internal/domain/documents/receipt"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
	"stockroom/internal/infrastructure/storage/memory"
)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	svc   *app.Services
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	return &fixture{
		ctx:   context.Background(),
		store: store,
		svc:   app.New(store, store, reconcile.DefaultConfig()),
	}
}

// stock creates an inventory holding one active lot per size.
func (f *fixture) stock(t *testing.T, name string, sizes map[string]int64) id.ID {
	t.Helper()
	rec, err := f.svc.Inventories.Create(f.ctx, name, "pair", inventory.SizeTypeNumerical)
	require.NoError(t, err)

	var lines []receipt.Line
	for size, qty := range sizes {
		lines = append(lines, receipt.Line{InventoryID: id.Ptr(rec.ID), Quantity: qty, Price: types.MustMoney("10"), Size: size})
	}
	_, err = f.svc.Receipts.Create(f.ctx, receipt.CreateInput{
		Directive: "PO-" + name,
		Status:    inventory.ReceiptActive,
		Lines:     lines,
	})
	require.NoError(t, err)
	return rec.ID
}

func (f *fixture) quantity(t *testing.T, invID id.ID) int64 {
	t.Helper()
	rec, err := f.svc.Inventories.Get(f.ctx, invID)
	require.NoError(t, err)
	return rec.Quantity
}

func (f *fixture) reconcile(t *testing.T, invID id.ID) *reconcile.Result {
	t.Helper()
	res, err := f.svc.Engine.Reconcile(f.ctx, invID, reconcile.Options{})
	require.NoError(t, err)
	return res
}

func TestCreate_WithdrawnReducesStock(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 20})

	doc, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-1",
		EndUser:   "Line 3",
		Withdraw:  true,
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 8}},
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.IssuanceWithdrawn, doc.Status)
	require.Len(t, doc.Details, 1)
	assert.Equal(t, inventory.IssuanceWithdrawn, doc.Details[0].Status)

	assert.Equal(t, int64(12), f.quantity(t, invID))
	res := f.reconcile(t, invID)
	assert.Equal(t, int64(12), res.QuantitySummary.TotalQuantity)
	assert.Equal(t, int64(8), res.QuantitySummary.WithdrawnQuantity)
	assert.Equal(t, int64(12), res.SizeDetails.AvailableFor("42"))
	assert.True(t, res.QuantitySummary.GrandTotalAmount.Equal(types.MustMoney("120")))
	assert.Empty(t, f.store.Notifications())
}

func TestCreate_PendingReservesWithoutTouchingCache(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 10})

	_, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-2",
		EndUser:   "Line 1",
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 4}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), f.quantity(t, invID))
	res := f.reconcile(t, invID)
	assert.Equal(t, int64(10), res.QuantitySummary.TotalQuantity)
	assert.Equal(t, int64(6), res.QuantitySummary.AvailableQuantity)
	assert.Equal(t, int64(4), res.QuantitySummary.PendingIssuanceQuantity)
	assert.Equal(t, int64(6), res.SizeDetails.AvailableFor("42"))

	// The reservation is honored by the next request.
	_, err = f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-3",
		EndUser:   "Line 1",
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 7}},
	})
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestCreate_InsufficientStockRollsBackEveryLine(t *testing.T) {
	f := setup(t)
	boots := f.stock(t, "Boots", map[string]int64{"42": 5})
	gloves := f.stock(t, "Gloves", map[string]int64{"L": 2})

	before, err := f.store.Ledger().ListByInventory(f.ctx, boots)
	require.NoError(t, err)

	_, err = f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-4",
		EndUser:   "Line 2",
		Withdraw:  true,
		Lines: []issuance.Line{
			{InventoryID: boots, Size: "42", Quantity: 5},
			{InventoryID: gloves, Size: "L", Quantity: 3},
		},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(3), appErr.Details["requested"])
	assert.Equal(t, int64(2), appErr.Details["available"])

	assert.Equal(t, int64(5), f.quantity(t, boots))
	after, err := f.store.Ledger().ListByInventory(f.ctx, boots)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Equal(t, int64(5), f.reconcile(t, boots).QuantitySummary.TotalQuantity)
}

func TestCreate_UnknownSizeIsInsufficient(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 5})

	_, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-5",
		EndUser:   "Line 2",
		Lines:     []issuance.Line{{InventoryID: invID, Size: "44", Quantity: 1}},
	})
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestCreate_AllocatesOldestLotFirst(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 3})
	_, err := f.svc.Receipts.Create(f.ctx, receipt.CreateInput{
		Directive: "PO-late",
		Status:    inventory.ReceiptActive,
		Lines:     []receipt.Line{{InventoryID: id.Ptr(invID), Quantity: 5, Price: types.MustMoney("14"), Size: "42"}},
	})
	require.NoError(t, err)

	doc, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-6",
		EndUser:   "Line 4",
		Withdraw:  true,
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 4}},
	})
	require.NoError(t, err)
	detail := doc.Details[0]
	assert.True(t, detail.Price.Equal(types.MustMoney("10")))

	txns, err := f.store.Ledger().ListByInventory(f.ctx, invID)
	require.NoError(t, err)
	var issued []entity.Transaction
	for _, tr := range txns {
		if tr.Type == entity.TransactionIssuance {
			issued = append(issued, tr)
		}
	}
	require.Len(t, issued, 2)
	assert.Equal(t, int64(3), issued[0].Quantity)
	assert.Equal(t, detail.ItemID, issued[0].ItemID)
	assert.Equal(t, int64(1), issued[1].Quantity)
	assert.True(t, issued[1].Price.Equal(types.MustMoney("14")))

	res := f.reconcile(t, invID)
	require.Len(t, res.Items, 1, "the first lot is consumed and hidden")
	assert.Equal(t, int64(4), res.Items[0].RemainingQuantity)
	assert.Equal(t, int64(4), res.SizeDetails.AvailableFor("42"))
}

func TestCreate_NotifiesLowStock(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 8})

	_, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-7",
		EndUser:   "Line 5",
		Withdraw:  true,
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 4}},
	})
	require.NoError(t, err)

	notes := f.store.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, invID, notes[0].InventoryID)
	assert.Equal(t, "Boots", notes[0].Name)
	assert.Equal(t, int64(4), notes[0].RemainingQuantity)
}

func TestSetDetailStatus_Transitions(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 10})

	doc, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-8",
		EndUser:   "Line 6",
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 3}},
	})
	require.NoError(t, err)
	detailID := doc.Details[0].ID

	d, err := f.svc.Issuances.SetDetailStatus(f.ctx, detailID, inventory.IssuanceWithdrawn)
	require.NoError(t, err)
	assert.Equal(t, inventory.IssuanceWithdrawn, d.Status)
	assert.Equal(t, int64(7), f.quantity(t, invID))
	assert.Equal(t, int64(7), f.reconcile(t, invID).QuantitySummary.TotalQuantity)

	// Same status is a no-op.
	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, detailID, inventory.IssuanceWithdrawn)
	require.NoError(t, err)
	assert.Equal(t, int64(7), f.quantity(t, invID))

	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, detailID, inventory.IssuancePending)
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.quantity(t, invID))

	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, detailID, inventory.IssuanceArchived)
	require.NoError(t, err)
	res := f.reconcile(t, invID)
	assert.Equal(t, int64(10), res.QuantitySummary.TotalQuantity)
	assert.Equal(t, int64(10), res.QuantitySummary.AvailableQuantity)

	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, detailID, inventory.IssuanceWithdrawn)
	assert.True(t, apperror.IsInvariantViolation(err))

	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, detailID, "lost")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, id.New(), inventory.IssuancePending)
	assert.True(t, apperror.IsNotFound(err))
}

func TestArchive_RejectedWhileWithdrawn(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 10, "43": 10})

	doc, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-9",
		EndUser:   "Line 7",
		Lines: []issuance.Line{
			{InventoryID: invID, Size: "42", Quantity: 2},
			{InventoryID: invID, Size: "43", Quantity: 1},
		},
	})
	require.NoError(t, err)
	withdrawn := doc.Details[1].ID
	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, withdrawn, inventory.IssuanceWithdrawn)
	require.NoError(t, err)

	_, err = f.svc.Issuances.Archive(f.ctx, doc.ID)
	require.True(t, apperror.IsInvariantViolation(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, []string{withdrawn.String()}, appErr.Details["withdrawn_details"])

	got, err := f.svc.Issuances.Get(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.IssuancePending, got.Status)
	assert.Equal(t, inventory.IssuancePending, got.Details[0].Status)
	assert.Equal(t, inventory.IssuanceWithdrawn, got.Details[1].Status)

	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, withdrawn, inventory.IssuancePending)
	require.NoError(t, err)

	archived, err := f.svc.Issuances.Archive(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.IssuanceArchived, archived.Status)
	for _, d := range archived.Details {
		assert.Equal(t, inventory.IssuanceArchived, d.Status)
	}
	assert.Equal(t, int64(20), f.quantity(t, invID))
	assert.Equal(t, int64(20), f.reconcile(t, invID).QuantitySummary.AvailableQuantity)

	again, err := f.svc.Issuances.Archive(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.IssuanceArchived, again.Status)
}

func TestCreate_RejectsArchivedInventory(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 10})
	require.NoError(t, f.svc.Inventories.Archive(f.ctx, invID))

	_, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-10",
		EndUser:   "Line 8",
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 1}},
	})
	assert.True(t, apperror.IsInvariantViolation(err))
}

func TestCreateInput_Validate(t *testing.T) {
	invID := id.New()
	tests := []struct {
		name string
		in   issuance.CreateInput
	}{
		{"missing directive", issuance.CreateInput{EndUser: "u", Lines: []issuance.Line{{InventoryID: invID, Quantity: 1}}}},
		{"missing end user", issuance.CreateInput{Directive: "d", Lines: []issuance.Line{{InventoryID: invID, Quantity: 1}}}},
		{"no lines", issuance.CreateInput{Directive: "d", EndUser: "u"}},
		{"nil inventory", issuance.CreateInput{Directive: "d", EndUser: "u", Lines: []issuance.Line{{Quantity: 1}}}},
		{"zero quantity", issuance.CreateInput{Directive: "d", EndUser: "u", Lines: []issuance.Line{{InventoryID: invID}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate(context.Background())
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestSetDetailStatus_RecordsHistory(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 10})

	doc, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-11",
		EndUser:   "Line 9",
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 2}},
	})
	require.NoError(t, err)
	detailID := doc.Details[0].ID

	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, detailID, inventory.IssuanceWithdrawn)
	require.NoError(t, err)
	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, detailID, inventory.IssuancePending)
	require.NoError(t, err)

	history, err := f.store.Audit().History(f.ctx, audit.EntityIssuanceDetail, detailID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, audit.Change(inventory.IssuanceWithdrawn, inventory.IssuancePending), history[0].Changes["status"])
	assert.Equal(t, audit.Change(inventory.IssuancePending, inventory.IssuanceWithdrawn), history[1].Changes["status"])

	created, err := f.store.Audit().History(f.ctx, audit.EntityIssuance, doc.ID, 1)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, audit.ActionCreate, created[0].Action)
}

func TestSetDetailStatus_AuditFailureRollsBack(t *testing.T) {
	f := setup(t)
	invID := f.stock(t, "Boots", map[string]int64{"42": 10})

	doc, err := f.svc.Issuances.Create(f.ctx, issuance.CreateInput{
		Directive: "ISS-12",
		EndUser:   "Line 9",
		Lines:     []issuance.Line{{InventoryID: invID, Size: "42", Quantity: 2}},
	})
	require.NoError(t, err)

	boom := errors.New("audit down")
	f.store.FailOn("audit.record", boom)
	_, err = f.svc.Issuances.SetDetailStatus(f.ctx, doc.Details[0].ID, inventory.IssuanceWithdrawn)
	require.ErrorIs(t, err, boom)

	got, err := f.svc.Issuances.Get(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.IssuancePending, got.Details[0].Status)
	assert.Equal(t, int64(10), f.quantity(t, invID))
}
