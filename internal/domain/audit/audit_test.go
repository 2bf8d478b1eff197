package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/id"
)

func TestDiff(t *testing.T) {
	changes := Diff(
		map[string]any{"status": "pending", "quantity": int64(3), "size": "42"},
		map[string]any{"status": "withdrawn", "quantity": int64(3), "endUser": "Line 1"},
	)

	assert.Equal(t, map[string]any{
		"status":  Change("pending", "withdrawn"),
		"endUser": Change(nil, "Line 1"),
		"size":    Change("42", nil),
	}, changes)
}

func TestNewEntry_CarriesRequestID(t *testing.T) {
	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{RequestID: "req-1"})
	entityID := id.New()

	e := NewEntry(ctx, EntityReceipt, entityID, ActionActivate, nil)

	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, entityID, e.EntityID)
	assert.False(t, id.IsNil(e.ID))
	assert.False(t, e.CreatedAt.IsZero())
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, Nop{}, OrNop(nil))
	assert.NoError(t, OrNop(nil).Record(context.Background(), Entry{}))
}
