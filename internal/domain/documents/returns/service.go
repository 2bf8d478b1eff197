package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain/audit"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
	"stockroom/pkg/logger"
)

// Input is the payload of Service.Process.
type Input struct {
	InventoryID id.ID
	// ReceiptRef is the directive of the receipt the units came in under.
	ReceiptRef string
	// ItemName and Size default to the inventory name and the lot size.
	ItemName string
	Size     string
	Quantity int64
}

// Validate implements entity.Validatable.
func (in *Input) Validate(ctx context.Context) error {
	in.ReceiptRef = strings.TrimSpace(in.ReceiptRef)
	if id.IsNil(in.InventoryID) {
		return apperror.NewValidation("inventory is required").WithDetail("field", "inventoryId")
	}
	if in.ReceiptRef == "" {
		return apperror.NewValidation("receipt reference is required").WithDetail("field", "receiptRef")
	}
	if in.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	return nil
}

// Service processes returns.
type Service struct {
	repo        Repository
	inventories inventory.Repository
	items       inventory.ItemRepository
	ledger      inventory.LedgerRepository
	reconciler  Reconciler
	audit       audit.Recorder
	txManager   tx.Manager
}

// NewService creates a new returns service.
func NewService(
	repo Repository,
	inventories inventory.Repository,
	items inventory.ItemRepository,
	ledger inventory.LedgerRepository,
	reconciler Reconciler,
	recorder audit.Recorder,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		inventories: inventories,
		items:       items,
		ledger:      ledger,
		reconciler:  reconciler,
		audit:       audit.OrNop(recorder),
		txManager:   txManager,
	}
}

// Process records quantity returned units of the lot received under
// ReceiptRef: one returned-item row and one RETURNED ledger entry per unit.
func (s *Service) Process(ctx context.Context, in Input) ([]inventory.ReturnedItem, error) {
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	var out []inventory.ReturnedItem
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.inventories.GetForUpdate(ctx, in.InventoryID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("inventory", in.InventoryID.String())
			}
			return fmt.Errorf("lock inventory: %w", err)
		}

		lot, err := s.items.FindByReceiptRef(ctx, rec.ID, in.ReceiptRef)
		if err != nil {
			return fmt.Errorf("find lot: %w", err)
		}
		if lot == nil {
			return apperror.NewNotFound("receipt lot", in.ReceiptRef).
				WithDetail("inventory_id", rec.ID.String())
		}

		if err := s.checkReturnable(ctx, rec, lot, in.Quantity); err != nil {
			return err
		}

		name := strings.TrimSpace(in.ItemName)
		if name == "" {
			name = rec.Name
		}
		size := lot.Size
		if strings.TrimSpace(in.Size) != "" {
			size = inventory.SizeKey(in.Size)
		}

		now := time.Now().UTC()
		rows := make([]inventory.ReturnedItem, 0, in.Quantity)
		txns := make([]entity.Transaction, 0, in.Quantity)
		for range in.Quantity {
			rows = append(rows, inventory.ReturnedItem{
				ID:          id.New(),
				InventoryID: rec.ID,
				ItemName:    name,
				Size:        size,
				ReceiptRef:  in.ReceiptRef,
				Status:      inventory.ReturnedReceived,
				CreatedAt:   now,
			})
			txns = append(txns, entity.NewTransaction(entity.TransactionReturned, rec.ID, lot.ID, 1, lot.Price, size))
		}

		if err := s.repo.CreateReturnedItems(ctx, rows); err != nil {
			return fmt.Errorf("create returned items: %w", err)
		}
		if err := s.ledger.Append(ctx, txns); err != nil {
			return fmt.Errorf("append returned entries: %w", err)
		}
		if err := s.inventories.AdjustQuantity(ctx, rec.ID, in.Quantity); err != nil {
			return fmt.Errorf("adjust quantity: %w", err)
		}

		out = rows
		return s.audit.Record(ctx, audit.NewEntry(ctx, audit.EntityInventory, rec.ID, audit.ActionReturn, map[string]any{
			"receiptRef": in.ReceiptRef,
			"itemId":     lot.ID,
			"size":       size,
			"quantity":   in.Quantity,
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return processed",
		"inventory_id", in.InventoryID,
		"receipt_ref", in.ReceiptRef,
		"quantity", in.Quantity)
	return out, nil
}

// checkReturnable rejects returning more units of a lot than are out.
func (s *Service) checkReturnable(ctx context.Context, rec *inventory.Record, lot *inventory.Item, qty int64) error {
	res, err := s.reconciler.Reconcile(ctx, rec.ID, reconcile.Options{IncludeConsumed: true})
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", rec.ID, err)
	}
	for _, b := range res.Items {
		if b.ID != lot.ID {
			continue
		}
		if qty > b.AdjustedIssuedItems {
			return apperror.NewInvariantViolation(
				fmt.Sprintf("cannot return %d units of lot %s: only %d issued", qty, lot.ID, b.AdjustedIssuedItems),
			).WithDetail("inventory_id", rec.ID.String()).
				WithDetail("outstanding", b.AdjustedIssuedItems)
		}
		return nil
	}
	return nil
}

// ListByInventory returns the returned units of an inventory.
func (s *Service) ListByInventory(ctx context.Context, inventoryID id.ID) ([]inventory.ReturnedItem, error) {
	return s.repo.ListByInventory(ctx, inventoryID)
}
