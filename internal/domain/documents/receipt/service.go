package receipt

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain/audit"
	"stockroom/internal/domain/inventory"
	"stockroom/pkg/logger"
)

// Service provides business operations for receipt documents.
type Service struct {
	repo        Repository
	inventories inventory.Repository
	items       inventory.ItemRepository
	ledger      inventory.LedgerRepository
	audit       audit.Recorder
	txManager   tx.Manager
}

// NewService creates a new receipt service.
func NewService(
	repo Repository,
	inventories inventory.Repository,
	items inventory.ItemRepository,
	ledger inventory.LedgerRepository,
	recorder audit.Recorder,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		inventories: inventories,
		items:       items,
		ledger:      ledger,
		audit:       audit.OrNop(recorder),
		txManager:   txManager,
	}
}

// Create records a receipt, its lots and their ledger entries atomically.
// Lines naming a new inventory create it. Active receipts raise the cached
// quantity of every inventory they touch.
func (s *Service) Create(ctx context.Context, in CreateInput) (*inventory.Receipt, error) {
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	doc := &inventory.Receipt{
		Document: entity.NewDocument(in.Directive),
		Status:   in.Status,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}

		records := make(map[id.ID]*inventory.Record)
		lots := make([]inventory.Item, 0, len(in.Lines))
		for i, line := range in.Lines {
			rec, err := s.resolveInventory(ctx, line, records)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			lot := inventory.NewItem(rec.ID, rec.Name, line.Quantity, line.Price, line.Size)
			lot.ReceiptID = id.Ptr(doc.ID)
			lots = append(lots, lot)
		}

		if err := s.items.CreateItems(ctx, lots); err != nil {
			return fmt.Errorf("create items: %w", err)
		}
		if err := s.appendReceiptEntries(ctx, doc.ID, lots); err != nil {
			return err
		}

		if doc.Status == inventory.ReceiptActive {
			if err := s.applyActive(ctx, records, lots); err != nil {
				return err
			}
		}

		doc.Items = lots
		return s.audit.Record(ctx, audit.NewEntry(ctx, audit.EntityReceipt, doc.ID, audit.ActionCreate, map[string]any{
			"directive": doc.Directive,
			"status":    doc.Status,
			"lines":     len(lots),
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "receipt created",
		"id", doc.ID,
		"directive", doc.Directive,
		"status", doc.Status,
		"lines", len(doc.Items))

	return doc, nil
}

// resolveInventory locks the line's inventory, or creates it on first receipt.
func (s *Service) resolveInventory(ctx context.Context, line Line, seen map[id.ID]*inventory.Record) (*inventory.Record, error) {
	if line.NewInventory != nil {
		rec := inventory.NewRecord(line.NewInventory.Name, line.NewInventory.Unit, line.NewInventory.SizeType)
		if err := s.inventories.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("create inventory: %w", err)
		}
		seen[rec.ID] = rec
		return rec, nil
	}

	if rec, ok := seen[*line.InventoryID]; ok {
		return rec, nil
	}
	rec, err := s.inventories.GetForUpdate(ctx, *line.InventoryID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("inventory", line.InventoryID.String())
		}
		return nil, fmt.Errorf("lock inventory: %w", err)
	}
	if rec.IsArchived() {
		return nil, apperror.NewInvariantViolation("cannot receive into an archived inventory").
			WithDetail("inventory_id", rec.ID.String())
	}
	seen[rec.ID] = rec
	return rec, nil
}

func (s *Service) appendReceiptEntries(ctx context.Context, docID id.ID, lots []inventory.Item) error {
	txns := make([]entity.Transaction, 0, len(lots))
	for _, lot := range lots {
		t := entity.NewTransaction(entity.TransactionReceipt, lot.InventoryID, lot.ID, lot.Quantity, lot.Price, lot.Size)
		t.ReceiptID = id.Ptr(docID)
		txns = append(txns, t)
	}
	if err := s.ledger.Append(ctx, txns); err != nil {
		return fmt.Errorf("append receipt entries: %w", err)
	}
	return nil
}

// applyActive raises cached quantities and makes the first lot of an
// inventory without original stock its baseline.
func (s *Service) applyActive(ctx context.Context, records map[id.ID]*inventory.Record, lots []inventory.Item) error {
	deltas := make(map[id.ID]int64)
	var order []id.ID
	for _, lot := range lots {
		if _, ok := deltas[lot.InventoryID]; !ok {
			order = append(order, lot.InventoryID)
		}
		deltas[lot.InventoryID] += lot.Quantity

		rec := records[lot.InventoryID]
		if rec != nil && rec.ItemID == nil {
			if err := s.inventories.SetBaseline(ctx, rec.ID, lot.ID); err != nil {
				return fmt.Errorf("set baseline: %w", err)
			}
			rec.ItemID = id.Ptr(lot.ID)
		}
	}

	for _, invID := range order {
		if err := s.inventories.AdjustQuantity(ctx, invID, deltas[invID]); err != nil {
			return fmt.Errorf("adjust quantity: %w", err)
		}
	}
	return nil
}

// Activate moves a pending receipt to active.
func (s *Service) Activate(ctx context.Context, docID id.ID) (*inventory.Receipt, error) {
	var doc *inventory.Receipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return normalizeGetErr(err, docID)
		}
		if doc.Status != inventory.ReceiptPending {
			return apperror.NewInvariantViolation(
				fmt.Sprintf("only pending receipts can be activated, receipt is %s", doc.Status),
			).WithDetail("receipt_id", docID.String()).WithDetail("status", string(doc.Status))
		}

		lots, err := s.repo.ListItems(ctx, docID)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}

		records := make(map[id.ID]*inventory.Record)
		for _, lot := range lots {
			if _, ok := records[lot.InventoryID]; ok {
				continue
			}
			rec, err := s.inventories.GetForUpdate(ctx, lot.InventoryID)
			if err != nil {
				return fmt.Errorf("lock inventory: %w", err)
			}
			records[rec.ID] = rec
		}

		if err := s.repo.SetStatus(ctx, docID, inventory.ReceiptActive); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		if err := s.applyActive(ctx, records, lots); err != nil {
			return err
		}

		doc.Status = inventory.ReceiptActive
		doc.Items = lots
		return s.audit.Record(ctx, audit.NewEntry(ctx, audit.EntityReceipt, docID, audit.ActionActivate, map[string]any{
			"status": audit.Change(inventory.ReceiptPending, inventory.ReceiptActive),
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "receipt activated", "id", docID)
	return doc, nil
}

// Get retrieves a receipt with its lots.
func (s *Service) Get(ctx context.Context, docID id.ID) (*inventory.Receipt, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, normalizeGetErr(err, docID)
	}
	lots, err := s.repo.ListItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	doc.Items = lots
	return doc, nil
}

func normalizeGetErr(err error, docID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("receipt", docID.String())
	}
	return err
}
