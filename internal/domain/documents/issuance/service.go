package issuance

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain/audit"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
	"stockroom/pkg/logger"
)

// Service provides business operations for issuance documents.
type Service struct {
	repo        Repository
	inventories inventory.Repository
	items       inventory.ItemRepository
	ledger      inventory.LedgerRepository
	reconciler  Reconciler
	audit       audit.Recorder
	txManager   tx.Manager
}

// NewService creates a new issuance service.
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

// Create issues every line or none of them. Each line locks its inventory,
// reconciles it inside the transaction and fails with InsufficientStock
// when the size cannot cover the request.
func (s *Service) Create(ctx context.Context, in CreateInput) (*inventory.Issuance, error) {
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	status := inventory.IssuancePending
	if in.Withdraw {
		status = inventory.IssuanceWithdrawn
	}
	doc := &inventory.Issuance{
		Document: entity.NewDocument(in.Directive),
		EndUser:  in.EndUser,
		Status:   status,
	}

	var touched []id.ID
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create issuance: %w", err)
		}

		seen := make(map[id.ID]bool)
		for _, line := range in.Lines {
			detail, err := s.issueLine(ctx, doc, line, status)
			if err != nil {
				return err
			}
			doc.Details = append(doc.Details, *detail)
			if !seen[line.InventoryID] {
				seen[line.InventoryID] = true
				touched = append(touched, line.InventoryID)
			}
		}

		if status == inventory.IssuanceWithdrawn {
			for _, invID := range touched {
				if _, err := s.reconciler.CheckLowStock(ctx, invID); err != nil {
					return err
				}
			}
		}
		return s.audit.Record(ctx, audit.NewEntry(ctx, audit.EntityIssuance, doc.ID, audit.ActionCreate, map[string]any{
			"directive": doc.Directive,
			"endUser":   doc.EndUser,
			"status":    doc.Status,
			"lines":     len(doc.Details),
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "issuance created",
		"id", doc.ID,
		"directive", doc.Directive,
		"status", doc.Status,
		"lines", len(doc.Details))

	return doc, nil
}

// allocation is the part of a request served by one source lot.
type allocation struct {
	lot      inventory.Item
	quantity int64
}

func (s *Service) issueLine(ctx context.Context, doc *inventory.Issuance, line Line, status inventory.IssuanceStatus) (*inventory.IssuanceDetail, error) {
	rec, err := s.inventories.GetForUpdate(ctx, line.InventoryID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("inventory", line.InventoryID.String())
		}
		return nil, fmt.Errorf("lock inventory: %w", err)
	}
	if rec.IsArchived() {
		return nil, apperror.NewInvariantViolation("cannot issue from an archived inventory").
			WithDetail("inventory_id", rec.ID.String())
	}

	res, err := s.reconciler.Reconcile(ctx, rec.ID, reconcile.Options{})
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", rec.ID, err)
	}

	size := inventory.SizeKey(line.Size)
	available := res.SizeDetails.AvailableFor(size)
	if line.Quantity > available {
		return nil, apperror.NewInsufficientStock(rec.ID.String(), rec.Name, size, line.Quantity, available)
	}

	allocs, err := allocate(res, size, line.Quantity)
	if err != nil {
		return nil, err
	}
	first := allocs[0].lot

	detail := inventory.IssuanceDetail{
		ID:          id.New(),
		IssuanceID:  doc.ID,
		InventoryID: rec.ID,
		ItemID:      first.ID,
		Quantity:    line.Quantity,
		Price:       first.Price,
		Size:        size,
		Status:      status,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.CreatedAt,
	}
	if err := s.repo.CreateDetails(ctx, []inventory.IssuanceDetail{detail}); err != nil {
		return nil, fmt.Errorf("create detail: %w", err)
	}

	derived := inventory.NewItem(rec.ID, rec.Name, line.Quantity, first.Price, size)
	derived.IssuanceDetailID = id.Ptr(detail.ID)
	derived.RefID = id.Ptr(first.ID)
	if err := s.items.CreateItems(ctx, []inventory.Item{derived}); err != nil {
		return nil, fmt.Errorf("create derived item: %w", err)
	}

	txns := make([]entity.Transaction, 0, len(allocs))
	for _, a := range allocs {
		t := entity.NewTransaction(entity.TransactionIssuance, rec.ID, a.lot.ID, a.quantity, a.lot.Price, size)
		t.IssuanceID = id.Ptr(doc.ID)
		t.IssuanceDetailID = id.Ptr(detail.ID)
		txns = append(txns, t)
	}
	if err := s.ledger.Append(ctx, txns); err != nil {
		return nil, fmt.Errorf("append issuance entries: %w", err)
	}

	if status == inventory.IssuanceWithdrawn {
		if err := s.inventories.AdjustQuantity(ctx, rec.ID, -line.Quantity); err != nil {
			return nil, fmt.Errorf("adjust quantity: %w", err)
		}
	}
	return &detail, nil
}

// allocate spreads quantity FIFO over the unconsumed source lots of size.
// Units the ledger cannot place (stock credited by legacy returns) go to
// the last lot touched, or to the baseline when no lot of the size remains.
func allocate(res *reconcile.Result, size string, quantity int64) ([]allocation, error) {
	var (
		out       []allocation
		remaining = quantity
		fallback  *inventory.Item
	)
	for i := range res.Items {
		b := res.Items[i]
		if b.ReceiptPending || (!b.IsSource() && !isBaseline(res.Inventory, b.ID)) {
			continue
		}
		if inventory.SizeKey(b.Size) != size {
			continue
		}
		if fallback == nil {
			fallback = &res.Items[i].Item
		}
		free := b.Allocatable()
		if free <= 0 || remaining == 0 {
			continue
		}
		take := min(free, remaining)
		out = append(out, allocation{lot: b.Item, quantity: take})
		remaining -= take
	}

	if remaining > 0 {
		switch {
		case len(out) > 0:
			out[len(out)-1].quantity += remaining
		case fallback != nil:
			out = append(out, allocation{lot: *fallback, quantity: remaining})
		default:
			return nil, apperror.NewInvariantViolation(
				fmt.Sprintf("no source lot of size %q to issue from", size),
			).WithDetail("inventory_id", res.Inventory.ID.String())
		}
	}
	return out, nil
}

func isBaseline(rec *inventory.Record, itemID id.ID) bool {
	return rec.ItemID != nil && *rec.ItemID == itemID
}

// SetDetailStatus moves a detail through pending <-> withdrawn and into
// archived. Cached quantities follow the stock that physically moved.
func (s *Service) SetDetailStatus(ctx context.Context, detailID id.ID, next inventory.IssuanceStatus) (*inventory.IssuanceDetail, error) {
	if !next.Valid() {
		return nil, apperror.NewValidation("status must be one of pending, withdrawn, archived").
			WithDetail("field", "status")
	}

	var detail *inventory.IssuanceDetail
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		detail, err = s.repo.GetDetailForUpdate(ctx, detailID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("issuance detail", detailID.String())
			}
			return fmt.Errorf("lock detail: %w", err)
		}
		prev := detail.Status
		if prev == next {
			return nil
		}
		if !prev.CanTransitionTo(next) {
			return apperror.NewInvariantViolation(
				fmt.Sprintf("issuance detail cannot move from %s to %s", prev, next),
			).WithDetail("detail_id", detailID.String()).
				WithDetail("status", string(prev))
		}

		if _, err := s.inventories.GetForUpdate(ctx, detail.InventoryID); err != nil {
			return fmt.Errorf("lock inventory: %w", err)
		}
		if err := s.repo.SetDetailStatus(ctx, detailID, next); err != nil {
			return fmt.Errorf("set detail status: %w", err)
		}

		if delta := cacheDelta(prev, next, detail.Quantity); delta != 0 {
			if err := s.inventories.AdjustQuantity(ctx, detail.InventoryID, delta); err != nil {
				return fmt.Errorf("adjust quantity: %w", err)
			}
		}
		detail.Status = next

		if next == inventory.IssuanceWithdrawn {
			if _, err := s.reconciler.CheckLowStock(ctx, detail.InventoryID); err != nil {
				return err
			}
		}
		return s.audit.Record(ctx, audit.NewEntry(ctx, audit.EntityIssuanceDetail, detailID, audit.ActionStatus, map[string]any{
			"status":      audit.Change(prev, next),
			"issuanceId":  detail.IssuanceID,
			"inventoryId": detail.InventoryID,
			"quantity":    detail.Quantity,
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "issuance detail status changed",
		"detail_id", detailID,
		"status", detail.Status)
	return detail, nil
}

// cacheDelta is the change of the cached inventory quantity for a transition.
func cacheDelta(prev, next inventory.IssuanceStatus, qty int64) int64 {
	switch {
	case next == inventory.IssuanceWithdrawn:
		return -qty
	case prev == inventory.IssuanceWithdrawn:
		return qty
	}
	return 0
}

// Archive archives an issuance and all of its details. It is rejected,
// before anything changes, while any detail is withdrawn.
func (s *Service) Archive(ctx context.Context, docID id.ID) (*inventory.Issuance, error) {
	var doc *inventory.Issuance
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return normalizeGetErr(err, docID)
		}
		details, err := s.repo.ListDetails(ctx, docID)
		if err != nil {
			return fmt.Errorf("list details: %w", err)
		}
		doc.Details = details

		if doc.HasWithdrawnDetail() {
			var withdrawn []string
			for _, d := range details {
				if d.Status == inventory.IssuanceWithdrawn {
					withdrawn = append(withdrawn, d.ID.String())
				}
			}
			return apperror.NewInvariantViolation("cannot archive an issuance with withdrawn details").
				WithDetail("issuance_id", docID.String()).
				WithDetail("withdrawn_details", withdrawn)
		}
		if doc.Status == inventory.IssuanceArchived {
			return nil
		}

		if err := s.repo.SetDetailsStatus(ctx, docID, inventory.IssuanceArchived); err != nil {
			return fmt.Errorf("archive details: %w", err)
		}
		if err := s.repo.SetStatus(ctx, docID, inventory.IssuanceArchived); err != nil {
			return fmt.Errorf("archive issuance: %w", err)
		}

		prev := doc.Status
		doc.Status = inventory.IssuanceArchived
		for i := range doc.Details {
			doc.Details[i].Status = inventory.IssuanceArchived
		}
		return s.audit.Record(ctx, audit.NewEntry(ctx, audit.EntityIssuance, docID, audit.ActionArchive, map[string]any{
			"status":  audit.Change(prev, inventory.IssuanceArchived),
			"details": len(doc.Details),
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "issuance archived", "id", docID)
	return doc, nil
}

// Get retrieves an issuance with its details.
func (s *Service) Get(ctx context.Context, docID id.ID) (*inventory.Issuance, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, normalizeGetErr(err, docID)
	}
	details, err := s.repo.ListDetails(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("list details: %w", err)
	}
	doc.Details = details
	return doc, nil
}

func normalizeGetErr(err error, docID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("issuance", docID.String())
	}
	return err
}
