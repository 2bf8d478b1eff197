package inventory

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain/audit"
	"stockroom/pkg/logger"
)

// Service provides business operations for inventory records.
type Service struct {
	repo      Repository
	audit     audit.Recorder
	txManager tx.Manager
}

// NewService creates a new inventory service.
func NewService(repo Repository, recorder audit.Recorder, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		audit:     audit.OrNop(recorder),
		txManager: txManager,
	}
}

// Create registers a new inventory record.
func (s *Service) Create(ctx context.Context, name, unit string, sizeType SizeType) (*Record, error) {
	rec := NewRecord(name, unit, sizeType)
	if err := rec.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("create inventory: %w", err)
		}
		return s.audit.Record(ctx, audit.NewEntry(ctx, audit.EntityInventory, rec.ID, audit.ActionCreate, map[string]any{
			"name":     rec.Name,
			"unit":     rec.Unit,
			"sizeType": rec.SizeType,
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory created", "id", rec.ID, "name", rec.Name)
	return rec, nil
}

// Get retrieves an inventory record.
func (s *Service) Get(ctx context.Context, recID id.ID) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, recID)
	if err != nil {
		return nil, normalizeGetErr(err, recID)
	}
	return rec, nil
}

// Archive soft-deletes an inventory record. Archiving twice is a no-op.
func (s *Service) Archive(ctx context.Context, recID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetForUpdate(ctx, recID)
		if err != nil {
			return normalizeGetErr(err, recID)
		}
		if rec.IsArchived() {
			return nil
		}
		if err := s.repo.SetStatus(ctx, recID, StatusArchived); err != nil {
			return fmt.Errorf("archive inventory: %w", err)
		}
		if err := s.audit.Record(ctx, audit.NewEntry(ctx, audit.EntityInventory, recID, audit.ActionArchive, map[string]any{
			"status": audit.Change(rec.Status, StatusArchived),
		})); err != nil {
			return err
		}
		logger.Info(ctx, "inventory archived", "id", recID)
		return nil
	})
}

func normalizeGetErr(err error, recID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("inventory", recID.String())
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", "inventory").WithDetail("id", recID.String())
}
