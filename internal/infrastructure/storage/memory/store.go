// Package memory is an in-process storage backend. It implements every
// repository and the reconcile source on top of plain maps, with
// transactions that restore the previous state on error.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain/audit"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/reconcile"
)

var (
	_ tx.Manager         = (*Store)(nil)
	_ tx.ReadOnlyManager = (*Store)(nil)
)

type state struct {
	inventories map[id.ID]inventory.Record
	receipts    map[id.ID]inventory.Receipt
	issuances   map[id.ID]inventory.Issuance

	items    []inventory.Item
	details  []inventory.IssuanceDetail
	returned []inventory.ReturnedItem
	ledger   []entity.Transaction
	outbox   []reconcile.LowStock
	audit    []audit.Entry
}

func newState() *state {
	return &state{
		inventories: make(map[id.ID]inventory.Record),
		receipts:    make(map[id.ID]inventory.Receipt),
		issuances:   make(map[id.ID]inventory.Issuance),
	}
}

func (s *state) clone() *state {
	return &state{
		inventories: maps.Clone(s.inventories),
		receipts:    maps.Clone(s.receipts),
		issuances:   maps.Clone(s.issuances),
		items:       slices.Clone(s.items),
		details:     slices.Clone(s.details),
		returned:    slices.Clone(s.returned),
		ledger:      slices.Clone(s.ledger),
		outbox:      slices.Clone(s.outbox),
		audit:       slices.Clone(s.audit),
	}
}

// Store holds all data in memory. Transactions are serialized, so a
// GetForUpdate inside one behaves like a row lock.
type Store struct {
	txMu sync.Mutex

	mu     sync.RWMutex
	st     *state
	faults map[string]error
}

// New creates an empty store.
func New() *Store {
	return &Store{st: newState(), faults: make(map[string]error)}
}

// FailOn makes the named operation (e.g. "ledger.append") return err until cleared with nil.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	return s.faults[op]
}

// RunInTransaction runs fn and restores the prior state if it fails.
// Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx.InTransaction(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	backup := s.st.clone()
	s.mu.Unlock()

	restore := func() {
		s.mu.Lock()
		s.st = backup
		s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	if err := fn(tx.WithActive(ctx)); err != nil {
		restore()
		return err
	}
	return nil
}

// ReadOnly runs fn in a transaction.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunInTransaction(ctx, fn)
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Inventories returns the inventory record repository.
func (s *Store) Inventories() inventory.Repository { return inventoryRepo{s} }

// Items returns the lot repository.
func (s *Store) Items() inventory.ItemRepository { return itemRepo{s} }

// Ledger returns the transaction ledger repository.
func (s *Store) Ledger() inventory.LedgerRepository { return ledgerRepo{s} }

// Source returns the reconcile data source.
func (s *Store) Source() reconcile.Source { return source{s} }

// NotifyLowStock records the event in the in-memory outbox.
func (s *Store) NotifyLowStock(ctx context.Context, event reconcile.LowStock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("outbox.notify"); err != nil {
		return err
	}
	s.st.outbox = append(s.st.outbox, event)
	return nil
}

// Notifications returns the recorded low-stock events.
func (s *Store) Notifications() []reconcile.LowStock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.outbox)
}

// Audit returns the audit log.
func (s *Store) Audit() audit.Log { return auditLog{s} }

type auditLog struct{ s *Store }

func (l auditLog) Record(ctx context.Context, entry audit.Entry) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if err := l.s.fault("audit.record"); err != nil {
		return err
	}
	l.s.st.audit = append(l.s.st.audit, entry)
	return nil
}

func (l auditLog) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	var out []audit.Entry
	for i := len(l.s.st.audit) - 1; i >= 0; i-- {
		e := l.s.st.audit[i]
		if e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
