// Package audit records the history of inventory documents and records.
package audit

import (
	"context"
	"reflect"
	"time"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionActivate Action = "activate"
	ActionStatus   Action = "status_change"
	ActionArchive  Action = "archive"
	ActionReturn   Action = "return"
)

// Entity types.
const (
	EntityInventory      = "inventory"
	EntityReceipt        = "receipt"
	EntityIssuance       = "issuance"
	EntityIssuanceDetail = "issuance_detail"
)

// Entry is a single audit log entry.
type Entry struct {
	ID         id.ID          `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   id.ID          `json:"entityId"`
	Action     Action         `json:"action"`
	Changes    map[string]any `json:"changes"`
	RequestID  string         `json:"requestId,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// NewEntry creates an entry stamped with the request id carried by ctx.
func NewEntry(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) Entry {
	return Entry{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		RequestID:  appctx.GetRequestID(ctx),
		CreatedAt:  time.Now().UTC(),
	}
}

// Recorder appends entries. Implementations write inside the caller's
// transaction so an entry commits or rolls back with the change it describes.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Reader returns the history of one entity, newest first.
type Reader interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Log is a Recorder that can also be read back.
type Log interface {
	Recorder
	Reader
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// Change describes one field moving from old to new.
func Change(old, new any) map[string]any {
	return map[string]any{"old": old, "new": new}
}

// Diff calculates the difference between old and new entity states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = Change(nil, newVal)
		} else if !reflect.DeepEqual(oldVal, newVal) {
			changes[key] = Change(oldVal, newVal)
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = Change(oldVal, nil)
		}
	}

	return changes
}
