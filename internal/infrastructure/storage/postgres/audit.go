package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm of stored changes.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// defaultCompressThreshold is the size of a changes document above which it is compressed.
const defaultCompressThreshold = 10 * 1024

// AuditService stores audit entries in sys_audit. Large change sets are
// zstd-compressed into changes_compressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Log = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// auditRow is the stored form of an audit.Entry.
type auditRow struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            audit.Action    `db:"action"`
	RequestID         string          `db:"request_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// encode marshals the changes of entry, compressing them above the threshold.
func (s *AuditService) encode(entry audit.Entry) (auditRow, error) {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return auditRow{}, fmt.Errorf("marshal changes: %w", err)
	}
	row := auditRow{
		ID:              entry.ID,
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		Action:          entry.Action,
		RequestID:       entry.RequestID,
		Changes:         changes,
		CompressionAlgo: CompressionNone,
		CreatedAt:       entry.CreatedAt,
	}
	if len(changes) > s.compressThreshold {
		row.ChangesCompressed = s.encoder.EncodeAll(changes, nil)
		row.Changes = nil
		row.CompressionAlgo = CompressionZstd
	}
	return row, nil
}

// decode restores an entry, decompressing its changes when needed.
func (s *AuditService) decode(row auditRow) (audit.Entry, error) {
	changes := []byte(row.Changes)
	if row.CompressionAlgo == CompressionZstd && len(row.ChangesCompressed) > 0 {
		var err error
		changes, err = s.decoder.DecodeAll(row.ChangesCompressed, nil)
		if err != nil {
			return audit.Entry{}, fmt.Errorf("decompress changes: %w", err)
		}
	}
	entry := audit.Entry{
		ID:         row.ID,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		Action:     row.Action,
		RequestID:  row.RequestID,
		CreatedAt:  row.CreatedAt,
	}
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &entry.Changes); err != nil {
			return audit.Entry{}, fmt.Errorf("unmarshal changes: %w", err)
		}
	}
	return entry, nil
}

// Record implements audit.Recorder.
func (s *AuditService) Record(ctx context.Context, entry audit.Entry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	row, err := s.encode(entry)
	if err != nil {
		return err
	}

	sql, args, err := Builder().
		Insert("sys_audit").
		SetMap(StructToMap(row)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History implements audit.Reader.
func (s *AuditService) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	q := Builder().
		Select(ExtractDBColumns[auditRow]()...).
		From("sys_audit").
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	var rows []auditRow
	if err := Select(ctx, s.txManager.GetQuerier(ctx), &rows, q); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	out := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
