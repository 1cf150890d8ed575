package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WebhookLogRepository appends audit records for inbound events. Entries are
// write-once; nothing in this service updates or deletes them.
type WebhookLogRepository struct {
	db *DB
}

// NewWebhookLogRepository creates a new webhook log repository.
func NewWebhookLogRepository(db *DB) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

// Create appends an audit log entry.
func (r *WebhookLogRepository) Create(ctx context.Context, entry *WebhookLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.Must(uuid.NewV7())
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO webhook_logs (id, source, event_id, event_type, remote_asset_id, success, error_message, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID, entry.Source, entry.EventID, entry.EventType, entry.RemoteAssetID,
		entry.Success, entry.ErrorMessage, entry.Payload, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert webhook_log: %w", err)
	}

	return nil
}

// ListLogsParams contains parameters for listing log entries.
type ListLogsParams struct {
	Limit  int
	Offset int
}

// ListByRemoteAssetID retrieves audit entries for a remote asset with
// pagination, newest first.
func (r *WebhookLogRepository) ListByRemoteAssetID(ctx context.Context, remoteAssetID string, params ListLogsParams) ([]*WebhookLogEntry, int, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	var total int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM webhook_logs WHERE remote_asset_id = $1
	`, remoteAssetID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count webhook_logs: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, source, event_id, event_type, remote_asset_id, success, error_message, payload, created_at
		FROM webhook_logs
		WHERE remote_asset_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, remoteAssetID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query webhook_logs: %w", err)
	}
	defer rows.Close()

	var entries []*WebhookLogEntry
	for rows.Next() {
		var entry WebhookLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Source,
			&entry.EventID,
			&entry.EventType,
			&entry.RemoteAssetID,
			&entry.Success,
			&entry.ErrorMessage,
			&entry.Payload,
			&entry.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan webhook_log: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate webhook_logs: %w", err)
	}

	return entries, total, nil
}
