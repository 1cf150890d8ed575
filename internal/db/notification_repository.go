package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationRepository writes admin notification rows.
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// AdminRecipients returns the ids of all privileged accounts that receive
// terminal-outcome notifications.
func (r *NotificationRepository) AdminRecipients(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id FROM admin_users WHERE is_admin ORDER BY email
	`)
	if err != nil {
		return nil, fmt.Errorf("query admin recipients: %w", err)
	}
	defer rows.Close()

	var recipients []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin recipient: %w", err)
		}
		recipients = append(recipients, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin recipients: %w", err)
	}

	return recipients, nil
}

// CreateForRecipients inserts one notification row per recipient in a single
// transaction, so a partially written batch never survives.
func (r *NotificationRepository) CreateForRecipients(ctx context.Context, recipients []uuid.UUID, videoID string, kind NotificationKind, message string) error {
	if len(recipients) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for _, recipient := range recipients {
		_, err := tx.Exec(ctx, `
			INSERT INTO notifications (id, recipient_id, video_id, kind, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.Must(uuid.NewV7()), recipient, videoID, kind, message, now)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit notifications: %w", err)
	}

	return nil
}
