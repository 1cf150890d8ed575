// Package notify fires admin notifications for terminal video outcomes.
// Notification is best-effort: a failure here is logged and never rolls back
// or retries the state transition that already succeeded.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/holoreel/video-sync/internal/db"
	"github.com/holoreel/video-sync/internal/log"
)

// Store is the notification persistence consumed by the notifier.
type Store interface {
	AdminRecipients(ctx context.Context) ([]uuid.UUID, error)
	CreateForRecipients(ctx context.Context, recipients []uuid.UUID, videoID string, kind db.NotificationKind, message string) error
}

// Notifier writes at most one notification batch per (video, terminal
// outcome) pair.
type Notifier struct {
	store Store
}

// NewNotifier creates a new notifier.
func NewNotifier(store Store) *Notifier {
	return &Notifier{store: store}
}

// NotifyTransition fires notifications for a completed transition. Only the
// terminal outcomes ready and error notify, and only when the prior status
// differed from the new one — an event replay that lands on the same status
// must not produce a second notification.
func (n *Notifier) NotifyTransition(ctx context.Context, video *db.VideoRecord, priorStatus db.ProcessingStatus) {
	var kind db.NotificationKind
	var message string

	switch video.ProcessingStatus {
	case db.StatusReady:
		kind = db.NotificationVideoReady
		message = fmt.Sprintf("Video %q is ready for playback", video.Title)
	case db.StatusError:
		kind = db.NotificationVideoError
		message = fmt.Sprintf("Video %q failed processing", video.Title)
		if video.ErrorMessage != nil {
			message = fmt.Sprintf("Video %q failed processing: %s", video.Title, *video.ErrorMessage)
		}
	default:
		return
	}

	if priorStatus == video.ProcessingStatus {
		log.Debug("notification suppressed for replayed transition",
			zap.String("video_id", video.ID),
			zap.String("status", string(video.ProcessingStatus)),
		)
		return
	}

	recipients, err := n.store.AdminRecipients(ctx)
	if err != nil {
		log.Error("failed to query notification recipients",
			zap.String("video_id", video.ID),
			zap.Error(err),
		)
		return
	}

	if err := n.store.CreateForRecipients(ctx, recipients, video.ID, kind, message); err != nil {
		log.Error("failed to create notifications",
			zap.String("video_id", video.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return
	}

	log.Info("admin notifications created",
		zap.String("video_id", video.ID),
		zap.String("kind", string(kind)),
		zap.Int("recipients", len(recipients)),
	)
}
