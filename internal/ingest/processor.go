// Package ingest applies mapped status transitions to video records. It is
// the single convergence point for the webhook push path and the
// reconciliation pull path.
package ingest

import (
	"context"

	"github.com/holoreel/video-sync/internal/db"
	"github.com/holoreel/video-sync/internal/retry"
)

// VideoStore is the record store gateway surface consumed by the processor.
type VideoStore interface {
	ApplyTransition(ctx context.Context, video *db.VideoRecord, tr db.Transition) (*db.VideoRecord, error)
}

// Notifier fires best-effort notifications after a successful transition.
type Notifier interface {
	NotifyTransition(ctx context.Context, video *db.VideoRecord, priorStatus db.ProcessingStatus)
}

// Processor runs the store mutation through the retrying executor and then
// notifies. Side effects are strictly ordered: the row update always precedes
// notification, and a notification failure never surfaces past its own log.
type Processor struct {
	videos   VideoStore
	notifier Notifier
	executor *retry.Executor
}

// NewProcessor creates a new transition processor.
func NewProcessor(videos VideoStore, notifier Notifier, executor *retry.Executor) *Processor {
	return &Processor{
		videos:   videos,
		notifier: notifier,
		executor: executor,
	}
}

// Apply applies a transition to a video record with retries. On exhaustion
// the final store error is returned and the record keeps its last-known-good
// state; nothing is partially committed.
func (p *Processor) Apply(ctx context.Context, video *db.VideoRecord, tr db.Transition) (*db.VideoRecord, error) {
	priorStatus := video.ProcessingStatus

	var updated *db.VideoRecord
	err := p.executor.Do(ctx, "apply_transition", func() error {
		u, err := p.videos.ApplyTransition(ctx, video, tr)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.notifier != nil {
		p.notifier.NotifyTransition(ctx, updated, priorStatus)
	}

	return updated, nil
}
