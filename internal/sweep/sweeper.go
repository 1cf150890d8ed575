// Package sweep is the pull-based fallback for lost webhooks: it asks the
// remote platform directly for the status of every in-flight video and
// repairs local state through the same mapper and gateway as the push path.
package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/holoreel/video-sync/internal/db"
	"github.com/holoreel/video-sync/internal/log"
	"github.com/holoreel/video-sync/internal/mapper"
	"github.com/holoreel/video-sync/internal/stream"
)

// VideoStore is the record store surface consumed by the sweeper.
type VideoStore interface {
	ListInFlight(ctx context.Context) ([]*db.VideoRecord, error)
	GetByID(ctx context.Context, id string) (*db.VideoRecord, error)
}

// StatusClient queries the remote platform for asset status.
type StatusClient interface {
	GetStatus(ctx context.Context, remoteAssetID string) (*stream.AssetStatus, error)
}

// Applier applies a mapped transition (the shared ingest processor).
type Applier interface {
	Apply(ctx context.Context, video *db.VideoRecord, tr db.Transition) (*db.VideoRecord, error)
}

// Detail describes the reconciliation outcome for one video.
type Detail struct {
	VideoID      string              `json:"video_id"`
	OldStatus    db.ProcessingStatus `json:"old_status"`
	NewStatus    db.ProcessingStatus `json:"new_status,omitempty"`
	RemoteStatus string              `json:"remote_status,omitempty"`
	Updated      bool                `json:"updated"`
	Error        string              `json:"error,omitempty"`

	missingRemote bool
}

// Summary is the contract surface for operational visibility: counts plus a
// per-video detail list, stable enough to assert on.
type Summary struct {
	Checked         int       `json:"checked"`
	Updated         int       `json:"updated"`
	Errored         int       `json:"errored"`
	MissingRemoteID int       `json:"missing_remote_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Details         []Detail  `json:"details"`
}

// Sweeper reconciles in-flight videos against the remote platform.
type Sweeper struct {
	videos  VideoStore
	remote  StatusClient
	applier Applier
}

// NewSweeper creates a new sweeper.
func NewSweeper(videos VideoStore, remote StatusClient, applier Applier) *Sweeper {
	return &Sweeper{
		videos:  videos,
		remote:  remote,
		applier: applier,
	}
}

// Run sweeps the full in-flight set. Records are processed sequentially to
// bound load on the remote platform, and one record's failure never aborts
// the sweep of the rest.
func (s *Sweeper) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{StartedAt: time.Now()}

	videos, err := s.videos.ListInFlight(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("starting reconciliation sweep", zap.Int("in_flight", len(videos)))

	for _, video := range videos {
		detail := s.sweepRecord(ctx, video)
		summary.add(detail)
	}

	summary.FinishedAt = time.Now()

	log.Info("reconciliation sweep completed",
		zap.Int("checked", summary.Checked),
		zap.Int("updated", summary.Updated),
		zap.Int("errored", summary.Errored),
		zap.Int("missing_remote_id", summary.MissingRemoteID),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)

	return summary, nil
}

// SweepOne reconciles a single video on demand, regardless of whether it is
// currently in flight. Returns db.ErrVideoNotFound if the id is unknown.
func (s *Sweeper) SweepOne(ctx context.Context, videoID string) (*Detail, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	detail := s.sweepRecord(ctx, video)
	return &detail, nil
}

// RunPeriodic runs a sweep on a fixed interval until the context is
// cancelled.
func (s *Sweeper) RunPeriodic(ctx context.Context, interval time.Duration) {
	log.Info("starting periodic reconciliation sweep", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("periodic reconciliation sweep stopped")
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				log.Error("periodic reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) sweepRecord(ctx context.Context, video *db.VideoRecord) Detail {
	detail := Detail{
		VideoID:   video.ID,
		OldStatus: video.ProcessingStatus,
		NewStatus: video.ProcessingStatus,
	}

	// A record with no remote asset id was never uploaded; it cannot be
	// reconciled and is reported as an anomaly rather than silently skipped.
	if video.RemoteAssetID == nil || *video.RemoteAssetID == "" {
		detail.Error = "missing remote asset id"
		detail.missingRemote = true
		log.Warn("in-flight video has no remote asset id",
			zap.String("video_id", video.ID),
			zap.String("status", string(video.ProcessingStatus)),
		)
		return detail
	}

	status, err := s.remote.GetStatus(ctx, *video.RemoteAssetID)
	if err != nil {
		detail.Error = err.Error()
		log.Warn("remote status query failed",
			zap.String("video_id", video.ID),
			zap.String("remote_asset_id", *video.RemoteAssetID),
			zap.Error(err),
		)
		return detail
	}
	detail.RemoteStatus = string(status.State)

	tr, apply := mapper.MapAssetStatus(status)
	if !apply {
		// Still processing remotely; nothing to repair.
		return detail
	}

	updated, err := s.applier.Apply(ctx, video, tr)
	if err != nil {
		detail.Error = err.Error()
		return detail
	}

	detail.NewStatus = updated.ProcessingStatus
	detail.Updated = updated.ProcessingStatus != video.ProcessingStatus ||
		updated.IsPublished != video.IsPublished

	if detail.Updated {
		log.Info("video repaired by reconciliation sweep",
			zap.String("video_id", video.ID),
			zap.String("old_status", string(video.ProcessingStatus)),
			zap.String("new_status", string(updated.ProcessingStatus)),
		)
	}

	return detail
}

func (s *Summary) add(detail Detail) {
	s.Details = append(s.Details, detail)

	switch {
	case detail.missingRemote:
		s.MissingRemoteID++
	case detail.Error != "":
		s.Errored++
	default:
		s.Checked++
		if detail.Updated {
			s.Updated++
		}
	}
}
