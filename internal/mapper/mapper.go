// Package mapper centralizes the translation from remote platform state to
// local status transitions. Both ingestion paths (webhook push and
// reconciliation pull) go through this package, so the transition table
// exists in exactly one place. All functions are pure: no I/O, no clock.
package mapper

import (
	"math"

	"github.com/holoreel/video-sync/internal/db"
	"github.com/holoreel/video-sync/internal/event"
	"github.com/holoreel/video-sync/internal/stream"
)

// MapEvent maps a remote lifecycle event to a local status transition.
//
//	upload-complete     -> processing
//	processing-started  -> processing
//	ready               -> ready, published, metadata extracted
//	processing-failed   -> error, error info captured
//	deleted             -> deleted
//	anything else       -> queued (safe default, Recognized=false)
func MapEvent(ev *event.RemoteEvent) db.Transition {
	switch ev.EventType {
	case event.TypeUploadComplete, event.TypeProcessingStarted:
		return db.Transition{
			Status:     db.StatusProcessing,
			Recognized: true,
		}
	case event.TypeReady:
		return db.Transition{
			Status:     db.StatusReady,
			Publish:    true,
			Metadata:   metadataFromEvent(ev),
			Recognized: true,
		}
	case event.TypeProcessingFailed:
		return db.Transition{
			Status:     db.StatusError,
			Error:      errorFromEvent(ev),
			Recognized: true,
		}
	case event.TypeDeleted:
		return db.Transition{
			Status:     db.StatusDeleted,
			Recognized: true,
		}
	default:
		return db.Transition{
			Status:     db.StatusQueued,
			Recognized: false,
		}
	}
}

// MapAssetStatus maps a direct platform status query to a transition, using
// the same table as MapEvent. The second return value is false when the
// asset is still processing and no transition should be applied.
func MapAssetStatus(status *stream.AssetStatus) (db.Transition, bool) {
	switch status.State {
	case stream.StateReady:
		return db.Transition{
			Status:  db.StatusReady,
			Publish: true,
			Metadata: db.MetadataPatch{
				DurationSeconds: truncateDuration(status.DurationSeconds),
				Width:           status.Width,
				Height:          status.Height,
				PlaybackURL:     status.PlaybackURL,
				ThumbnailURL:    status.ThumbnailURL,
				PreviewURL:      status.PreviewURL,
				SizeBytes:       status.SizeBytes,
			},
			Recognized: true,
		}, true
	case stream.StateError:
		info := &db.ErrorInfo{Code: "remote_error", Message: "processing failed on remote platform"}
		if status.ErrorCode != nil {
			info.Code = *status.ErrorCode
		}
		if status.ErrorMessage != nil {
			info.Message = *status.ErrorMessage
		}
		return db.Transition{
			Status:     db.StatusError,
			Error:      info,
			Recognized: true,
		}, true
	default:
		return db.Transition{}, false
	}
}

// Platforms report durations with sub-second precision; records keep whole
// seconds.
func truncateDuration(d *float64) *float64 {
	if d == nil {
		return nil
	}
	whole := math.Trunc(*d)
	return &whole
}

func metadataFromEvent(ev *event.RemoteEvent) db.MetadataPatch {
	return db.MetadataPatch{
		DurationSeconds: truncateDuration(ev.DurationSeconds),
		Width:           ev.Width,
		Height:          ev.Height,
		PlaybackURL:     ev.PlaybackURL,
		ThumbnailURL:    ev.ThumbnailURL,
		PreviewURL:      ev.PreviewURL,
		SizeBytes:       ev.SizeBytes,
	}
}

func errorFromEvent(ev *event.RemoteEvent) *db.ErrorInfo {
	info := &db.ErrorInfo{Code: "processing_failed", Message: "video processing failed"}
	if ev.ErrorCode != nil {
		info.Code = *ev.ErrorCode
	}
	if ev.ErrorMessage != nil {
		info.Message = *ev.ErrorMessage
	}
	return info
}
