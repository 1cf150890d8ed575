package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus represents the processing status of a video.
type ProcessingStatus string

const (
	StatusQueued     ProcessingStatus = "queued"
	StatusUploading  ProcessingStatus = "uploading"
	StatusProcessing ProcessingStatus = "processing"
	StatusReady      ProcessingStatus = "ready"
	StatusError      ProcessingStatus = "error"
	StatusDeleted    ProcessingStatus = "deleted"
)

// IsValid returns true if the status is a known ProcessingStatus.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusQueued, StatusUploading, StatusProcessing, StatusReady, StatusError, StatusDeleted:
		return true
	}
	return false
}

// IsInFlight returns true if the status is not yet terminal, i.e. a webhook
// or sweep is still expected to move it forward.
func (s ProcessingStatus) IsInFlight() bool {
	return s == StatusUploading || s == StatusProcessing
}

// IsTerminal returns true if no further automatic transition is expected.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusError || s == StatusDeleted
}

// VideoRecord is the local row of truth for a video asset.
type VideoRecord struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	RemoteAssetID    *string          `json:"remote_asset_id,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	IsPublished      bool             `json:"is_published"`
	DurationSeconds  *float64         `json:"duration_seconds,omitempty"`
	Width            *int             `json:"width,omitempty"`
	Height           *int             `json:"height,omitempty"`
	PlaybackURL      *string          `json:"playback_url,omitempty"`
	ThumbnailURL     *string          `json:"thumbnail_url,omitempty"`
	PreviewURL       *string          `json:"preview_url,omitempty"`
	SizeBytes        *int64           `json:"size_bytes,omitempty"`
	ErrorCode        *string          `json:"error_code,omitempty"`
	ErrorMessage     *string          `json:"error_message,omitempty"`
	RetryCount       int              `json:"retry_count"`
	LastRetryAt      *time.Time       `json:"last_retry_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// MetadataPatch carries the metadata fields extracted from an event. Nil
// fields are left untouched on the record, not nulled.
type MetadataPatch struct {
	DurationSeconds *float64
	Width           *int
	Height          *int
	PlaybackURL     *string
	ThumbnailURL    *string
	PreviewURL      *string
	SizeBytes       *int64
}

// IsZero returns true if the patch carries no fields.
func (p MetadataPatch) IsZero() bool {
	return p.DurationSeconds == nil && p.Width == nil && p.Height == nil &&
		p.PlaybackURL == nil && p.ThumbnailURL == nil && p.PreviewURL == nil &&
		p.SizeBytes == nil
}

// ErrorInfo carries error details from a failed-processing event.
type ErrorInfo struct {
	Code    string
	Message string
}

// Transition is a mapped status change ready to be applied to a VideoRecord.
// It is produced by the status mapper and consumed only by the video
// repository, so both ingestion paths share one application semantics.
type Transition struct {
	Status   ProcessingStatus
	Publish  bool
	Metadata MetadataPatch
	Error    *ErrorInfo
	// Recognized is false when the source event type was not part of the
	// closed enumeration and the safe default was used.
	Recognized bool
}

// WebhookLogEntry is an append-only audit record for an inbound event. It is
// never updated or deleted by this service.
type WebhookLogEntry struct {
	ID            uuid.UUID       `json:"id"`
	Source        string          `json:"source"`
	EventID       *string         `json:"event_id,omitempty"`
	EventType     *string         `json:"event_type,omitempty"`
	RemoteAssetID *string         `json:"remote_asset_id,omitempty"`
	Success       bool            `json:"success"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NotificationKind represents the terminal outcome a notification reports.
type NotificationKind string

const (
	NotificationVideoReady NotificationKind = "video_ready"
	NotificationVideoError NotificationKind = "video_error"
)

// Notification is one admin-facing notification row.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	VideoID     string           `json:"video_id"`
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"created_at"`
}
