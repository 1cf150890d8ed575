// Package event defines the inbound webhook payload shape and the closed
// enumeration of lifecycle event types emitted by the streaming platform.
package event

import (
	"encoding/json"
	"errors"
	"time"
)

// Type represents the type of a remote lifecycle event.
type Type string

const (
	TypeUploadComplete    Type = "video.upload.complete"
	TypeProcessingStarted Type = "video.processing.started"
	TypeReady             Type = "video.ready"
	TypeProcessingFailed  Type = "video.processing.failed"
	TypeDeleted           Type = "video.deleted"
)

// IsKnown returns true if the type is part of the closed enumeration.
// Unknown types are still accepted but mapped to a safe default.
func (t Type) IsKnown() bool {
	switch t {
	case TypeUploadComplete, TypeProcessingStarted, TypeReady, TypeProcessingFailed, TypeDeleted:
		return true
	}
	return false
}

// RemoteEvent is an inbound webhook payload. It is constructed once per
// request and never persisted beyond the audit log.
type RemoteEvent struct {
	EventID       string    `json:"event_id"`
	EventType     Type      `json:"event_type"`
	RemoteAssetID string    `json:"remote_asset_id"`
	Timestamp     time.Time `json:"timestamp,omitzero"`

	// Success metadata, present on ready events.
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	Width           *int     `json:"width,omitempty"`
	Height          *int     `json:"height,omitempty"`
	PlaybackURL     *string  `json:"playback_url,omitempty"`
	ThumbnailURL    *string  `json:"thumbnail_url,omitempty"`
	PreviewURL      *string  `json:"preview_url,omitempty"`
	SizeBytes       *int64   `json:"size_bytes,omitempty"`

	// Failure metadata, present on processing-failed events.
	ErrorCode    *string `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

var (
	ErrMissingEventType     = errors.New("event is missing event_type")
	ErrMissingRemoteAssetID = errors.New("event is missing remote_asset_id")
)

// Parse decodes a raw webhook body into a RemoteEvent and validates the
// required correlation fields.
func Parse(body []byte) (*RemoteEvent, error) {
	var ev RemoteEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	if ev.EventType == "" {
		return &ev, ErrMissingEventType
	}
	if ev.RemoteAssetID == "" {
		return &ev, ErrMissingRemoteAssetID
	}
	return &ev, nil
}
