package event

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	body := []byte(`{
		"event_id": "evt-001",
		"event_type": "video.ready",
		"remote_asset_id": "abc123",
		"timestamp": "2026-01-15T10:30:00Z",
		"duration_seconds": 125.4,
		"width": 1920,
		"height": 1080,
		"playback_url": "https://cdn.example.com/abc123/master.m3u8"
	}`)

	ev, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if ev.EventID != "evt-001" {
		t.Errorf("EventID = %v, want evt-001", ev.EventID)
	}
	if ev.EventType != TypeReady {
		t.Errorf("EventType = %v, want %v", ev.EventType, TypeReady)
	}
	if ev.RemoteAssetID != "abc123" {
		t.Errorf("RemoteAssetID = %v, want abc123", ev.RemoteAssetID)
	}
	if ev.DurationSeconds == nil || *ev.DurationSeconds != 125.4 {
		t.Errorf("DurationSeconds = %v, want 125.4", ev.DurationSeconds)
	}
	if ev.Width == nil || *ev.Width != 1920 {
		t.Errorf("Width = %v, want 1920", ev.Width)
	}
	if ev.ErrorCode != nil {
		t.Errorf("ErrorCode = %v, want nil", ev.ErrorCode)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name: "missing event_type",
			body: `{"event_id":"evt-1","remote_asset_id":"abc123"}`,
			wantErr: ErrMissingEventType,
		},
		{
			name: "missing remote_asset_id",
			body: `{"event_id":"evt-1","event_type":"video.ready"}`,
			wantErr: ErrMissingRemoteAssetID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Error("Parse(not json) error = nil, want error")
	}
}

func TestTypeIsKnown(t *testing.T) {
	known := []Type{TypeUploadComplete, TypeProcessingStarted, TypeReady, TypeProcessingFailed, TypeDeleted}
	for _, typ := range known {
		if !typ.IsKnown() {
			t.Errorf("IsKnown(%v) = false, want true", typ)
		}
	}

	unknown := []Type{"", "video.transcoded", "asset.archived"}
	for _, typ := range unknown {
		if typ.IsKnown() {
			t.Errorf("IsKnown(%v) = true, want false", typ)
		}
	}
}
