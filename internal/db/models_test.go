package db

import "testing"

func TestProcessingStatusIsValid(t *testing.T) {
	valid := []ProcessingStatus{StatusQueued, StatusUploading, StatusProcessing, StatusReady, StatusError, StatusDeleted}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("IsValid(%v) = false, want true", s)
		}
	}

	invalid := []ProcessingStatus{"", "pending", "READY"}
	for _, s := range invalid {
		if s.IsValid() {
			t.Errorf("IsValid(%v) = true, want false", s)
		}
	}
}

func TestProcessingStatusIsInFlight(t *testing.T) {
	tests := []struct {
		status ProcessingStatus
		want   bool
	}{
		{StatusQueued, false},
		{StatusUploading, true},
		{StatusProcessing, true},
		{StatusReady, false},
		{StatusError, false},
		{StatusDeleted, false},
	}

	for _, tt := range tests {
		if got := tt.status.IsInFlight(); got != tt.want {
			t.Errorf("IsInFlight(%v) = %v, want %v", tt.status, got, tt.want)
		}
		// A status is never both in flight and terminal.
		if tt.status.IsInFlight() && tt.status.IsTerminal() {
			t.Errorf("status %v is both in flight and terminal", tt.status)
		}
	}
}

func TestProcessingStatusIsTerminal(t *testing.T) {
	terminal := []ProcessingStatus{StatusReady, StatusError, StatusDeleted}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("IsTerminal(%v) = false, want true", s)
		}
	}
	for _, s := range []ProcessingStatus{StatusQueued, StatusUploading, StatusProcessing} {
		if s.IsTerminal() {
			t.Errorf("IsTerminal(%v) = true, want false", s)
		}
	}
}

func TestMetadataPatchIsZero(t *testing.T) {
	if !(MetadataPatch{}).IsZero() {
		t.Error("IsZero() = false for empty patch, want true")
	}

	d := 125.4
	if (MetadataPatch{DurationSeconds: &d}).IsZero() {
		t.Error("IsZero() = true for patch with duration, want false")
	}

	url := "https://cdn.example.com/abc/master.m3u8"
	if (MetadataPatch{PlaybackURL: &url}).IsZero() {
		t.Error("IsZero() = true for patch with playback URL, want false")
	}
}

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestTransitionApplied(t *testing.T) {
	duration := 125.4
	playback := "https://cdn.example.com/abc123/master.m3u8"

	readyRecord := &VideoRecord{
		ID:               "vid-1",
		ProcessingStatus: StatusReady,
		IsPublished:      true,
		DurationSeconds:  &duration,
		PlaybackURL:      &playback,
	}

	readyTransition := Transition{
		Status:  StatusReady,
		Publish: true,
		Metadata: MetadataPatch{
			DurationSeconds: &duration,
			PlaybackURL:     &playback,
		},
		Recognized: true,
	}

	tests := []struct {
		name   string
		record *VideoRecord
		tr     Transition
		want   bool
	}{
		{
			name:   "replayed ready event is a no-op",
			record: readyRecord,
			tr:     readyTransition,
			want:   true,
		},
		{
			name:   "status differs",
			record: &VideoRecord{ProcessingStatus: StatusProcessing},
			tr:     Transition{Status: StatusReady, Publish: true},
			want:   false,
		},
		{
			name:   "publish flag differs",
			record: &VideoRecord{ProcessingStatus: StatusReady, IsPublished: false},
			tr:     Transition{Status: StatusReady, Publish: true},
			want:   false,
		},
		{
			name:   "metadata field differs",
			record: readyRecord,
			tr: Transition{
				Status:   StatusReady,
				Publish:  true,
				Metadata: MetadataPatch{DurationSeconds: floatPtr(99)},
			},
			want: false,
		},
		{
			name:   "metadata absent from transition is ignored",
			record: readyRecord,
			tr:     Transition{Status: StatusReady, Publish: true},
			want:   true,
		},
		{
			name: "error info already recorded",
			record: &VideoRecord{
				ProcessingStatus: StatusError,
				ErrorCode:        strPtr("ERR_CODEC"),
				ErrorMessage:     strPtr("unsupported codec"),
			},
			tr: Transition{
				Status: StatusError,
				Error:  &ErrorInfo{Code: "ERR_CODEC", Message: "unsupported codec"},
			},
			want: true,
		},
		{
			name: "error code differs",
			record: &VideoRecord{
				ProcessingStatus: StatusError,
				ErrorCode:        strPtr("ERR_CODEC"),
				ErrorMessage:     strPtr("unsupported codec"),
			},
			tr: Transition{
				Status: StatusError,
				Error:  &ErrorInfo{Code: "ERR_TIMEOUT", Message: "unsupported codec"},
			},
			want: false,
		},
		{
			name:   "error status with no error recorded yet",
			record: &VideoRecord{ProcessingStatus: StatusError},
			tr: Transition{
				Status: StatusError,
				Error:  &ErrorInfo{Code: "ERR_CODEC", Message: "unsupported codec"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transitionApplied(tt.record, tt.tr); got != tt.want {
				t.Errorf("transitionApplied() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPtrEqual(t *testing.T) {
	a, b := 1, 1
	c := 2

	if !ptrEqual(&a, &b) {
		t.Error("ptrEqual(&1, &1) = false, want true")
	}
	if ptrEqual(&a, &c) {
		t.Error("ptrEqual(&1, &2) = true, want false")
	}
	if ptrEqual(&a, nil) {
		t.Error("ptrEqual(&1, nil) = true, want false")
	}
	if !ptrEqual[int](nil, nil) {
		t.Error("ptrEqual(nil, nil) = false, want true")
	}
}
