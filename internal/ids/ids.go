package ids

import (
	"github.com/google/uuid"
)

const (
	// VideoPrefix is the prefix for video record IDs.
	VideoPrefix = "vid-"
)

// NewVideoID generates a new video ID using UUIDv7.
// Format: vid-<uuidv7>
// UUIDv7 is time-ordered, making IDs sortable by creation time.
func NewVideoID() string {
	return VideoPrefix + uuid.Must(uuid.NewV7()).String()
}

// IsValidVideoID checks if a string is a valid video ID.
func IsValidVideoID(id string) bool {
	if len(id) < len(VideoPrefix) {
		return false
	}
	if id[:len(VideoPrefix)] != VideoPrefix {
		return false
	}
	uuidPart := id[len(VideoPrefix):]
	_, err := uuid.Parse(uuidPart)
	return err == nil
}
