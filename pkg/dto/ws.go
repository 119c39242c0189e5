package dto

// WSEvent is a WebSocket message for live gallery updates.
type WSEvent struct {
	Type      string `json:"type"` // photo.uploaded, photo.processed, photo.deleted
	EventID   int64  `json:"event_id"`
	PhotoID   int64  `json:"photo_id"`
	FaceCount int    `json:"face_count"`
	Processed bool   `json:"processed"`
	Timestamp string `json:"timestamp"`
}
