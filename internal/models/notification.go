package models

import "time"

type NotificationType string

const (
	PhotoUploaded  NotificationType = "photo.uploaded"
	PhotoProcessed NotificationType = "photo.processed"
	PhotoDeleted   NotificationType = "photo.deleted"
)

// PhotoNotification announces a photo lifecycle change within an event.
type PhotoNotification struct {
	Type       NotificationType `json:"type"`
	EventID    int64            `json:"event_id"`
	PhotoID    int64            `json:"photo_id"`
	FaceCount  int              `json:"face_count"`
	Processed  bool             `json:"processed"`
	OccurredAt time.Time        `json:"occurred_at"`
}
