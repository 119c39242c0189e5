package models

import "time"

type Photo struct {
	ID            int64     `json:"id" db:"id"`
	EventID       int64     `json:"event_id" db:"event_id"`
	FileName      string    `json:"file_name" db:"file_name"`
	StoragePath   string    `json:"storage_path" db:"storage_path"` // unique, never reused
	ThumbnailPath *string   `json:"thumbnail_path,omitempty" db:"thumbnail_path"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	ContentType   string    `json:"content_type" db:"content_type"`
	Width         *int      `json:"width,omitempty" db:"width"`
	Height        *int      `json:"height,omitempty" db:"height"`
	FaceCount     int       `json:"face_count" db:"face_count"`
	Processed     bool      `json:"processed" db:"processed"`
	UploadedAt    time.Time `json:"uploaded_at" db:"uploaded_at"`
}
