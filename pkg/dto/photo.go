package dto

type PhotoUploadResponse struct {
	ID          int64  `json:"id"`
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path"`
	FileSize    int64  `json:"file_size"`
	FaceCount   int    `json:"face_count"`
	Processed   bool   `json:"processed"`
	UploadedAt  string `json:"uploaded_at"`
}

// GalleryPhotoResponse carries URLs that may expire; clients should not
// store them.
type GalleryPhotoResponse struct {
	ID           int64  `json:"id"`
	EventID      int64  `json:"event_id"`
	FileName     string `json:"file_name"`
	PhotoURL     string `json:"photo_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	FileSize     int64  `json:"file_size"`
	ContentType  string `json:"content_type"`
	Width        *int   `json:"width,omitempty"`
	Height       *int   `json:"height,omitempty"`
	FaceCount    int    `json:"face_count"`
	Processed    bool   `json:"processed"`
	UploadedAt   string `json:"uploaded_at"`
}

type PhotoListResponse struct {
	Photos []GalleryPhotoResponse `json:"photos"`
	Total  int                    `json:"total"`
}
