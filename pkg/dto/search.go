package dto

// SearchQuery holds the optional multipart fields of a face search. Omitted
// fields stay nil.
type SearchQuery struct {
	Limit     *int     `form:"limit"`
	Threshold *float64 `form:"threshold"`
}

type FaceLocation struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type FaceMatchResponse struct {
	PhotoID      int64         `json:"photo_id"`
	PhotoURL     string        `json:"photo_url"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	Similarity   float64       `json:"similarity"`
	FaceLocation *FaceLocation `json:"face_location,omitempty"`
}

// FaceSearchResponse.TotalMatches counts the matches returned, after stale
// ones were dropped.
type FaceSearchResponse struct {
	Matches      []FaceMatchResponse `json:"matches"`
	TotalMatches int                 `json:"total_matches"`
}
