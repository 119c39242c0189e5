package gallery

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/gallery/internal/models"
	"github.com/your-org/gallery/internal/observability"
	"github.com/your-org/gallery/internal/recognition"
)

const maxSearchLimit = 500

// SearchParams fields left nil fall back to the recognizer defaults.
type SearchParams struct {
	Limit     *int
	Threshold *float64
}

func (p SearchParams) validate() error {
	if p.Limit != nil && (*p.Limit < 1 || *p.Limit > maxSearchLimit) {
		return errorf(ErrInvalidInput, "limit must be in [1, %d]", maxSearchLimit)
	}
	if p.Threshold != nil && (*p.Threshold < 0 || *p.Threshold > 1) {
		return errorf(ErrInvalidInput, "threshold must be in [0, 1]")
	}
	return nil
}

// FaceLocation is a face rectangle in pixel coordinates.
type FaceLocation struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type FaceMatch struct {
	PhotoID      int64
	PhotoURL     string
	ThumbnailURL string // empty when the photo has no thumbnail
	Similarity   float64
	Location     *FaceLocation
}

type SearchResult struct {
	Matches      []FaceMatch
	TotalMatches int
}

// SearchByFace finds photos in eventID containing the face in up. Matches
// referencing photos that no longer exist are dropped; TotalMatches counts
// what survives.
func (s *Service) SearchByFace(ctx context.Context, eventID int64, up Upload, params SearchParams) (*SearchResult, error) {
	start := time.Now()
	defer func() { observability.SearchDuration.Observe(time.Since(start).Seconds()) }()

	if _, err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if len(up.Data) == 0 {
		return nil, errorf(ErrInvalidInput, "empty file")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	img := recognition.Image{Data: up.Data, FileName: up.FileName, ContentType: detectContentType(up)}
	raw, err := s.recognizer.Search(ctx, img, eventID, recognition.SearchOptions{
		Limit:     params.Limit,
		Threshold: params.Threshold,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]FaceMatch, 0, len(raw.Matches))
	for _, m := range raw.Matches {
		photo, err := s.repo.GetPhoto(ctx, m.PhotoID)
		if err != nil {
			return nil, fmt.Errorf("load matched photo %d: %w", m.PhotoID, err)
		}
		if photo == nil {
			observability.MatchesDropped.Inc()
			continue
		}

		fm, err := s.assembleMatch(ctx, photo, m)
		if err != nil {
			return nil, err
		}
		matches = append(matches, fm)
	}

	return &SearchResult{Matches: matches, TotalMatches: len(matches)}, nil
}

func (s *Service) assembleMatch(ctx context.Context, photo *models.Photo, m recognition.Match) (FaceMatch, error) {
	photoURL, thumbURL, err := s.resolveURLs(ctx, photo)
	if err != nil {
		return FaceMatch{}, err
	}
	return FaceMatch{
		PhotoID:      photo.ID,
		PhotoURL:     photoURL,
		ThumbnailURL: thumbURL,
		Similarity:   m.Similarity,
		Location:     locationFromBBox(m.BBox),
	}, nil
}

// resolveURLs returns the display URL and, when a thumbnail exists, its URL.
func (s *Service) resolveURLs(ctx context.Context, photo *models.Photo) (string, string, error) {
	photoURL, err := s.store.ResolveURL(ctx, photo.StoragePath)
	if err != nil {
		return "", "", fmt.Errorf("resolve photo %d url: %w", photo.ID, err)
	}
	if photo.ThumbnailPath == nil || *photo.ThumbnailPath == "" {
		return photoURL, "", nil
	}
	thumbURL, err := s.store.ResolveURL(ctx, *photo.ThumbnailPath)
	if err != nil {
		return "", "", fmt.Errorf("resolve photo %d thumbnail url: %w", photo.ID, err)
	}
	return photoURL, thumbURL, nil
}

// locationFromBBox converts a two-corner box [x1, y1, x2, y2]. Anything other
// than four coordinates yields nil.
func locationFromBBox(bbox []float64) *FaceLocation {
	if len(bbox) != 4 {
		return nil
	}
	x1, y1, x2, y2 := int(bbox[0]), int(bbox[1]), int(bbox[2]), int(bbox[3])
	return &FaceLocation{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
