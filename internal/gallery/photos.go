package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/your-org/gallery/internal/models"
	"github.com/your-org/gallery/internal/storage"
)

// GalleryPhoto is a photo with freshly resolved URLs. The URLs may expire;
// StoragePath stays the permanent identifier.
type GalleryPhoto struct {
	models.Photo
	PhotoURL     string
	ThumbnailURL string
}

func (s *Service) ListPhotos(ctx context.Context, eventID int64) ([]GalleryPhoto, error) {
	if _, err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}

	photos, err := s.repo.ListPhotosByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := make([]GalleryPhoto, 0, len(photos))
	for i := range photos {
		photoURL, thumbURL, err := s.resolveURLs(ctx, &photos[i])
		if err != nil {
			return nil, err
		}
		out = append(out, GalleryPhoto{Photo: photos[i], PhotoURL: photoURL, ThumbnailURL: thumbURL})
	}
	return out, nil
}

func (s *Service) GetPhoto(ctx context.Context, photoID int64) (*GalleryPhoto, error) {
	photo, err := s.repo.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, errorf(ErrNotFound, "photo %d", photoID)
	}

	photoURL, thumbURL, err := s.resolveURLs(ctx, photo)
	if err != nil {
		return nil, err
	}
	return &GalleryPhoto{Photo: *photo, PhotoURL: photoURL, ThumbnailURL: thumbURL}, nil
}

// DeletePhoto removes the photo's objects and its row. Storage failures are
// logged and do not keep the row alive. Recognizer embeddings for the photo
// are left in place; searches drop them once the row is gone.
func (s *Service) DeletePhoto(ctx context.Context, photoID int64) error {
	photo, err := s.repo.GetPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	if photo == nil {
		return errorf(ErrNotFound, "photo %d", photoID)
	}

	paths := []string{photo.StoragePath}
	if photo.ThumbnailPath != nil && *photo.ThumbnailPath != "" {
		paths = append(paths, *photo.ThumbnailPath)
	}
	for _, p := range paths {
		if err := s.store.Delete(ctx, p); err != nil {
			slog.Error("delete photo object", "photo_id", photoID, "path", p, "error", err)
		}
	}

	if err := s.repo.DeletePhoto(ctx, photoID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorf(ErrNotFound, "photo %d", photoID)
		}
		return fmt.Errorf("delete photo record: %w", err)
	}

	slog.Info("photo deleted", "photo_id", photoID, "event_id", photo.EventID)
	s.notify(ctx, models.PhotoDeleted, photo)
	return nil
}

// DeleteEventEmbeddings asks the recognizer to forget every face in eventID.
func (s *Service) DeleteEventEmbeddings(ctx context.Context, eventID int64) error {
	if _, err := s.requireEvent(ctx, eventID); err != nil {
		return err
	}
	if err := s.recognizer.DeleteEventEmbeddings(ctx, eventID); err != nil {
		return err
	}
	slog.Info("event embeddings deleted", "event_id", eventID)
	return nil
}

