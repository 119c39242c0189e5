package gallery

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/your-org/gallery/internal/models"
	"github.com/your-org/gallery/internal/observability"
	"github.com/your-org/gallery/internal/recognition"
)

// UploadPhoto stores an image for eventID and records it. The photo row is
// the commit point: once it exists the upload succeeds, and face enrichment
// afterwards is best-effort.
func (s *Service) UploadPhoto(ctx context.Context, eventID int64, up Upload) (*models.Photo, error) {
	if _, err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if len(up.Data) == 0 {
		return nil, errorf(ErrInvalidInput, "empty file")
	}

	originalName := filepath.Base(up.FileName)
	if originalName == "." || originalName == string(filepath.Separator) {
		originalName = ""
	}
	contentType := detectContentType(up)
	filename := uuid.NewString() + path.Ext(originalName)

	storagePath, err := s.store.Store(ctx, up.Data, eventFolder(eventID), filename, contentType)
	if err != nil {
		observability.PhotosUploaded.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("store photo: %w", err)
	}

	photo := &models.Photo{
		EventID:     eventID,
		FileName:    originalName,
		StoragePath: storagePath,
		FileSize:    int64(len(up.Data)),
		ContentType: contentType,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data)); err == nil {
		photo.Width, photo.Height = &cfg.Width, &cfg.Height
	}

	if err := s.repo.CreatePhoto(ctx, photo); err != nil {
		observability.PhotosUploaded.WithLabelValues("db_error").Inc()
		if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
			slog.Error("remove orphaned photo object", "path", storagePath, "error", delErr)
		}
		return nil, fmt.Errorf("create photo record: %w", err)
	}
	observability.PhotosUploaded.WithLabelValues("ok").Inc()
	slog.Info("photo uploaded", "photo_id", photo.ID, "event_id", eventID, "path", storagePath, "size", photo.FileSize)
	s.notify(ctx, models.PhotoUploaded, photo)

	s.enrich(ctx, photo, recognition.Image{Data: up.Data, FileName: originalName, ContentType: contentType})
	return photo, nil
}

// enrich asks the recognizer for faces in the photo. Failures leave the photo
// unprocessed and are never returned.
func (s *Service) enrich(ctx context.Context, photo *models.Photo, img recognition.Image) {
	res, err := s.recognizer.Extract(ctx, img, photo.ID, photo.EventID)
	if err != nil {
		observability.Enrichment.WithLabelValues("extract_failed").Inc()
		slog.Error("face extraction failed", "photo_id", photo.ID, "event_id", photo.EventID, "error", err)
		return
	}

	if err := s.repo.MarkPhotoProcessed(ctx, photo.ID, res.FaceCount); err != nil {
		observability.Enrichment.WithLabelValues("update_failed").Inc()
		slog.Error("mark photo processed", "photo_id", photo.ID, "event_id", photo.EventID, "error", err)
		return
	}

	photo.FaceCount = max(photo.FaceCount, res.FaceCount)
	photo.Processed = true
	observability.Enrichment.WithLabelValues("processed").Inc()
	slog.Info("photo enriched", "photo_id", photo.ID, "faces", res.FaceCount)
	s.notify(ctx, models.PhotoProcessed, photo)
}

func eventFolder(eventID int64) string {
	return fmt.Sprintf("events/%d", eventID)
}

// detectContentType trusts the client's type unless it is missing or generic.
func detectContentType(up Upload) string {
	ct := strings.TrimSpace(up.ContentType)
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return mimetype.Detect(up.Data).String()
}
