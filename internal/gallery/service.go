// Package gallery orchestrates photo ingestion and face search for event
// galleries. It owns no I/O of its own: persistence, blob storage and face
// recognition are reached through the interfaces below.
package gallery

import (
	"context"
	"log/slog"
	"time"

	"github.com/your-org/gallery/internal/models"
	"github.com/your-org/gallery/internal/recognition"
)

// Repository is the photo metadata store. Getters return nil, nil when the
// row does not exist.
type Repository interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	CreatePhoto(ctx context.Context, p *models.Photo) error
	GetPhoto(ctx context.Context, id int64) (*models.Photo, error)
	ListPhotosByEvent(ctx context.Context, eventID int64) ([]models.Photo, error)
	MarkPhotoProcessed(ctx context.Context, id int64, faceCount int) error
	DeletePhoto(ctx context.Context, id int64) error
}

// Storage is the medium-agnostic blob gateway.
type Storage interface {
	Store(ctx context.Context, data []byte, folder, filename, contentType string) (string, error)
	ResolveURL(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string) error
}

type Recognizer interface {
	Extract(ctx context.Context, img recognition.Image, photoID, eventID int64) (*recognition.ExtractResult, error)
	Search(ctx context.Context, img recognition.Image, eventID int64, opts recognition.SearchOptions) (*recognition.SearchResult, error)
	DeleteEventEmbeddings(ctx context.Context, eventID int64) error
}

type Notifier interface {
	Notify(ctx context.Context, n models.PhotoNotification) error
}

// Upload is an image received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Service struct {
	repo       Repository
	store      Storage
	recognizer Recognizer
	notifier   Notifier
}

// NewService wires the collaborators. notifier may be nil.
func NewService(repo Repository, store Storage, recognizer Recognizer, notifier Notifier) *Service {
	return &Service{repo: repo, store: store, recognizer: recognizer, notifier: notifier}
}

func (s *Service) requireEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, errorf(ErrNotFound, "event %d", eventID)
	}
	return ev, nil
}

func (s *Service) notify(ctx context.Context, typ models.NotificationType, p *models.Photo) {
	if s.notifier == nil {
		return
	}
	n := models.PhotoNotification{
		Type:       typ,
		EventID:    p.EventID,
		PhotoID:    p.ID,
		FaceCount:  p.FaceCount,
		Processed:  p.Processed,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		slog.Warn("publish photo notification", "type", typ, "photo_id", p.ID, "error", err)
	}
}
