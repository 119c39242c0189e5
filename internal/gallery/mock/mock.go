// Package mock provides in-memory implementations of the gallery
// collaborators for testing.
package mock

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/your-org/gallery/internal/filestore"
	"github.com/your-org/gallery/internal/models"
	"github.com/your-org/gallery/internal/recognition"
	"github.com/your-org/gallery/internal/storage"
)

// Repository is an in-memory photo store.
type Repository struct {
	mu     sync.RWMutex
	events map[int64]*models.Event
	photos map[int64]*models.Photo
	nextID int64

	// Error injection
	GetEventError    error
	CreateError      error
	GetPhotoError    error
	ListError        error
	MarkError        error
	DeletePhotoError error
}

func NewRepository() *Repository {
	return &Repository{
		events: make(map[int64]*models.Event),
		photos: make(map[int64]*models.Photo),
	}
}

// AddEvent registers a published public event with the given id.
func (m *Repository) AddEvent(id int64) *models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := &models.Event{
		ID:         id,
		Name:       fmt.Sprintf("event-%d", id),
		Slug:       fmt.Sprintf("event-%d", id),
		AccessType: models.AccessPublic,
		Published:  true,
		CreatedAt:  time.Now(),
	}
	m.events[id] = ev
	return ev
}

// AddPhoto stores p as is, assigning an id when p.ID is zero.
func (m *Repository) AddPhoto(p models.Photo) *models.Photo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		m.nextID++
		p.ID = m.nextID
	} else if p.ID > m.nextID {
		m.nextID = p.ID
	}
	m.photos[p.ID] = &p
	return &p
}

// PhotoCount returns the number of stored photos.
func (m *Repository) PhotoCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.photos)
}

func (m *Repository) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	if m.GetEventError != nil {
		return nil, m.GetEventError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	cp := *ev
	return &cp, nil
}

func (m *Repository) CreatePhoto(ctx context.Context, p *models.Photo) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.photos {
		if existing.StoragePath == p.StoragePath {
			return fmt.Errorf("duplicate storage path %q", p.StoragePath)
		}
	}
	m.nextID++
	p.ID = m.nextID
	p.FaceCount = 0
	p.Processed = false
	p.UploadedAt = time.Now().UTC()
	cp := *p
	m.photos[p.ID] = &cp
	return nil
}

func (m *Repository) GetPhoto(ctx context.Context, id int64) (*models.Photo, error) {
	if m.GetPhotoError != nil {
		return nil, m.GetPhotoError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *Repository) ListPhotosByEvent(ctx context.Context, eventID int64) ([]models.Photo, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Photo
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.photos[id]; ok && p.EventID == eventID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *Repository) MarkPhotoProcessed(ctx context.Context, id int64, faceCount int) error {
	if m.MarkError != nil {
		return m.MarkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return fmt.Errorf("mark photo processed %d: %w", id, storage.ErrNotFound)
	}
	p.FaceCount = max(p.FaceCount, faceCount)
	p.Processed = true
	return nil
}

func (m *Repository) DeletePhoto(ctx context.Context, id int64) error {
	if m.DeletePhotoError != nil {
		return m.DeletePhotoError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[id]; !ok {
		return fmt.Errorf("delete photo %d: %w", id, storage.ErrNotFound)
	}
	delete(m.photos, id)
	return nil
}

// Storage is an in-memory blob gateway with filestore error semantics.
type Storage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	Deleted []string

	// Error injection
	StoreError   error
	ResolveError error
	DeleteError  error
}

func NewStorage() *Storage {
	return &Storage{objects: make(map[string][]byte)}
}

// Put places an object directly, bypassing error injection.
func (m *Storage) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
}

func (m *Storage) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

func (m *Storage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *Storage) Store(ctx context.Context, data []byte, folder, filename, contentType string) (string, error) {
	key := path.Join(strings.Trim(folder, "/"), filename)
	if m.StoreError != nil {
		return "", fmt.Errorf("%w: store %s: %w", filestore.ErrWrite, key, m.StoreError)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return key, nil
}

// ResolveURL mimics the local backend: a deterministic path-derived URL.
func (m *Storage) ResolveURL(ctx context.Context, key string) (string, error) {
	if m.ResolveError != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", filestore.ErrRead, key, m.ResolveError)
	}
	return "/storage/" + key, nil
}

// Delete is idempotent; missing keys succeed.
func (m *Storage) Delete(ctx context.Context, key string) error {
	if m.DeleteError != nil {
		return fmt.Errorf("%w: delete %s: %w", filestore.ErrDelete, key, m.DeleteError)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// ExtractCall records one Extract invocation.
type ExtractCall struct {
	PhotoID int64
	EventID int64
	Image   recognition.Image
}

// SearchCall records one Search invocation.
type SearchCall struct {
	EventID int64
	Options recognition.SearchOptions
}

// Recognizer is a scripted face recognition service.
type Recognizer struct {
	mu sync.Mutex

	FaceCount     int
	SearchMatches []recognition.Match

	ExtractCalls  []ExtractCall
	SearchCalls   []SearchCall
	DeletedEvents []int64

	// Error injection
	ExtractError error
	SearchError  error
	DeleteError  error
}

func NewRecognizer() *Recognizer {
	return &Recognizer{}
}

func (m *Recognizer) Extract(ctx context.Context, img recognition.Image, photoID, eventID int64) (*recognition.ExtractResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractCalls = append(m.ExtractCalls, ExtractCall{PhotoID: photoID, EventID: eventID, Image: img})
	if m.ExtractError != nil {
		return nil, fmt.Errorf("%w: photo %d: %w", recognition.ErrExtraction, photoID, m.ExtractError)
	}
	res := &recognition.ExtractResult{FaceCount: m.FaceCount}
	for i := 0; i < m.FaceCount; i++ {
		res.Embeddings = append(res.Embeddings, recognition.Embedding{
			VectorID:   fmt.Sprintf("%d-%d", photoID, i),
			FaceIndex:  i,
			BBox:       []float64{0, 0, 10, 10},
			Confidence: 0.99,
		})
	}
	return res, nil
}

// Search returns SearchMatches unchanged, with TotalMatches set to their
// count before any caller-side filtering.
func (m *Recognizer) Search(ctx context.Context, img recognition.Image, eventID int64, opts recognition.SearchOptions) (*recognition.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls = append(m.SearchCalls, SearchCall{EventID: eventID, Options: opts})
	if m.SearchError != nil {
		return nil, fmt.Errorf("%w: event %d: %w", recognition.ErrSearch, eventID, m.SearchError)
	}
	matches := append([]recognition.Match(nil), m.SearchMatches...)
	return &recognition.SearchResult{Matches: matches, TotalMatches: len(matches)}, nil
}

func (m *Recognizer) DeleteEventEmbeddings(ctx context.Context, eventID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return fmt.Errorf("%w: event %d: %w", recognition.ErrDeletion, eventID, m.DeleteError)
	}
	m.DeletedEvents = append(m.DeletedEvents, eventID)
	return nil
}

// Notifier collects published notifications.
type Notifier struct {
	mu   sync.Mutex
	sent []models.PhotoNotification

	NotifyError error
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (m *Notifier) Notify(ctx context.Context, n models.PhotoNotification) error {
	if m.NotifyError != nil {
		return m.NotifyError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

// Types returns the notification types in publish order.
func (m *Notifier) Types() []models.NotificationType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.NotificationType, 0, len(m.sent))
	for _, n := range m.sent {
		out = append(out, n.Type)
	}
	return out
}
