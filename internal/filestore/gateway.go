// Package filestore stores photo objects on a configured medium and hands out
// URLs for them. The medium is chosen once at start-up; callers only ever see
// the Gateway and the storage path it returns.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/your-org/gallery/internal/config"
)

var (
	ErrWrite  = errors.New("storage write failed")
	ErrRead   = errors.New("storage read failed")
	ErrDelete = errors.New("storage delete failed")
)

// Backend is one physical medium. Put must leave either a complete object or
// nothing; Delete must succeed for keys that do not exist.
type Backend interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, contentType string) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Gateway is the medium-agnostic storage contract used by the rest of the system.
// The path returned by Store is the permanent identifier of an object; URLs are
// derived views that may expire and change between calls.
type Gateway struct {
	backend Backend
}

func NewGateway(backend Backend) *Gateway {
	return &Gateway{backend: backend}
}

// New builds the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (*Gateway, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Type {
	case config.StorageMinIO:
		var ms *MinIOStore
		ms, err = NewMinIOStore(cfg.MinIO, cfg.URLExpiry)
		if err == nil {
			if berr := ms.EnsureBucket(ctx); berr != nil {
				return nil, fmt.Errorf("ensure minio bucket: %w", berr)
			}
		}
		backend = ms
	case config.StorageLocal:
		backend, err = NewLocalStore(cfg.Local)
	case config.StorageGCS:
		backend, err = NewGCSStore(ctx, cfg.GCS, cfg.URLExpiry)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.Type, err)
	}
	return NewGateway(backend), nil
}

// Store writes data under folder/filename and returns the storage path.
func (g *Gateway) Store(ctx context.Context, data []byte, folder, filename, contentType string) (string, error) {
	key := path.Join(strings.Trim(folder, "/"), filename)
	if err := g.backend.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("%w: store %s: %w", ErrWrite, key, err)
	}
	return key, nil
}

// ResolveURL returns a URL the client can fetch the object from.
func (g *Gateway) ResolveURL(ctx context.Context, storagePath string) (string, error) {
	u, err := g.backend.URL(ctx, storagePath)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", ErrRead, storagePath, err)
	}
	return u, nil
}

func (g *Gateway) Delete(ctx context.Context, storagePath string) error {
	if err := g.backend.Delete(ctx, storagePath); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrDelete, storagePath, err)
	}
	return nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	return g.backend.Ping(ctx)
}

// BackendName reports which medium is active.
func (g *Gateway) BackendName() string {
	return g.backend.Name()
}

// Close releases backend resources, if the backend holds any.
func (g *Gateway) Close() error {
	if c, ok := g.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
