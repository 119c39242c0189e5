package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/gallery/internal/config"
	"github.com/your-org/gallery/internal/models"
)

// ErrNotFound is returned by mutations that matched no row.
var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Events ---

// GetEvent returns nil, nil when the event does not exist.
func (s *PostgresStore) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	ev := &models.Event{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, slug, access_type, published, created_at FROM events WHERE id = $1`, id,
	).Scan(&ev.ID, &ev.Name, &ev.Slug, &ev.AccessType, &ev.Published, &ev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// --- Photos ---

const photoColumns = `id, event_id, file_name, storage_path, thumbnail_path, file_size, content_type,
	width, height, face_count, processed, uploaded_at`

func scanPhoto(row pgx.Row, p *models.Photo) error {
	return row.Scan(&p.ID, &p.EventID, &p.FileName, &p.StoragePath, &p.ThumbnailPath,
		&p.FileSize, &p.ContentType, &p.Width, &p.Height, &p.FaceCount, &p.Processed, &p.UploadedAt)
}

// CreatePhoto inserts p and fills in its ID and UploadedAt. The record always
// starts unprocessed with no faces, whatever p carries.
func (s *PostgresStore) CreatePhoto(ctx context.Context, p *models.Photo) error {
	p.FaceCount = 0
	p.Processed = false
	err := s.pool.QueryRow(ctx,
		`INSERT INTO photos (event_id, file_name, storage_path, thumbnail_path, file_size, content_type, width, height, face_count, processed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, FALSE) RETURNING id, uploaded_at`,
		p.EventID, p.FileName, p.StoragePath, p.ThumbnailPath, p.FileSize, p.ContentType, p.Width, p.Height,
	).Scan(&p.ID, &p.UploadedAt)
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	return nil
}

// GetPhoto returns nil, nil when the photo does not exist.
func (s *PostgresStore) GetPhoto(ctx context.Context, id int64) (*models.Photo, error) {
	p := &models.Photo{}
	err := scanPhoto(s.pool.QueryRow(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPhotosByEvent(ctx context.Context, eventID int64) ([]models.Photo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE event_id = $1 ORDER BY uploaded_at, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := scanPhoto(rows, &p); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photos: %w", err)
	}
	return photos, nil
}

// MarkPhotoProcessed records a successful enrichment. face_count never decreases.
func (s *PostgresStore) MarkPhotoProcessed(ctx context.Context, id int64, faceCount int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE photos SET face_count = GREATEST(face_count, $2), processed = TRUE WHERE id = $1`,
		id, faceCount)
	if err != nil {
		return fmt.Errorf("mark photo processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark photo processed %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeletePhoto(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete photo %d: %w", id, ErrNotFound)
	}
	return nil
}
