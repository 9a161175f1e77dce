package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoRecord is an uploaded photo. The blob itself lives in the object
// store under ObjectKey; ImageURI is the public location reported at upload.
type PhotoRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	GalleryID   string    `json:"gallery_id"`
	Name        string    `json:"photo_name"`
	Description string    `json:"description"`
	ObjectKey   string    `json:"object_key"`
	ImageURI    string    `json:"image_uri"`
	CreatedAt   time.Time `json:"created"`
}

// PhotoRepository defines persistence operations for photos.
type PhotoRepository interface {
	Create(ctx context.Context, p *PhotoRecord) (*PhotoRecord, error)
	FindByID(ctx context.Context, id string) (*PhotoRecord, error)
	ListByUser(ctx context.Context, userID string) ([]PhotoRecord, error)
	ListByGallery(ctx context.Context, galleryID string) ([]PhotoRecord, error)
	Delete(ctx context.Context, id string) error
}

// PgPhotoRepository implements PhotoRepository using pgxpool.
type PgPhotoRepository struct {
	db *pgxpool.Pool
}

func NewPgPhotoRepository(db *pgxpool.Pool) *PgPhotoRepository {
	return &PgPhotoRepository{db: db}
}

func (r *PgPhotoRepository) Create(ctx context.Context, p *PhotoRecord) (*PhotoRecord, error) {
	const q = `INSERT INTO photos (user_id, gallery_id, name, description, object_key, image_uri)
	           VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, q, p.UserID, p.GalleryID, p.Name, p.Description, p.ObjectKey, p.ImageURI).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: object key", ErrConflict)
		}
		return nil, fmt.Errorf("create photo: %w", err)
	}
	return p, nil
}

func (r *PgPhotoRepository) FindByID(ctx context.Context, id string) (*PhotoRecord, error) {
	const q = `SELECT id, user_id, gallery_id, name, description, object_key, image_uri, created_at
	           FROM photos WHERE id=$1`
	var p PhotoRecord
	err := r.db.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.UserID, &p.GalleryID, &p.Name, &p.Description, &p.ObjectKey, &p.ImageURI, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find photo: %w", err)
	}
	return &p, nil
}

func (r *PgPhotoRepository) ListByUser(ctx context.Context, userID string) ([]PhotoRecord, error) {
	return r.list(ctx, "user_id", userID)
}

func (r *PgPhotoRepository) ListByGallery(ctx context.Context, galleryID string) ([]PhotoRecord, error) {
	return r.list(ctx, "gallery_id", galleryID)
}

func (r *PgPhotoRepository) list(ctx context.Context, column, value string) ([]PhotoRecord, error) {
	q := `SELECT id, user_id, gallery_id, name, description, object_key, image_uri, created_at
	      FROM photos WHERE ` + column + `=$1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, q, value)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()
	items := make([]PhotoRecord, 0)
	for rows.Next() {
		var p PhotoRecord
		if err := rows.Scan(&p.ID, &p.UserID, &p.GalleryID, &p.Name, &p.Description, &p.ObjectKey, &p.ImageURI, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *PgPhotoRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM photos WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
