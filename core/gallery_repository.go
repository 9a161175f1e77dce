package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GalleryRecord is a user-owned photo collection.
type GalleryRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"gallery_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created"`
}

// GalleryRepository defines persistence operations for galleries.
type GalleryRepository interface {
	Create(ctx context.Context, g *GalleryRecord) (*GalleryRecord, error)
	FindByID(ctx context.Context, id string) (*GalleryRecord, error)
	ListByUser(ctx context.Context, userID string) ([]GalleryRecord, error)
	Update(ctx context.Context, g *GalleryRecord) error
	Delete(ctx context.Context, id string) error
}

// PgGalleryRepository implements GalleryRepository using pgxpool.
type PgGalleryRepository struct {
	db *pgxpool.Pool
}

func NewPgGalleryRepository(db *pgxpool.Pool) *PgGalleryRepository {
	return &PgGalleryRepository{db: db}
}

func (r *PgGalleryRepository) Create(ctx context.Context, g *GalleryRecord) (*GalleryRecord, error) {
	const q = `INSERT INTO galleries (user_id, name, description)
	           VALUES ($1,$2,$3) RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, q, g.UserID, g.Name, g.Description).Scan(&g.ID, &g.CreatedAt); err != nil {
		return nil, fmt.Errorf("create gallery: %w", err)
	}
	return g, nil
}

func (r *PgGalleryRepository) FindByID(ctx context.Context, id string) (*GalleryRecord, error) {
	const q = `SELECT id, user_id, name, description, created_at FROM galleries WHERE id=$1`
	var g GalleryRecord
	err := r.db.QueryRow(ctx, q, id).Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find gallery: %w", err)
	}
	return &g, nil
}

func (r *PgGalleryRepository) ListByUser(ctx context.Context, userID string) ([]GalleryRecord, error) {
	const q = `SELECT id, user_id, name, description, created_at
	           FROM galleries WHERE user_id=$1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list galleries: %w", err)
	}
	defer rows.Close()
	items := make([]GalleryRecord, 0)
	for rows.Next() {
		var g GalleryRecord
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

func (r *PgGalleryRepository) Update(ctx context.Context, g *GalleryRecord) error {
	const q = `UPDATE galleries SET name=$1, description=$2 WHERE id=$3`
	tag, err := r.db.Exec(ctx, q, g.Name, g.Description, g.ID)
	if err != nil {
		return fmt.Errorf("update gallery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgGalleryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM galleries WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete gallery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
