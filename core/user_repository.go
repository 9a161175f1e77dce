package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRecord is the persisted identity record. PasswordHash is only ever set
// through HashPassword; FindHash rotates on every token issuance.
type UserRecord struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FindHash     string
	CreatedAt    time.Time
}

// UserRepository defines persistence operations for users. Lookup misses
// report ErrNotFound; uniqueness violations report ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, user *UserRecord) (*UserRecord, error)
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	FindByFindHash(ctx context.Context, findHash string) (*UserRecord, error)
	UpdateFindHash(ctx context.Context, id, findHash string) error
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func (r *PgUserRepository) Create(ctx context.Context, user *UserRecord) (*UserRecord, error) {
	const q = `INSERT INTO users (username, email, password_hash, find_hash)
	           VALUES ($1,$2,$3,$4) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, q, user.Username, user.Email, user.PasswordHash, nullable(user.FindHash)).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username or email", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	return r.findBy(ctx, "username", username)
}

func (r *PgUserRepository) FindByID(ctx context.Context, id string) (*UserRecord, error) {
	return r.findBy(ctx, "id", id)
}

func (r *PgUserRepository) FindByFindHash(ctx context.Context, findHash string) (*UserRecord, error) {
	return r.findBy(ctx, "find_hash", findHash)
}

func (r *PgUserRepository) findBy(ctx context.Context, column, value string) (*UserRecord, error) {
	q := `SELECT id, username, email, password_hash, COALESCE(find_hash, ''), created_at
	      FROM users WHERE ` + column + `=$1`
	var u UserRecord
	err := r.db.QueryRow(ctx, q, value).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FindHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return &u, nil
}

// UpdateFindHash persists a freshly generated find hash. The unique index on
// find_hash is the sole arbiter of concurrent rotations.
func (r *PgUserRepository) UpdateFindHash(ctx context.Context, id, findHash string) error {
	const q = `UPDATE users SET find_hash=$1 WHERE id=$2`
	tag, err := r.db.Exec(ctx, q, findHash, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: find hash", ErrConflict)
		}
		return fmt.Errorf("update find hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isUniqueViolation checks for a PostgreSQL unique constraint failure (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
