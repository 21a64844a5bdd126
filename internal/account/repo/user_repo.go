package repo

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account/entity"
)

// ErrDuplicateEmail is returned by Create and Update when the email is taken.
var ErrDuplicateEmail = errors.New("duplicate email")

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email CITEXT NOT NULL UNIQUE,
  username TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  password_algo TEXT NOT NULL,
  password_updated_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectUser = `SELECT id, email, username, first_name, last_name, password_hash, password_algo,
	password_updated_at, created_at, updated_at FROM users`

// Create inserts a new user row. A unique violation on email maps to
// ErrDuplicateEmail and leaves nothing behind.
func (r *UserRepo) Create(ctx context.Context, u *entity.Identity) error {
	const q = `INSERT INTO users (id, email, username, first_name, last_name, password_hash, password_algo, password_updated_at)
		VALUES (:id, :email, :username, :first_name, :last_name, :password_hash, :password_algo, :password_updated_at)
		RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, u)
	if err != nil {
		return mapUniqueViolation(err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		return nil
	}
	if err := rows.Err(); err != nil {
		return mapUniqueViolation(err)
	}
	return errors.New("no row returned")
}

// GetByEmail returns a user matched by email (case-insensitive due to citext) or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	var u entity.Identity
	if err := r.db.GetContext(ctx, &u, selectUser+` WHERE email=$1`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	var u entity.Identity
	if err := r.db.GetContext(ctx, &u, selectUser+` WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with id is present.
func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	var found bool
	if err := r.db.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, id); err != nil {
		return false, err
	}
	return found, nil
}

// Update writes the mutable columns and returns the number of rows touched.
func (r *UserRepo) Update(ctx context.Context, u *entity.Identity) (int64, error) {
	const q = `UPDATE users SET email=:email, username=:username, first_name=:first_name, last_name=:last_name,
		password_hash=:password_hash, password_algo=:password_algo, password_updated_at=:password_updated_at,
		updated_at=NOW() WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, u)
	if err != nil {
		return 0, mapUniqueViolation(err)
	}
	return res.RowsAffected()
}

// Delete removes the user; todo_items rows follow through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}
