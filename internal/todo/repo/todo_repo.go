package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/entity"
)

// ErrOwnerMissing is returned by Create when owner_id no longer references a user.
var ErrOwnerMissing = errors.New("owner does not exist")

// TodoRepo is the Postgres-backed todo_items table.
type TodoRepo struct {
	db *sqlx.DB
}

func NewTodoRepo(db *sqlx.DB) *TodoRepo { return &TodoRepo{db: db} }

// EnsureTable creates todo_items. It must run after the users table exists.
func (r *TodoRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS todo_items (
  id BIGSERIAL PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  is_complete BOOLEAN NOT NULL DEFAULT false,
  version BIGINT NOT NULL DEFAULT 1,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_todo_items_owner_id ON todo_items(owner_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectItem = `SELECT id, owner_id, name, is_complete, version, created_at, updated_at FROM todo_items`

func (r *TodoRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.TodoItem, error) {
	items := []*entity.TodoItem{}
	if err := r.db.SelectContext(ctx, &items, selectItem+` WHERE owner_id=$1 ORDER BY id`, ownerID); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID returns the item regardless of owner, or sql.ErrNoRows.
func (r *TodoRepo) GetByID(ctx context.Context, id int64) (*entity.TodoItem, error) {
	var it entity.TodoItem
	if err := r.db.GetContext(ctx, &it, selectItem+` WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *TodoRepo) Create(ctx context.Context, it *entity.TodoItem) error {
	const q = `INSERT INTO todo_items (owner_id, name, is_complete) VALUES ($1, $2, $3)
		RETURNING id, version, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q, it.OwnerID, it.Name, it.IsComplete).
		Scan(&it.ID, &it.Version, &it.CreatedAt, &it.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrOwnerMissing
	}
	return err
}

// Update writes name/is_complete only if the row still has expectedVersion
// and belongs to it.OwnerID. It returns 0 when nothing matched.
func (r *TodoRepo) Update(ctx context.Context, it *entity.TodoItem, expectedVersion int64) (int64, error) {
	const q = `UPDATE todo_items SET name=$1, is_complete=$2, version=version+1, updated_at=NOW()
		WHERE id=$3 AND owner_id=$4 AND version=$5 RETURNING version, updated_at`
	err := r.db.QueryRowxContext(ctx, q, it.Name, it.IsComplete, it.ID, it.OwnerID, expectedVersion).
		Scan(&it.Version, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return 1, nil
}

func (r *TodoRepo) Delete(ctx context.Context, ownerID string, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todo_items WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TodoRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todo_items WHERE owner_id=$1`, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
