package repo_test

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

type userStore interface {
	Create(ctx context.Context, u *entity.Identity) error
	GetByID(ctx context.Context, id string) (*entity.Identity, error)
	GetByEmail(ctx context.Context, email string) (*entity.Identity, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, u *entity.Identity) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

func stores(t *testing.T) map[string]userStore {
	t.Helper()
	out := map[string]userStore{"memory": repo.NewMemoryUserRepo()}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return out
	}
	db, err := database.ConnectX(database.Config{DSN: dsn, MaxConns: 2, Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	pg := repo.NewUserRepo(db)
	require.NoError(t, pg.EnsureTable(context.Background()))
	out["postgres"] = pg
	return out
}

func newIdentity() *entity.Identity {
	id := utilities.NewKSUID()
	email := strings.ToLower(id) + "@example.com"
	return &entity.Identity{
		ID:           id,
		Email:        email,
		UserName:     email,
		FirstName:    "Ada",
		PasswordHash: "$2a$04$placeholder",
		PasswordAlgo: "bcrypt:4",
	}
}

func TestUserStoreContract(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			u := newIdentity()
			require.NoError(t, s.Create(ctx, u))
			assert.False(t, u.CreatedAt.IsZero())
			t.Cleanup(func() { _, _ = s.Delete(ctx, u.ID) })

			got, err := s.GetByEmail(ctx, strings.ToUpper(u.Email))
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)

			ok, err := s.Exists(ctx, u.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			dup := newIdentity()
			dup.Email = strings.ToUpper(u.Email)
			assert.ErrorIs(t, s.Create(ctx, dup), repo.ErrDuplicateEmail)
			_, err = s.GetByID(ctx, dup.ID)
			assert.ErrorIs(t, err, sql.ErrNoRows)

			got.FirstName = "Grace"
			n, err := s.Update(ctx, got)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			again, err := s.GetByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "Grace", again.FirstName)

			other := newIdentity()
			require.NoError(t, s.Create(ctx, other))
			t.Cleanup(func() { _, _ = s.Delete(ctx, other.ID) })
			other.Email = u.Email
			_, err = s.Update(ctx, other)
			assert.ErrorIs(t, err, repo.ErrDuplicateEmail)

			n, err = s.Delete(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			n, err = s.Delete(ctx, u.ID)
			require.NoError(t, err)
			assert.Zero(t, n)

			_, err = s.GetByEmail(ctx, u.Email)
			assert.ErrorIs(t, err, sql.ErrNoRows)
			ok, err = s.Exists(ctx, u.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			missing := newIdentity()
			n, err = s.Update(ctx, missing)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}
