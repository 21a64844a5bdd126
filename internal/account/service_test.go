package account_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account/repo"
)

type fakePurger struct {
	owners []string
}

func (f *fakePurger) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	f.owners = append(f.owners, ownerID)
	return 1, nil
}

func newService() (*account.Service, *repo.MemoryUserRepo, *fakePurger) {
	store := repo.NewMemoryUserRepo()
	purger := &fakePurger{}
	return account.NewService(store, purger, account.BcryptHasher{Cost: bcrypt.MinCost}), store, purger
}

func register(t *testing.T, svc *account.Service, email string) string {
	t.Helper()
	u, err := svc.CreateIdentity(context.Background(), account.NewIdentity{
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "Secure1!",
	})
	require.NoError(t, err)
	return u.ID
}

func TestCreateIdentity(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()

	u, err := svc.CreateIdentity(ctx, account.NewIdentity{
		Email:     "  A@X.com ",
		FirstName: "Ada",
		Password:  "Secure1!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.NotEqual(t, "Secure1!", u.PasswordHash)
	assert.True(t, strings.HasPrefix(u.PasswordAlgo, "bcrypt:"))

	stored, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, stored.PasswordHash)
}

func TestCreateIdentityRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	register(t, svc, "a@x.com")

	_, err := svc.CreateIdentity(ctx, account.NewIdentity{Email: "A@x.COM", Password: "Other2@x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrInvalidInput)
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)

	var verr *account.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}

func TestCreateIdentityValidation(t *testing.T) {
	tests := []struct {
		name      string
		in        account.NewIdentity
		wantField string
		wantWeak  bool
	}{
		{name: "missing email", in: account.NewIdentity{Password: "Secure1!"}, wantField: "email"},
		{name: "bad email", in: account.NewIdentity{Email: "nope", Password: "Secure1!"}, wantField: "email"},
		{name: "missing password", in: account.NewIdentity{Email: "a@x.com"}, wantField: "password"},
		{name: "short password", in: account.NewIdentity{Email: "a@x.com", Password: "S1!a"}, wantField: "password", wantWeak: true},
		{name: "no symbol", in: account.NewIdentity{Email: "a@x.com", Password: "Secure11"}, wantField: "password", wantWeak: true},
		{name: "no upper", in: account.NewIdentity{Email: "a@x.com", Password: "secure1!"}, wantField: "password", wantWeak: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newService()
			_, err := svc.CreateIdentity(context.Background(), tt.in)
			require.Error(t, err)

			var verr *account.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
			assert.Equal(t, tt.wantWeak, errors.Is(err, account.ErrWeakPassword))
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	id := register(t, svc, "a@x.com")

	u, err := svc.VerifyPassword(ctx, "A@X.COM", "Secure1!")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, wrongPw := svc.VerifyPassword(ctx, "a@x.com", "Secure1?")
	_, unknown := svc.VerifyPassword(ctx, "b@x.com", "Secure1!")
	_, empty := svc.VerifyPassword(ctx, "", "")

	assert.ErrorIs(t, wrongPw, account.ErrBadCredentials)
	assert.ErrorIs(t, unknown, account.ErrBadCredentials)
	assert.ErrorIs(t, empty, account.ErrBadCredentials)
	assert.Equal(t, wrongPw.Error(), unknown.Error())
}

func TestVerifyPasswordRehashesWeakCost(t *testing.T) {
	store := repo.NewMemoryUserRepo()
	ctx := context.Background()
	weak := account.NewService(store, nil, account.BcryptHasher{Cost: bcrypt.MinCost})
	u, err := weak.CreateIdentity(ctx, account.NewIdentity{Email: "a@x.com", Password: "Secure1!"})
	require.NoError(t, err)

	stronger := account.NewService(store, nil, account.BcryptHasher{Cost: bcrypt.MinCost + 1})
	_, err = stronger.VerifyPassword(ctx, "a@x.com", "Secure1!")
	require.NoError(t, err)

	stored, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestUpdateIdentity(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	id := register(t, svc, "a@x.com")
	before, err := svc.GetIdentity(ctx, id)
	require.NoError(t, err)

	u, err := svc.UpdateIdentity(ctx, id, account.IdentityUpdate{FirstName: "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.FirstName)
	assert.Equal(t, "Lovelace", u.LastName)
	assert.Equal(t, before.PasswordHash, u.PasswordHash)

	u, err = svc.UpdateIdentity(ctx, id, account.IdentityUpdate{Email: "G@X.com", Password: "Changed9#"})
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "g@x.com", u.Email)
	assert.NotEqual(t, before.PasswordHash, u.PasswordHash)

	_, err = svc.VerifyPassword(ctx, "g@x.com", "Secure1!")
	assert.ErrorIs(t, err, account.ErrBadCredentials)
	_, err = svc.VerifyPassword(ctx, "g@x.com", "Changed9#")
	assert.NoError(t, err)
	_, err = svc.VerifyPassword(ctx, "a@x.com", "Changed9#")
	assert.ErrorIs(t, err, account.ErrBadCredentials)
}

func TestUpdateIdentityErrors(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	id := register(t, svc, "a@x.com")
	register(t, svc, "b@x.com")

	_, err := svc.UpdateIdentity(ctx, id, account.IdentityUpdate{Email: "b@x.com"})
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)

	_, err = svc.UpdateIdentity(ctx, id, account.IdentityUpdate{Password: "weak"})
	assert.ErrorIs(t, err, account.ErrWeakPassword)

	_, err = svc.UpdateIdentity(ctx, "missing", account.IdentityUpdate{FirstName: "X"})
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestDeleteIdentityCascades(t *testing.T) {
	svc, _, purger := newService()
	ctx := context.Background()
	id := register(t, svc, "a@x.com")

	require.NoError(t, svc.DeleteIdentity(ctx, id))
	assert.Equal(t, []string{id}, purger.owners)

	_, err := svc.GetIdentity(ctx, id)
	assert.ErrorIs(t, err, account.ErrNotFound)
	_, err = svc.VerifyPassword(ctx, "a@x.com", "Secure1!")
	assert.ErrorIs(t, err, account.ErrBadCredentials)

	assert.ErrorIs(t, svc.DeleteIdentity(ctx, id), account.ErrNotFound)
}

func TestCheckPassword(t *testing.T) {
	assert.NoError(t, account.CheckPassword("Secure1!"))
	assert.ErrorIs(t, account.CheckPassword("abc"), account.ErrWeakPassword)
	assert.ErrorIs(t, account.CheckPassword(strings.Repeat("Aa1!", 20)), account.ErrWeakPassword)
}
