package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", b.cost()), nil
}

// Verify compares in constant time (bcrypt recomputes the hash with the stored salt).
func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NeedsRehash reports whether hash was produced with a lower cost than configured.
func (b BcryptHasher) NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return c < b.cost()
}

// Store is the persistence contract for identities. Misses are reported as
// sql.ErrNoRows; email collisions as repo.ErrDuplicateEmail.
type Store interface {
	Create(ctx context.Context, u *entity.Identity) error
	GetByID(ctx context.Context, id string) (*entity.Identity, error)
	GetByEmail(ctx context.Context, email string) (*entity.Identity, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, u *entity.Identity) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// Purger removes every resource owned by an identity.
type Purger interface {
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// CredentialStore is the narrow contract the session handlers depend on.
type CredentialStore interface {
	VerifyPassword(ctx context.Context, email, password string) (*entity.Identity, error)
	CreateIdentity(ctx context.Context, in NewIdentity) (*entity.Identity, error)
	UpdateIdentity(ctx context.Context, id string, in IdentityUpdate) (*entity.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	GetIdentity(ctx context.Context, id string) (*entity.Identity, error)
}

// NewIdentity is the input to CreateIdentity.
type NewIdentity struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

func (n NewIdentity) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Email, append([]validation.Rule{validation.Required}, emailRules...)...),
		validation.Field(&n.FirstName, validation.Length(0, 200)),
		validation.Field(&n.LastName, validation.Length(0, 200)),
		validation.Field(&n.Password, validation.Required, passwordRule),
	)
}

// IdentityUpdate carries the mutable fields. Empty strings leave the stored
// value unchanged.
type IdentityUpdate struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

func (u IdentityUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Email, emailRules...),
		validation.Field(&u.FirstName, validation.Length(0, 200)),
		validation.Field(&u.LastName, validation.Length(0, 200)),
		validation.Field(&u.Password, passwordRule),
	)
}

// Service orchestrates credential verification and the identity lifecycle.
type Service struct {
	repo   Store
	purger Purger
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewService(r Store, purger Purger, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &Service{repo: r, purger: purger, hasher: hasher}
}

var _ CredentialStore = (*Service)(nil)

// burnHash spends the same work as a real comparison so unknown emails are
// not distinguishable by latency.
func (s *Service) burnHash(password string) {
	s.dummyOnce.Do(func() {
		h, _, err := s.hasher.Hash("dummy-Passw0rd!")
		if err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		s.hasher.Verify(s.dummyHash, password)
	}
}

// VerifyPassword authenticates by email. Unknown email and wrong password
// both return ErrBadCredentials.
func (s *Service) VerifyPassword(ctx context.Context, email, password string) (*entity.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.burnHash(password)
		return nil, ErrBadCredentials
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.burnHash(password)
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if u.PasswordHash == "" || !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		if h, algo, err := s.hasher.Hash(password); err == nil {
			now := time.Now().UTC()
			u.PasswordHash, u.PasswordAlgo, u.PasswordUpdatedAt = h, algo, &now
			_, _ = s.repo.Update(ctx, u)
		}
	}
	return u, nil
}

// CreateIdentity validates input, hashes the password and inserts the
// identity in a single write.
func (s *Service) CreateIdentity(ctx context.Context, in NewIdentity) (*entity.Identity, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := fromValidation(in.Validate()); err != nil {
		return nil, err
	}
	hash, algo, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	u := &entity.Identity{
		ID:                utilities.NewKSUID(),
		Email:             in.Email,
		UserName:          in.Email,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		PasswordHash:      hash,
		PasswordAlgo:      algo,
		PasswordUpdatedAt: &now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, duplicateEmail()
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return u, nil
}

// UpdateIdentity applies the non-empty fields of in. A new password is
// re-hashed.
func (s *Service) UpdateIdentity(ctx context.Context, id string, in IdentityUpdate) (*entity.Identity, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := fromValidation(in.Validate()); err != nil {
		return nil, err
	}
	u, err := s.GetIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != "" {
		u.Email = in.Email
		u.UserName = in.Email
	}
	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.Password != "" {
		hash, algo, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		now := time.Now().UTC()
		u.PasswordHash, u.PasswordAlgo, u.PasswordUpdatedAt = hash, algo, &now
	}
	n, err := s.repo.Update(ctx, u)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, duplicateEmail()
		}
		return nil, fmt.Errorf("update identity: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return u, nil
}

// DeleteIdentity removes every owned resource, then the identity itself.
func (s *Service) DeleteIdentity(ctx context.Context, id string) error {
	if s.purger != nil {
		if _, err := s.purger.DeleteByOwner(ctx, id); err != nil {
			return fmt.Errorf("delete owned items: %w", err)
		}
	}
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) GetIdentity(ctx context.Context, id string) (*entity.Identity, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return u, nil
}

// Exists reports whether id still names a live identity.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func duplicateEmail() error {
	return &ValidationError{Kind: ErrDuplicateEmail, Fields: map[string]string{"email": "is already registered"}}
}
