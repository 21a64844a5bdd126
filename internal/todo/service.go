package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/entity"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/repo"
)

// Store is the persistence contract for to-do items. Misses are sql.ErrNoRows.
type Store interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.TodoItem, error)
	GetByID(ctx context.Context, id int64) (*entity.TodoItem, error)
	Create(ctx context.Context, it *entity.TodoItem) error
	Update(ctx context.Context, it *entity.TodoItem, expectedVersion int64) (int64, error)
	Delete(ctx context.Context, ownerID string, id int64) (int64, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// Owners reports whether an identity still exists.
type Owners interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Input is the client-controlled part of an item.
type Input struct {
	Name       string `json:"name"`
	IsComplete bool   `json:"isComplete"`
	// Version, when non-zero, must match the stored version.
	Version int64 `json:"version"`
}

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 500)),
	)
}

// Service applies the ownership guard to every item operation.
type Service struct {
	repo   Store
	owners Owners
}

func NewService(r Store, owners Owners) *Service {
	return &Service{repo: r, owners: owners}
}

// List returns only items owned by ownerID.
func (s *Service) List(ctx context.Context, ownerID string) ([]*entity.TodoItem, error) {
	if ownerID == "" {
		return nil, ErrNotFound
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get resolves id and checks ownership.
func (s *Service) Get(ctx context.Context, ownerID string, id int64) (*entity.TodoItem, error) {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return scopeToOwner(it, ownerID)
}

// Create stamps the owner server-side.
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (*entity.TodoItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if s.owners != nil {
		ok, err := s.owners.Exists(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUnknownOwner
		}
	}
	it := &entity.TodoItem{OwnerID: ownerID, Name: in.Name, IsComplete: in.IsComplete}
	if err := s.repo.Create(ctx, it); err != nil {
		if errors.Is(err, repo.ErrOwnerMissing) {
			return nil, ErrUnknownOwner
		}
		return nil, err
	}
	return it, nil
}

// Update replaces name and completion. A concurrent write between read and
// write is retried once; a second collision surfaces as ErrVersionConflict.
func (s *Service) Update(ctx context.Context, ownerID string, id int64, in Input) (*entity.TodoItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		cur, err := s.Get(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		if in.Version != 0 && in.Version != cur.Version {
			return nil, ErrVersionConflict
		}
		next := *cur
		next.Name = in.Name
		next.IsComplete = in.IsComplete
		n, err := s.repo.Update(ctx, &next, cur.Version)
		if err != nil {
			return nil, err
		}
		if n == 1 {
			return &next, nil
		}
	}
	return nil, ErrVersionConflict
}

// Delete removes an owned item and returns it.
func (s *Service) Delete(ctx context.Context, ownerID string, id int64) (*entity.TodoItem, error) {
	cur, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return cur, nil
}
