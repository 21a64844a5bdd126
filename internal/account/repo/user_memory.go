package repo

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account/entity"
)

// MemoryUserRepo is an in-process users table. Lookups follow the same
// contract as UserRepo, including sql.ErrNoRows for misses.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byID    map[string]*entity.Identity
	byEmail map[string]string
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{byID: make(map[string]*entity.Identity), byEmail: make(map[string]string)}
}

func (m *MemoryUserRepo) Create(_ context.Context, u *entity.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.byEmail[key]; ok {
		return ErrDuplicateEmail
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[key] = u.ID
	return nil
}

func (m *MemoryUserRepo) GetByEmail(_ context.Context, email string) (*entity.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MemoryUserRepo) GetByID(_ context.Context, id string) (*entity.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryUserRepo) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byID[id]
	return ok, nil
}

func (m *MemoryUserRepo) Update(_ context.Context, u *entity.Identity) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[u.ID]
	if !ok {
		return 0, nil
	}
	newKey := strings.ToLower(u.Email)
	oldKey := strings.ToLower(cur.Email)
	if newKey != oldKey {
		if _, taken := m.byEmail[newKey]; taken {
			return 0, ErrDuplicateEmail
		}
		delete(m.byEmail, oldKey)
		m.byEmail[newKey] = u.ID
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	m.byID[u.ID] = &cp
	return 1, nil
}

func (m *MemoryUserRepo) Delete(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return 0, nil
	}
	delete(m.byEmail, strings.ToLower(u.Email))
	delete(m.byID, id)
	return 1, nil
}
