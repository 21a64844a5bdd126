package repo

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/entity"
)

// MemoryTodoRepo keeps items in a map; every method holds the lock for its
// whole read-modify-write so updates are atomic per call.
type MemoryTodoRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*entity.TodoItem
}

func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{items: make(map[int64]*entity.TodoItem)}
}

func (m *MemoryTodoRepo) ListByOwner(_ context.Context, ownerID string) ([]*entity.TodoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*entity.TodoItem{}
	for _, it := range m.items {
		if it.OwnerID == ownerID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryTodoRepo) GetByID(_ context.Context, id int64) (*entity.TodoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *it
	return &cp, nil
}

func (m *MemoryTodoRepo) Create(_ context.Context, it *entity.TodoItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now().UTC()
	it.ID = m.nextID
	it.Version = 1
	it.CreatedAt, it.UpdatedAt = now, now
	cp := *it
	m.items[it.ID] = &cp
	return nil
}

func (m *MemoryTodoRepo) Update(_ context.Context, it *entity.TodoItem, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[it.ID]
	if !ok || cur.OwnerID != it.OwnerID || cur.Version != expectedVersion {
		return 0, nil
	}
	cur.Name = it.Name
	cur.IsComplete = it.IsComplete
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()
	it.Version, it.UpdatedAt, it.CreatedAt = cur.Version, cur.UpdatedAt, cur.CreatedAt
	return 1, nil
}

func (m *MemoryTodoRepo) Delete(_ context.Context, ownerID string, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[id]
	if !ok || cur.OwnerID != ownerID {
		return 0, nil
	}
	delete(m.items, id)
	return 1, nil
}

func (m *MemoryTodoRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, it := range m.items {
		if it.OwnerID == ownerID {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}
