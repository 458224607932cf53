package menu

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MockMenuItemRepo is a map-backed test double for MenuItemRepo.
type MockMenuItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*MenuItem

	ReplaceAllFunc func(ctx context.Context, items []*MenuItem) (int, int, error)
}

func NewMockMenuItemRepo() *MockMenuItemRepo {
	return &MockMenuItemRepo{items: make(map[uuid.UUID]*MenuItem)}
}

func (m *MockMenuItemRepo) Create(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *MockMenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id], nil
}

func (m *MockMenuItemRepo) List(ctx context.Context) ([]*MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*MenuItem, 0, len(m.items))
	for _, item := range m.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *MockMenuItemRepo) ListByCategory(ctx context.Context, category string) ([]*MenuItem, error) {
	all, _ := m.List(ctx)
	result := make([]*MenuItem, 0)
	for _, item := range all {
		if item.Category == category {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *MockMenuItemRepo) Save(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return ErrMenuItemNotFound
	}
	m.items[item.ID] = item
	return nil
}

func (m *MockMenuItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrMenuItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MockMenuItemRepo) ReplaceAll(ctx context.Context, items []*MenuItem) (int, int, error) {
	if m.ReplaceAllFunc != nil {
		return m.ReplaceAllFunc(ctx, items)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := len(m.items)
	m.items = make(map[uuid.UUID]*MenuItem)
	for _, item := range items {
		m.items[item.ID] = item
	}
	return deleted, len(items), nil
}

func (m *MockMenuItemRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
