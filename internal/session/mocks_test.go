package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockSessionRepo is a map-backed test double for SessionRepo. The mutex
// makes it safe for the concurrent append tests.
type MockSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	CreateFunc        func(ctx context.Context, s *Session) error
	GetFunc           func(ctx context.Context, id uuid.UUID) (*Session, error)
	ListFunc          func(ctx context.Context) ([]*Session, error)
	LatestByTableFunc func(ctx context.Context, tableNumber int, customerName string) (*Session, error)
	AppendBatchFunc   func(ctx context.Context, id uuid.UUID, batch ExtraBatch) (*Session, error)
	SaveFunc          func(ctx context.Context, s *Session) error
	DeleteFunc        func(ctx context.Context, id uuid.UUID) error
}

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (m *MockSessionRepo) Create(ctx context.Context, s *Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *MockSessionRepo) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *MockSessionRepo) List(ctx context.Context) ([]*Session, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		copied := *s
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (m *MockSessionRepo) LatestByTable(ctx context.Context, tableNumber int, customerName string) (*Session, error) {
	if m.LatestByTableFunc != nil {
		return m.LatestByTableFunc(ctx, tableNumber, customerName)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *Session
	for _, s := range m.sessions {
		if s.TableNumber != tableNumber {
			continue
		}
		if customerName != "" && s.SessionKey != SessionKeyFor(tableNumber, customerName) {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *MockSessionRepo) AppendBatch(ctx context.Context, id uuid.UUID, batch ExtraBatch) (*Session, error) {
	if m.AppendBatchFunc != nil {
		return m.AppendBatchFunc(ctx, id, batch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.SessionStatus != StatusActive {
		return nil, ErrSessionClosed
	}
	s.ExtrasBatches = append(s.ExtrasBatches, batch)
	s.SessionTotal += batch.BatchTotal
	s.Status = KitchenWaiting
	s.HasNewExtras = true
	s.UpdatedAt = time.Now()
	copied := *s
	return &copied, nil
}

func (m *MockSessionRepo) Save(ctx context.Context, s *Session) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *MockSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// AddSession seeds the mock repository directly.
func (m *MockSessionRepo) AddSession(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Count returns the number of stored sessions.
func (m *MockSessionRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// PublishedEvent records a captured publish call.
type PublishedEvent struct {
	Topic string
	Data  []byte
}

// MockPublisher is a test mock for events.Publisher
type MockPublisher struct {
	mu              sync.Mutex
	PublishedEvents []PublishedEvent
	PublishFunc     func(ctx context.Context, topic string, data []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}

func (m *MockPublisher) Published() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]PublishedEvent, len(m.PublishedEvents))
	copy(result, m.PublishedEvents)
	return result
}
