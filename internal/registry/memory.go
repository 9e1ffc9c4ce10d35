package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petra-dev/upwatch/internal/checker"
)

// Memory is an in-memory Store. It backs tests and deployments that run
// without a storage path configured.
type Memory struct {
	mu       sync.RWMutex
	services map[string]*Service
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{services: make(map[string]*Service)}
}

func (m *Memory) Add(ctx context.Context, s *Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.services {
		if existing.URL == s.URL {
			return ErrDuplicateURL
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = checker.StatusUnknown
	}
	cp := *s
	m.services[s.ID] = &cp
	return nil
}

func (m *Memory) List(ctx context.Context) ([]Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Service, 0, len(m.services))
	for _, s := range m.services {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (*Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) GetByURL(ctx context.Context, url string) (*Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.services {
		if s.URL == url {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[id]; !ok {
		return ErrNotFound
	}
	delete(m.services, id)
	return nil
}

func (m *Memory) SetStatus(ctx context.Context, id string, status checker.Status, checkedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.services[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	t := checkedAt.UTC()
	s.LastChecked = &t
	return nil
}
