package draft

import (
	"context"
	"errors"
	"sync"

	"github.com/stagebook/stagebook/internal/domain"
)

var ErrNotFound = errors.New("draft not found")

// Store persists in-progress booking drafts. Kept deliberately small so the
// backing store (Redis in production) can be swapped for a fake in tests.
// The draft format carries no version tag; an incompatible stored draft
// simply fails to load and the visitor starts over.
type Store interface {
	Save(ctx context.Context, d *domain.Draft) error
	Load(ctx context.Context, id string) (*domain.Draft, error)
	Delete(ctx context.Context, id string) error
}

// Memory is an in-process Store used by tests.
type Memory struct {
	mu sync.Mutex
	m  map[string]domain.Draft
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]domain.Draft)}
}

func (s *Memory) Save(_ context.Context, d *domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[d.ID] = *d
	return nil
}

func (s *Memory) Load(_ context.Context, id string) (*domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.m[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &d, nil
}

func (s *Memory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}
