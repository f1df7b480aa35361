package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/recordbook/recordbook/internal/photo"
)

// MemoryRepo keeps photos in a map; used for tests and Mongo-less runs.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*photo.Photo
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*photo.Photo)}
}

func (m *MemoryRepo) Insert(ctx context.Context, p *photo.Photo) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := m.store[p.ID]; ok {
		return "", fmt.Errorf("insert photo: duplicate id %q", p.ID)
	}
	c := *p
	c.Image = append([]byte(nil), p.Image...)
	m.store[p.ID] = &c
	return p.ID, nil
}

// FindByID returns nil, nil when id is absent.
func (m *MemoryRepo) FindByID(ctx context.Context, id string) (*photo.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	c := *p
	c.Image = append([]byte(nil), p.Image...)
	return &c, nil
}
