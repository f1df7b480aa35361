package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/recordbook/recordbook/internal/person"
	"github.com/recordbook/recordbook/internal/person/query"
)

// MemoryRepo is an in-memory person repository used for unit tests and when
// no MongoDB URI is configured. Queries run through the same clauses and
// aggregation stages as the Mongo repository.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*person.Person
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*person.Person)}
}

func (m *MemoryRepo) Save(ctx context.Context, p *person.Person) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.store[p.ID] = p.Clone()
	return p.ID, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

// FindByID returns nil, nil when id is absent.
func (m *MemoryRepo) FindByID(ctx context.Context, id string) (*person.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.store[id]; ok {
		return p.Clone(), nil
	}
	return nil, nil
}

func (m *MemoryRepo) FindAll(ctx context.Context) ([]*person.Person, error) {
	return m.find(nil), nil
}

func (m *MemoryRepo) FindByFirstNameStartsWith(ctx context.Context, prefix string) ([]*person.Person, error) {
	return m.find([]query.Clause{query.FirstNamePrefix(prefix)}), nil
}

func (m *MemoryRepo) FindByAgeBetween(ctx context.Context, min, max int) ([]*person.Person, error) {
	out := m.find([]query.Clause{query.AgeBetween(min, max)})
	for _, p := range out {
		p.Addresses = nil
	}
	return out, nil
}

func (m *MemoryRepo) Search(ctx context.Context, clauses []query.Clause, pg person.Pageable) (*person.Page, error) {
	pg = pg.Normalize()
	cmp, err := query.Compare(pg.Sort)
	if err != nil {
		return nil, err
	}
	matched := m.find(clauses)
	slices.SortFunc(matched, cmp)

	total := int64(len(matched))
	start := min(pg.Offset(), total)
	end := min(start+int64(pg.Size), total)
	return &person.Page{Items: matched[start:end], Total: total, Page: pg.Page, Size: pg.Size}, nil
}

func (m *MemoryRepo) OldestByCity(ctx context.Context) ([]person.CityOldest, error) {
	return query.OldestByCity(m.find(nil)), nil
}

func (m *MemoryRepo) PopulationByCity(ctx context.Context) ([]person.CityPopulation, error) {
	return query.PopulationByCity(m.find(nil)), nil
}

// find returns copies of matching people ordered by id.
func (m *MemoryRepo) find(clauses []query.Clause) []*person.Person {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*person.Person, 0, len(m.store))
	for _, p := range m.store {
		if query.Match(clauses, p) {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *person.Person) int { return strings.Compare(a.ID, b.ID) })
	return out
}
