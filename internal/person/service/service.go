package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/recordbook/recordbook/internal/person"
	"github.com/recordbook/recordbook/internal/person/query"
	"github.com/recordbook/recordbook/internal/person/repository"
	"github.com/recordbook/recordbook/pkg/logger"
	"github.com/recordbook/recordbook/pkg/metrics"
)

const collection = "persons"

// Repository is the persistence contract the person service depends on.
// FindByID returns nil, nil for an absent id.
type Repository interface {
	Save(ctx context.Context, p *person.Person) (string, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*person.Person, error)
	FindAll(ctx context.Context) ([]*person.Person, error)
	FindByFirstNameStartsWith(ctx context.Context, prefix string) ([]*person.Person, error)
	FindByAgeBetween(ctx context.Context, min, max int) ([]*person.Person, error)
	Search(ctx context.Context, clauses []query.Clause, pg person.Pageable) (*person.Page, error)
	OldestByCity(ctx context.Context) ([]person.CityOldest, error)
	PopulationByCity(ctx context.Context) ([]person.CityPopulation, error)
}

// Service holds no state between calls; every method is one or two store
// round trips. Store errors are returned wrapped, never retried.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() *Service {
	return NewService(repository.NewMemoryRepo())
}

// Save inserts p or replaces the stored person with the same id.
func (s *Service) Save(ctx context.Context, p *person.Person) (id string, err error) {
	defer s.observe("save", time.Now(), &err)
	return s.repo.Save(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer s.observe("delete", time.Now(), &err)
	return s.repo.Delete(ctx, id)
}

// GetByID returns person.ErrNotFound when no document has this id.
func (s *Service) GetByID(ctx context.Context, id string) (p *person.Person, err error) {
	defer s.observe("get", time.Now(), &err)
	p, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, person.ErrNotFound
	}
	return p, nil
}

func (s *Service) GetAll(ctx context.Context) (ps []*person.Person, err error) {
	defer s.observe("list", time.Now(), &err)
	return s.repo.FindAll(ctx)
}

// GetPersonStartWith lists people whose first name starts with name.
func (s *Service) GetPersonStartWith(ctx context.Context, name string) (ps []*person.Person, err error) {
	defer s.observe("starts_with", time.Now(), &err)
	return s.repo.FindByFirstNameStartsWith(ctx, name)
}

// GetByPersonAge lists people strictly between minAge and maxAge, without
// their addresses.
func (s *Service) GetByPersonAge(ctx context.Context, minAge, maxAge int) (ps []*person.Person, err error) {
	defer s.observe("age_between", time.Now(), &err)
	return s.repo.FindByAgeBetween(ctx, minAge, maxAge)
}

// Search returns one page of people matching every supplied criterion.
// Blank strings and a half-open age range are ignored, not rejected.
func (s *Service) Search(ctx context.Context, c query.Criteria, pg person.Pageable) (page *person.Page, err error) {
	defer s.observe("search", time.Now(), &err)
	clauses := query.Clauses(c)
	logger.Debugf("person search: %d clause(s) page=%d size=%d", len(clauses), pg.Page, pg.Size)
	return s.repo.Search(ctx, clauses, pg)
}

func (s *Service) GetOldestPersonByCity(ctx context.Context) (rows []person.CityOldest, err error) {
	defer s.observe("oldest_by_city", time.Now(), &err)
	return s.repo.OldestByCity(ctx)
}

func (s *Service) GetPopulationByCity(ctx context.Context) (rows []person.CityPopulation, err error) {
	defer s.observe("population_by_city", time.Now(), &err)
	return s.repo.PopulationByCity(ctx)
}

func (s *Service) observe(op string, start time.Time, errp *error) {
	metrics.StoreOperationDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
	err := *errp
	switch {
	case err == nil:
		metrics.StoreOperations.WithLabelValues(collection, op, "ok").Inc()
	case errors.Is(err, person.ErrNotFound):
		metrics.StoreOperations.WithLabelValues(collection, op, "not_found").Inc()
	case errors.Is(err, query.ErrUnknownSortField):
		metrics.StoreOperations.WithLabelValues(collection, op, "invalid").Inc()
	default:
		metrics.StoreOperations.WithLabelValues(collection, op, "error").Inc()
		logger.Errorf("person %s failed: %v", op, err)
		*errp = fmt.Errorf("person %s: %w", op, err)
	}
}
