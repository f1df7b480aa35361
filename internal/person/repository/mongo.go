package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/recordbook/recordbook/internal/person"
	"github.com/recordbook/recordbook/internal/person/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements the person repository on a MongoDB collection.
// Documents are keyed by a string _id; callers may supply one, otherwise a
// UUID is assigned on save.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the secondary indexes used by search.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "firstName", Value: 1}}},
		{Keys: bson.D{{Key: "age", Value: 1}}},
		{Keys: bson.D{{Key: "addresses.city", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create person indexes: %w", err)
	}
	return nil
}

// Save replaces the document with p's id, inserting it when absent.
func (m *MongoRepo) Save(ctx context.Context, p *person.Person) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, opts); err != nil {
		return "", fmt.Errorf("save person: %w", err)
	}
	return p.ID, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	if _, err := m.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when id is absent.
func (m *MongoRepo) FindByID(ctx context.Context, id string) (*person.Person, error) {
	var p person.Person
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find person: %w", err)
	}
	return &p, nil
}

func (m *MongoRepo) FindAll(ctx context.Context) ([]*person.Person, error) {
	return m.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (m *MongoRepo) FindByFirstNameStartsWith(ctx context.Context, prefix string) ([]*person.Person, error) {
	return m.find(ctx, query.FirstNamePrefix(prefix).BSON(), options.Find())
}

// FindByAgeBetween lists people with min < age < max, without addresses.
func (m *MongoRepo) FindByAgeBetween(ctx context.Context, min, max int) ([]*person.Person, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "addresses", Value: 0}})
	return m.find(ctx, query.AgeBetween(min, max).BSON(), opts)
}

// Search fetches one page of people matching all clauses. The total is
// counted with the same filter and no window.
func (m *MongoRepo) Search(ctx context.Context, clauses []query.Clause, pg person.Pageable) (*person.Page, error) {
	pg = pg.Normalize()
	sort, err := query.SortSpec(pg.Sort)
	if err != nil {
		return nil, err
	}
	filter := query.Filter(clauses)
	opts := options.Find().SetSort(sort).SetSkip(pg.Offset()).SetLimit(int64(pg.Size))
	items, err := m.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	total, err := m.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count persons: %w", err)
	}
	return &person.Page{Items: items, Total: total, Page: pg.Page, Size: pg.Size}, nil
}

func (m *MongoRepo) OldestByCity(ctx context.Context) ([]person.CityOldest, error) {
	out := []person.CityOldest{}
	if err := m.aggregate(ctx, query.OldestPersonByCityPipeline(), &out); err != nil {
		return nil, fmt.Errorf("oldest person by city: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) PopulationByCity(ctx context.Context) ([]person.CityPopulation, error) {
	out := []person.CityPopulation{}
	if err := m.aggregate(ctx, query.PopulationByCityPipeline(), &out); err != nil {
		return nil, fmt.Errorf("population by city: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cur, err := m.col.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

func (m *MongoRepo) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*person.Person, error) {
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find persons: %w", err)
	}
	defer cur.Close(ctx)
	out := []*person.Person{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode persons: %w", err)
	}
	return out, nil
}
