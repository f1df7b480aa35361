package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/recordbook/recordbook/internal/photo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRepo stores photos in a MongoDB collection. Photos are immutable once
// inserted, so there is no update path.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Insert(ctx context.Context, p *photo.Photo) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, err := m.col.InsertOne(ctx, p); err != nil {
		return "", fmt.Errorf("insert photo: %w", err)
	}
	return p.ID, nil
}

// FindByID returns nil, nil when id is absent.
func (m *MongoRepo) FindByID(ctx context.Context, id string) (*photo.Photo, error) {
	var p photo.Photo
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find photo: %w", err)
	}
	return &p, nil
}
