package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/recordbook/recordbook/internal/photo"
	"github.com/recordbook/recordbook/internal/photo/repository"
	"github.com/recordbook/recordbook/pkg/logger"
	"github.com/recordbook/recordbook/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

const collection = "photos"

// Repository persists photo documents. FindByID returns nil, nil when absent.
type Repository interface {
	Insert(ctx context.Context, p *photo.Photo) (string, error)
	FindByID(ctx context.Context, id string) (*photo.Photo, error)
}

// BlobStore holds image bytes outside the document store. It is satisfied by
// *storage.MinIOStorage.
type BlobStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, key string) error
}

var ErrBlobStoreUnavailable = errors.New("photo content is in object storage but no blob store is configured")

type Service struct {
	repo  Repository
	blobs BlobStore
}

// NewService builds a photo service. blobs may be nil, in which case image
// bytes are stored inline in the photo document.
func NewService(r Repository, blobs BlobStore) *Service {
	return &Service{repo: r, blobs: blobs}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() *Service {
	return NewService(repository.NewMemoryRepo(), nil)
}

// NewMongoService returns a Service backed by a MongoDB collection.
func NewMongoService(col *mongo.Collection, blobs BlobStore) *Service {
	return NewService(repository.NewMongoRepo(col), blobs)
}

// AddPhoto stores content under a new id and returns that id.
func (s *Service) AddPhoto(ctx context.Context, filename string, content []byte) (id string, err error) {
	defer observe("add", time.Now(), &err)
	p := &photo.Photo{
		ID:          uuid.NewString(),
		Title:       filename,
		ContentType: http.DetectContentType(content),
		Size:        int64(len(content)),
	}
	if s.blobs != nil {
		key := "photos/" + p.ID
		if err := s.blobs.UploadFile(ctx, key, bytes.NewReader(content), p.Size, p.ContentType); err != nil {
			return "", err
		}
		p.ObjectKey = key
	} else {
		p.Image = content
	}
	id, err = s.repo.Insert(ctx, p)
	if err != nil && p.ObjectKey != "" {
		// the document never landed, so nothing references the object
		if derr := s.blobs.DeleteFile(context.WithoutCancel(ctx), p.ObjectKey); derr != nil {
			logger.Warnf("photo add: orphaned object %s: %v", p.ObjectKey, derr)
		}
	}
	return id, err
}

// GetPhoto returns photo.ErrNotFound when no photo has this id.
func (s *Service) GetPhoto(ctx context.Context, id string) (p *photo.Photo, err error) {
	defer observe("get", time.Now(), &err)
	p, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, photo.ErrNotFound
	}
	if p.ObjectKey == "" {
		return p, nil
	}
	if s.blobs == nil {
		return nil, ErrBlobStoreUnavailable
	}
	rc, err := s.blobs.DownloadFile(ctx, p.ObjectKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if p.Image, err = io.ReadAll(rc); err != nil {
		return nil, fmt.Errorf("read %s: %w", p.ObjectKey, err)
	}
	return p, nil
}

func observe(op string, start time.Time, errp *error) {
	metrics.StoreOperationDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
	err := *errp
	switch {
	case err == nil:
		metrics.StoreOperations.WithLabelValues(collection, op, "ok").Inc()
	case errors.Is(err, photo.ErrNotFound):
		metrics.StoreOperations.WithLabelValues(collection, op, "not_found").Inc()
	default:
		metrics.StoreOperations.WithLabelValues(collection, op, "error").Inc()
		logger.Errorf("photo %s failed: %v", op, err)
		*errp = fmt.Errorf("photo %s: %w", op, err)
	}
}
