package storage

import (
	"context"
	"errors"
	"io"

	gcs "cloud.google.com/go/storage"

	"github.com/LilVoxy/cargo_pipeline/models"
)

// GCSStore реализация BlobStore поверх Google Cloud Storage
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore создает новый экземпляр GCSStore.
// Учетные данные берутся из стандартного окружения Google Cloud
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, &models.ConnectionError{Target: "объектному хранилищу", Err: err}
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
	}, nil
}

// Open открывает объект бакета на чтение
func (s *GCSStore) Open(ctx context.Context, object string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, &models.ExternalIOError{Op: "open", Object: object, Err: ErrObjectNotExist}
		}
		return nil, &models.ExternalIOError{Op: "open", Object: object, Err: err}
	}

	return r, nil
}

// Create создает объект бакета на запись; данные фиксируются при закрытии writer'а
func (s *GCSStore) Create(ctx context.Context, object string) (io.WriteCloser, error) {
	return s.client.Bucket(s.bucket).Object(object).NewWriter(ctx), nil
}

// Copy копирует объект внутри бакета
func (s *GCSStore) Copy(ctx context.Context, src, dst string) error {
	srcObj := s.client.Bucket(s.bucket).Object(src)
	dstObj := s.client.Bucket(s.bucket).Object(dst)

	if _, err := dstObj.CopierFrom(srcObj).Run(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return &models.ExternalIOError{Op: "copy", Object: src, Err: ErrObjectNotExist}
		}
		return &models.ExternalIOError{Op: "copy", Object: src, Err: err}
	}

	return nil
}

// Delete удаляет объект бакета
func (s *GCSStore) Delete(ctx context.Context, object string) error {
	if err := s.client.Bucket(s.bucket).Object(object).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return &models.ExternalIOError{Op: "delete", Object: object, Err: ErrObjectNotExist}
		}
		return &models.ExternalIOError{Op: "delete", Object: object, Err: err}
	}

	return nil
}

// Close закрывает клиент объектного хранилища
func (s *GCSStore) Close() error {
	return s.client.Close()
}
