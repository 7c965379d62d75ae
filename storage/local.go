package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/LilVoxy/cargo_pipeline/models"
)

// LocalStore реализация BlobStore поверх локальной файловой системы.
// Используется в разработке и тестах вместо облачного бакета
type LocalStore struct {
	root string
}

// NewLocalStore создает новый экземпляр LocalStore
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// path переводит имя объекта в путь внутри корневого каталога
func (s *LocalStore) path(object string) string {
	return filepath.Join(s.root, filepath.FromSlash(object))
}

// Open открывает объект на чтение
func (s *LocalStore) Open(ctx context.Context, object string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(object))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &models.ExternalIOError{Op: "open", Object: object, Err: ErrObjectNotExist}
		}
		return nil, &models.ExternalIOError{Op: "open", Object: object, Err: err}
	}

	return f, nil
}

// Create создает объект на запись вместе с недостающими каталогами
func (s *LocalStore) Create(ctx context.Context, object string) (io.WriteCloser, error) {
	p := s.path(object)

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, &models.ExternalIOError{Op: "create", Object: object, Err: err}
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, &models.ExternalIOError{Op: "create", Object: object, Err: err}
	}

	return f, nil
}

// Copy копирует объект внутри хранилища
func (s *LocalStore) Copy(ctx context.Context, src, dst string) error {
	data, err := os.ReadFile(s.path(src))
	if err != nil {
		if os.IsNotExist(err) {
			return &models.ExternalIOError{Op: "copy", Object: src, Err: ErrObjectNotExist}
		}
		return &models.ExternalIOError{Op: "copy", Object: src, Err: err}
	}

	p := s.path(dst)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return &models.ExternalIOError{Op: "copy", Object: dst, Err: err}
	}

	if err := os.WriteFile(p, data, 0644); err != nil {
		return &models.ExternalIOError{Op: "copy", Object: dst, Err: err}
	}

	return nil
}

// Delete удаляет объект
func (s *LocalStore) Delete(ctx context.Context, object string) error {
	if err := os.Remove(s.path(object)); err != nil {
		if os.IsNotExist(err) {
			return &models.ExternalIOError{Op: "delete", Object: object, Err: ErrObjectNotExist}
		}
		return &models.ExternalIOError{Op: "delete", Object: object, Err: err}
	}

	return nil
}
