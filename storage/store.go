// Package storage отвечает за работу конвейера с объектным хранилищем:
// чтение входных манифестов, публикацию silver-артефактов и перенос
// обработанных файлов в резервную зону
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotExist возвращается, когда запрошенный объект отсутствует в хранилище
var ErrObjectNotExist = errors.New("объект не найден в хранилище")

// BlobStore представляет объектное хранилище конвейера
type BlobStore interface {
	// Open открывает объект на чтение
	Open(ctx context.Context, object string) (io.ReadCloser, error)

	// Create создает объект на запись; данные фиксируются при закрытии writer'а
	Create(ctx context.Context, object string) (io.WriteCloser, error)

	// Copy копирует объект внутри хранилища
	Copy(ctx context.Context, src, dst string) error

	// Delete удаляет объект
	Delete(ctx context.Context, object string) error
}
