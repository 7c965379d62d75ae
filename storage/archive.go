package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/golang/snappy"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Compress сжимает содержимое объекта перед укладкой в резервную зону
func Compress(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// Decompress распаковывает содержимое резервной копии
func Decompress(data []byte) ([]byte, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	return decompressed, nil
}

// Archiver отвечает за перенос обработанного манифеста в резервную зону:
// запись сжатой копии и удаление оригинала из зоны приземления
type Archiver struct {
	store  BlobStore
	logger *utils.PipelineLogger
}

// NewArchiver создает новый экземпляр Archiver
func NewArchiver(store BlobStore, logger *utils.PipelineLogger) *Archiver {
	return &Archiver{
		store:  store,
		logger: logger,
	}
}

// Archive переносит объект в резервную зону. Вызывается строго после
// успешной записи silver-артефакта: сначала записывается сжатая копия,
// затем удаляется оригинал
func (a *Archiver) Archive(ctx context.Context, object, backupPrefix string) (string, error) {
	startTime := time.Now()

	// 1. Читаем оригинал из зоны приземления
	r, err := a.store.Open(ctx, object)
	if err != nil {
		return "", fmt.Errorf("ошибка при чтении исходного объекта: %w", err)
	}

	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return "", &models.ExternalIOError{Op: "read", Object: object, Err: err}
	}

	// 2. Пишем сжатую копию в резервную зону
	backupObject := backupPrefix + path.Base(object) + ".snappy"

	w, err := a.store.Create(ctx, backupObject)
	if err != nil {
		return "", fmt.Errorf("ошибка при создании резервной копии: %w", err)
	}

	if _, err := w.Write(Compress(data)); err != nil {
		w.Close()
		return "", &models.ExternalIOError{Op: "write", Object: backupObject, Err: err}
	}

	if err := w.Close(); err != nil {
		return "", &models.ExternalIOError{Op: "write", Object: backupObject, Err: err}
	}

	// 3. Удаляем оригинал из зоны приземления
	if err := a.store.Delete(ctx, object); err != nil {
		return backupObject, fmt.Errorf("резервная копия записана, но оригинал не удален: %w", err)
	}

	a.logger.Info("Манифест %s перенесен в резервную зону (%s). Длительность: %v",
		object, backupObject, time.Since(startTime))

	return backupObject, nil
}

// Restore распаковывает резервную копию обратно в зону приземления
// для повторного прогона
func (a *Archiver) Restore(ctx context.Context, backupObject, landingPrefix string) (string, error) {
	r, err := a.store.Open(ctx, backupObject)
	if err != nil {
		return "", fmt.Errorf("ошибка при чтении резервной копии: %w", err)
	}

	compressed, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return "", &models.ExternalIOError{Op: "read", Object: backupObject, Err: err}
	}

	data, err := Decompress(compressed)
	if err != nil {
		return "", &models.ParseError{Source: backupObject, Err: err}
	}

	restoredObject := landingPrefix + strings.TrimSuffix(path.Base(backupObject), ".snappy")

	w, err := a.store.Create(ctx, restoredObject)
	if err != nil {
		return "", fmt.Errorf("ошибка при восстановлении манифеста: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", &models.ExternalIOError{Op: "write", Object: restoredObject, Err: err}
	}

	if err := w.Close(); err != nil {
		return "", &models.ExternalIOError{Op: "write", Object: restoredObject, Err: err}
	}

	a.logger.Info("Манифест восстановлен из резервной копии: %s", restoredObject)
	return restoredObject, nil
}
