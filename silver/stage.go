// Package silver реализует первый этап конвейера: чтение сырого манифеста
// из зоны приземления, очистку, обогащение справочниками, расчет производных
// метрик, запись parquet-артефакта и архивирование входного объекта
package silver

import (
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/LilVoxy/cargo_pipeline/config"
	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/reference"
	"github.com/LilVoxy/cargo_pipeline/storage"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Stage выполняет silver-этап конвейера
type Stage struct {
	cfg      *config.PipelineConfig
	store    storage.BlobStore
	refs     *reference.Loader
	archiver *storage.Archiver
	writer   *ArtifactWriter
	cleaner  *Cleaner
	logger   *utils.PipelineLogger
	progress models.ProgressSink
}

// Result содержит итоги silver-этапа для журнала запусков
type Result struct {
	// Artifact — имя записанного артефакта; пустое, если батч оказался пуст
	Artifact string

	RowsExtracted int
	RowsCleaned   int
	RowsEnriched  int
}

// NewStage создает новый экземпляр silver-этапа
func NewStage(cfg *config.PipelineConfig, store storage.BlobStore, logger *utils.PipelineLogger, progress models.ProgressSink) *Stage {
	return &Stage{
		cfg:      cfg,
		store:    store,
		refs:     reference.NewLoader(store, logger),
		archiver: storage.NewArchiver(store, logger),
		writer:   NewArtifactWriter(store, logger),
		cleaner:  NewCleaner(cfg.RequiredColumns, logger),
		logger:   logger,
		progress: progress,
	}
}

// Run выполняет полный silver-этап над указанным входным объектом.
// Отметка времени прогона фиксируется один раз и используется и в имени
// артефакта, и в подстановке дат по умолчанию
func (s *Stage) Run(ctx context.Context, runID, inputObject string) (*Result, error) {
	startTime := time.Now()
	result := &Result{}

	s.logger.LogStageStart("silver")

	// 1. Чтение входного манифеста
	s.publish(runID, 5, "чтение входного манифеста")
	records, err := s.readManifest(ctx, inputObject)
	if err != nil {
		return result, err
	}
	if len(records) > 0 {
		result.RowsExtracted = len(records) - 1
	}
	s.logger.Info("Входной манифест прочитан: %s, строк %d", inputObject, result.RowsExtracted)

	// 2. Очистка
	s.publish(runID, 20, "очистка манифеста")
	cleaned, err := s.cleaner.Clean(records)
	if err != nil {
		return result, err
	}
	result.RowsCleaned = len(cleaned) - 1

	// Пустой после очистки батч — не ошибка: артефакт не пишется,
	// входной объект остается в зоне приземления
	if result.RowsCleaned == 0 {
		s.logger.Info("Нет новых данных для обработки")
		return result, nil
	}

	// 3. Справочные таблицы
	s.publish(runID, 35, "загрузка справочных таблиц")
	refs, err := s.refs.LoadAll(ctx, s.cfg.Reference)
	if err != nil {
		return result, err
	}

	df, err := Frame(cleaned)
	if err != nil {
		return result, err
	}

	// 4. Обогащение
	s.publish(runID, 55, "обогащение манифеста")
	enricher := NewEnricher(refs, startTime, s.logger)
	df, err = enricher.Enrich(df)
	if err != nil {
		return result, err
	}

	// 5. Производные метрики
	s.publish(runID, 70, "расчет производных метрик")
	metrics := NewMetricsProcessor(refs, startTime, s.logger)
	df, err = metrics.Derive(df)
	if err != nil {
		return result, err
	}
	result.RowsEnriched = df.Nrow()

	// 6. Запись артефакта
	s.publish(runID, 85, "запись артефакта")
	artifact := s.cfg.Storage.SilverPrefix + ArtifactName(inputObject, startTime)
	rows := BuildRows(df, s.logger)
	if err := s.writer.Write(ctx, artifact, rows); err != nil {
		return result, err
	}
	result.Artifact = artifact

	// 7. Архивирование входного объекта. Артефакт к этому моменту уже
	// записан, поэтому ошибка архивирования возвращается вместе с результатом
	s.publish(runID, 95, "архивирование входного манифеста")
	if _, err := s.archiver.Archive(ctx, inputObject, s.cfg.Storage.BackupPrefix); err != nil {
		return result, fmt.Errorf("ошибка при архивировании входного манифеста: %w", err)
	}

	s.logger.LogStageComplete("silver", time.Since(startTime))

	return result, nil
}

// readManifest читает входной манифест из объектного хранилища.
// Строки переменной длины допустимы: очистка выравнивает их по заголовку
func (s *Stage) readManifest(ctx context.Context, object string) ([][]string, error) {
	r, err := s.store.Open(ctx, object)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &models.ParseError{Source: object, Err: err}
	}

	return records, nil
}

func (s *Stage) publish(runID string, percent int, message string) {
	s.progress.Publish(models.ProgressEvent{
		RunID:     runID,
		Stage:     "silver",
		Percent:   percent,
		Message:   message,
		Timestamp: time.Now(),
	})
}
