package gold

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/LilVoxy/cargo_pipeline/config"
	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/storage"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Stage выполняет gold-этап конвейера
type Stage struct {
	cfg        *config.PipelineConfig
	store      storage.BlobStore
	aggregator *Aggregator
	loads      *LoadManager
	logger     *utils.PipelineLogger
	progress   models.ProgressSink
}

// Result содержит итоги gold-этапа для журнала запусков
type Result struct {
	RowsLoaded    int
	SummaryGroups int
}

// NewStage создает новый экземпляр gold-этапа
func NewStage(cfg *config.PipelineConfig, store storage.BlobStore, db *sql.DB, logger *utils.PipelineLogger, progress models.ProgressSink) *Stage {
	return &Stage{
		cfg:        cfg,
		store:      store,
		aggregator: NewAggregator(logger),
		loads:      NewLoadManager(db, cfg.Warehouse.RawTablePrefix, cfg.Warehouse.SummaryTable, logger),
		logger:     logger,
		progress:   progress,
	}
}

// Run выполняет полный gold-этап над указанным артефактом
func (s *Stage) Run(ctx context.Context, runID, artifact string) (*Result, error) {
	startTime := time.Now()
	result := &Result{}

	s.logger.LogStageStart("gold")

	// 1. Чтение артефакта silver-слоя
	s.publish(runID, 10, "чтение артефакта")
	rows, err := s.readArtifact(ctx, artifact)
	if err != nil {
		return result, err
	}
	s.logger.Info("Артефакт прочитан: %s, строк %d", artifact, len(rows))

	if len(rows) == 0 {
		s.logger.Info("Артефакт пуст, загрузка не требуется")
		return result, nil
	}

	// 2. Агрегация по портам и сегментам
	s.publish(runID, 40, "агрегация по портам и сегментам")
	summaries, err := s.aggregator.Aggregate(rows)
	if err != nil {
		return result, err
	}

	// 3. Загрузка в хранилище
	s.publish(runID, 70, "загрузка в хранилище")
	loaded, err := s.loads.Load(rows, summaries)
	result.RowsLoaded = loaded
	if err != nil {
		return result, err
	}
	result.SummaryGroups = len(summaries)

	s.logger.LogStageComplete("gold", time.Since(startTime))

	return result, nil
}

// readArtifact читает артефакт из объектного хранилища и разбирает parquet
func (s *Stage) readArtifact(ctx context.Context, object string) ([]models.EnrichedShipment, error) {
	r, err := s.store.Open(ctx, object)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &models.ExternalIOError{Op: "чтение", Object: object, Err: err}
	}

	rows, err := parquet.Read[models.EnrichedShipment](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &models.ParseError{Source: object, Err: err}
	}

	return rows, nil
}

func (s *Stage) publish(runID string, percent int, message string) {
	s.progress.Publish(models.ProgressEvent{
		RunID:     runID,
		Stage:     "gold",
		Percent:   percent,
		Message:   message,
		Timestamp: time.Now(),
	})
}
