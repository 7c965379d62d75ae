package gold

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// LoadManager отвечает за управление загрузкой gold-слоя в хранилище
type LoadManager struct {
	logger    *utils.PipelineLogger
	shipments *ShipmentLoader
	summary   *SummaryLoader
}

// NewLoadManager создает новый экземпляр LoadManager
func NewLoadManager(db *sql.DB, rawTablePrefix, summaryTable string, logger *utils.PipelineLogger) *LoadManager {
	return &LoadManager{
		logger:    logger,
		shipments: NewShipmentLoader(db, rawTablePrefix, logger),
		summary:   NewSummaryLoader(db, summaryTable, logger),
	}
}

// Load выполняет фазу загрузки gold-слоя:
// сначала таблицы-дампы по портам, затем сводная таблица
func (m *LoadManager) Load(rows []models.EnrichedShipment, summaries []models.PortSegmentSummary) (int, error) {
	startTime := time.Now()
	m.logger.Info("Начало фазы загрузки gold-слоя")

	// 1. Загружаем дампы по портам отгрузки
	loaded, err := m.shipments.Load(rows)
	if err != nil {
		m.logger.Error("Ошибка при загрузке дампов по портам: %v", err)
		return loaded, fmt.Errorf("ошибка при загрузке дампов по портам: %w", err)
	}

	// 2. Загружаем сводку по портам и сегментам
	if err := m.summary.Load(summaries); err != nil {
		m.logger.Error("Ошибка при загрузке сводки: %v", err)
		return loaded, fmt.Errorf("ошибка при загрузке сводки: %w", err)
	}

	duration := time.Since(startTime)
	m.logger.Info("Фаза загрузки gold-слоя завершена. Длительность: %v", duration)

	return loaded, nil
}
