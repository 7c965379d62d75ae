package gold

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// SummaryLoader отвечает за загрузку сводки по портам и сегментам
// в фиксированную таблицу. Сводка дописывается: история прогонов
// сохраняется, срез прогона различается по loaded_at
type SummaryLoader struct {
	db     *sql.DB
	logger *utils.PipelineLogger
	table  string
}

// NewSummaryLoader создает новый экземпляр SummaryLoader
func NewSummaryLoader(db *sql.DB, table string, logger *utils.PipelineLogger) *SummaryLoader {
	return &SummaryLoader{
		db:     db,
		logger: logger,
		table:  table,
	}
}

// CreateSummaryTable создает сводную таблицу, если ее еще нет
func (l *SummaryLoader) CreateSummaryTable() error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INT AUTO_INCREMENT PRIMARY KEY,
		load_port VARCHAR(64) NOT NULL,
		segment VARCHAR(32) NOT NULL,
		total_units INT NOT NULL,
		total_cbm DECIMAL(14,2) NOT NULL,
		shipment_count INT NOT NULL,
		loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_port_segment (load_port, segment)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`, l.table)

	if _, err := l.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы %s: %w", l.table, err)
	}

	return nil
}

// Load дописывает строки сводки в сводную таблицу
func (l *SummaryLoader) Load(summaries []models.PortSegmentSummary) error {
	if len(summaries) == 0 {
		l.logger.Debug("Нет строк сводки для загрузки")
		return nil
	}

	startTime := time.Now()
	l.logger.Info("Начало загрузки сводки (всего групп: %d)", len(summaries))

	if err := l.CreateSummaryTable(); err != nil {
		return err
	}

	// Подготавливаем запрос для вставки строк сводки
	stmt, err := l.db.Prepare(fmt.Sprintf(`
		INSERT INTO %s
		(load_port, segment, total_units, total_cbm, shipment_count)
		VALUES (?, ?, ?, ?, ?)
	`, l.table))
	if err != nil {
		return fmt.Errorf("ошибка при подготовке запроса: %w", err)
	}
	defer stmt.Close()

	// Начинаем транзакцию
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	// Подготавливаем запрос в транзакции
	txStmt := tx.Stmt(stmt)
	defer txStmt.Close()

	processed := 0
	errors := 0

	// Обрабатываем каждую группу
	for _, summary := range summaries {
		_, err := txStmt.Exec(
			summary.LoadPort,
			summary.Segment,
			summary.TotalUnits,
			summary.TotalCBM,
			summary.ShipmentCount,
		)
		if err != nil {
			l.logger.Error("Ошибка при вставке сводки для (%s, %s): %v",
				summary.LoadPort, summary.Segment, err)
			errors++
			continue
		}

		processed++
	}

	// Если были ошибки, откатываем транзакцию
	if errors > 0 {
		tx.Rollback()
		return fmt.Errorf("произошло %d ошибок при загрузке сводки", errors)
	}

	// Фиксируем транзакцию
	err = tx.Commit()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	duration := time.Since(startTime)
	l.logger.Info("Загрузка сводки завершена. Загружено групп: %d. Длительность: %v", processed, duration)

	return nil
}
