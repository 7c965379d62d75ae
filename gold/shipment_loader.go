package gold

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// ShipmentLoader отвечает за загрузку строк артефакта в таблицы-дампы.
// Для каждого порта отгрузки ведется отдельная таблица: префикс из
// конфигурации плюс код порта
type ShipmentLoader struct {
	db     *sql.DB
	logger *utils.PipelineLogger
	prefix string
}

// NewShipmentLoader создает новый экземпляр ShipmentLoader
func NewShipmentLoader(db *sql.DB, prefix string, logger *utils.PipelineLogger) *ShipmentLoader {
	return &ShipmentLoader{
		db:     db,
		logger: logger,
		prefix: prefix,
	}
}

// Load загружает строки артефакта, распределяя их по таблицам портов.
// Порты обрабатываются в отсортированном порядке
func (l *ShipmentLoader) Load(rows []models.EnrichedShipment) (int, error) {
	if len(rows) == 0 {
		l.logger.Debug("Нет строк артефакта для загрузки")
		return 0, nil
	}

	startTime := time.Now()
	l.logger.Info("Начало загрузки строк артефакта (всего: %d)", len(rows))

	byPort := make(map[string][]models.EnrichedShipment)
	for _, row := range rows {
		byPort[row.LoadPort] = append(byPort[row.LoadPort], row)
	}

	ports := make([]string, 0, len(byPort))
	for port := range byPort {
		ports = append(ports, port)
	}
	sort.Strings(ports)

	total := 0
	for _, port := range ports {
		table := l.prefix + sanitizeTableName(port)
		if err := l.loadPort(table, byPort[port]); err != nil {
			return total, fmt.Errorf("ошибка при загрузке таблицы %s: %w", table, err)
		}
		total += len(byPort[port])
	}

	duration := time.Since(startTime)
	l.logger.Info("Загрузка строк артефакта завершена. Таблиц: %d, записей: %d. Длительность: %v",
		len(ports), total, duration)

	return total, nil
}

// loadPort загружает строки одного порта в его таблицу
func (l *ShipmentLoader) loadPort(table string, rows []models.EnrichedShipment) error {
	if err := l.createTable(table); err != nil {
		return err
	}

	// Подготавливаем запрос для вставки строк артефакта
	stmt, err := l.db.Prepare(fmt.Sprintf(`
		INSERT INTO %s
		(order_no, sender, model, units, cbm, weight, delivery_date,
		load_port, discharge_port, segment, result_cbm, trade)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, table))
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

	// Обрабатываем каждую строку
	for _, row := range rows {
		_, err := txStmt.Exec(
			row.OrderNo,
			row.Sender,
			row.Model,
			row.Units,
			row.CBM,
			row.Weight,
			row.DeliveryDate,
			row.LoadPort,
			row.DischargePort,
			row.Segment,
			row.ResultCBM,
			row.Trade,
		)
		if err != nil {
			l.logger.Error("Ошибка при вставке строки %s в %s: %v", row.OrderNo, table, err)
			errors++
			continue
		}

		processed++

		// Логируем прогресс каждые 100 строк
		if processed%100 == 0 {
			l.logger.Debug("Загружено %d из %d строк в %s...", processed, len(rows), table)
		}
	}

	// Если были ошибки, откатываем транзакцию
	if errors > 0 {
		tx.Rollback()
		return fmt.Errorf("произошло %d ошибок при загрузке строк", errors)
	}

	// Фиксируем транзакцию
	err = tx.Commit()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	l.logger.Debug("Таблица %s: загружено %d строк", table, processed)

	return nil
}

// createTable создает таблицу-дамп порта, если ее еще нет
func (l *ShipmentLoader) createTable(table string) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INT AUTO_INCREMENT PRIMARY KEY,
		order_no VARCHAR(64) NOT NULL,
		sender VARCHAR(128) NOT NULL,
		model VARCHAR(128) NOT NULL,
		units INT NOT NULL,
		cbm DECIMAL(12,2) NOT NULL,
		weight DECIMAL(12,2) NOT NULL,
		delivery_date DATE NOT NULL,
		load_port VARCHAR(64) NOT NULL,
		discharge_port VARCHAR(64) NOT NULL,
		segment VARCHAR(32) NOT NULL,
		result_cbm DECIMAL(14,2) NOT NULL,
		trade VARCHAR(128) NOT NULL,
		loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_order_no (order_no),
		INDEX idx_delivery_date (delivery_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`, table)

	if _, err := l.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы %s: %w", table, err)
	}

	return nil
}

// sanitizeTableName оставляет в коде порта только символы, допустимые
// в имени таблицы MySQL
func sanitizeTableName(port string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, port)
}
